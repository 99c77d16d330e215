package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSourceHandlerFactory_CreateHandler(t *testing.T) {
	t.Parallel()

	factory := NewSourceHandlerFactory(nil)

	tests := []struct {
		name          string
		scheme        string
		expectError   bool
		expectedType  interface{}
		errorContains string
	}{
		{
			name:         "https scheme",
			scheme:       SchemeHTTPS,
			expectedType: &apiSourceHandler{},
		},
		{
			name:         "http scheme",
			scheme:       SchemeHTTP,
			expectedType: &apiSourceHandler{},
		},
		{
			name:         "file scheme",
			scheme:       SchemeFile,
			expectedType: &fileSourceHandler{},
		},
		{
			name:         "git over https",
			scheme:       SchemeGitHTTPS,
			expectedType: &gitSourceHandler{},
		},
		{
			name:         "git local repository",
			scheme:       SchemeGitFile,
			expectedType: &gitSourceHandler{},
		},
		{
			name:         "bare path",
			scheme:       "",
			expectedType: &fileSourceHandler{},
		},
		{
			name:          "unsupported scheme",
			scheme:        "ftp",
			expectError:   true,
			errorContains: "unsupported source scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, err := factory.CreateHandler(tt.scheme)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expectedType, handler)
		})
	}
}
