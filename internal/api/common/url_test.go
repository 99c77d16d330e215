package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// withKind attaches a chi route context carrying the raw {kind} value
func withKind(r *http.Request, raw string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", raw)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetKindParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    catalog.Kind
		wantErr string
	}{
		{name: "extensions", raw: "extensions", want: catalog.KindExtension},
		{name: "plugin alias", raw: "plugins", want: catalog.KindExtension},
		{name: "themes", raw: "themes", want: catalog.KindTheme},
		{name: "mixed case singular", raw: "Theme", want: catalog.KindTheme},
		{name: "escaped", raw: url.PathEscape("extension"), want: catalog.KindExtension},
		{name: "escaped whitespace is trimmed", raw: "%20themes%20", want: catalog.KindTheme},
		{name: "empty", raw: "", wantErr: "kind cannot be empty"},
		{name: "blank", raw: "%20%09", wantErr: "kind cannot be empty"},
		{name: "bad escape", raw: "themes%zz", wantErr: "invalid URL encoding"},
		{name: "unknown", raw: "widgets", wantErr: "unknown catalog kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := withKind(httptest.NewRequest(http.MethodGet, "/v1/x/entries", nil), tt.raw)
			kind, err := GetKindParam(req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestGetKindParam_NoRouteContext(t *testing.T) {
	t.Parallel()

	_, err := GetKindParam(httptest.NewRequest(http.MethodGet, "/v1/themes/entries", nil))
	assert.ErrorContains(t, err, "kind cannot be empty")
}

func TestGetRequiredQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{name: "install URL", target: "/v1/extensions/entry?id=" + url.QueryEscape("https://cat.dev/battery/"), want: "https://cat.dev/battery/"},
		{name: "missing", target: "/v1/extensions/entry", wantErr: true},
		{name: "blank", target: "/v1/extensions/entry?id=%20", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := GetRequiredQuery(httptest.NewRequest(http.MethodGet, tt.target, nil), "id")
			if tt.wantErr {
				assert.EqualError(t, err, "id is required")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestGetLimitQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "unset", query: "", want: 0},
		{name: "valid", query: "?limit=25", want: 25},
		{name: "zero", query: "?limit=0", wantErr: true},
		{name: "negative", query: "?limit=-3", wantErr: true},
		{name: "not a number", query: "?limit=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			limit, err := GetLimitQuery(httptest.NewRequest(http.MethodGet, "/v1/themes/entries"+tt.query, nil))
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid limit")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, limit)
		})
	}
}
