package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/service/mocks"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	"github.com/stacklok/toolhive-catalog-browser/internal/storage"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	syncmocks "github.com/stacklok/toolhive-catalog-browser/internal/sync/mocks"
)

func TestBaseConfigDefaults(t *testing.T) {
	t.Parallel()

	built, err := baseConfig()
	require.NoError(t, err)
	require.NotNil(t, built)
	require.NotNil(t, built.config)
	assert.Empty(t, built.address)
	assert.True(t, built.backgroundRefresh)
	assert.True(t, built.commitOnStop)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	assert.Equal(t, defaultReadTimeout, built.readTimeout)
	assert.Equal(t, defaultWriteTimeout, built.writeTimeout)
	assert.Equal(t, defaultIdleTimeout, built.idleTimeout)
}

func TestBaseConfigOptionError(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(
		WithConfig(createTestAppConfig()),
		WithAddress(":"),
	)
	require.Error(t, err)
	require.Nil(t, built)
}

func TestBaseConfigChained(t *testing.T) {
	t.Parallel()
	cfg := createTestAppConfig()

	built, err := baseConfig(
		WithConfig(cfg),
		WithAddress(":8888"),
		WithKinds(catalog.KindTheme),
		WithBackgroundRefresh(false),
		WithCommitOnStop(false),
	)
	require.NoError(t, err)
	assert.Same(t, cfg, built.config)
	assert.Equal(t, ":8888", built.address)
	assert.Equal(t, []catalog.Kind{catalog.KindTheme}, built.kinds)
	assert.False(t, built.backgroundRefresh)
	assert.False(t, built.commitOnStop)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "valid address", address: ":9999", want: ":9999"},
		{name: "valid address with host", address: "127.0.0.1:9999", want: "127.0.0.1:9999"},
		{name: "valid address with localhost", address: "localhost:9999", want: "localhost:9999"},
		{name: "invalid empty address", address: "", wantErr: true},
		{name: "invalid empty port", address: ":", wantErr: true},
		{name: "invalid missing port", address: "localhost", wantErr: true},
		{name: "invalid port out of range", address: "localhost:999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &catalogAppConfig{}
			err := WithAddress(tt.address)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.address)
		})
	}
}

func TestComponentOptions(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	manager := syncmocks.NewMockManager(ctrl)
	seen := storage.NewMemoryStore()
	persistence := status.NewMemoryStatusPersistence()
	checker := catalog.NewStaticInstallChecker([]string{"https://cat.dev/a/"})
	middleware := func(next http.Handler) http.Handler { return next }
	metrics := http.NotFoundHandler()

	cfg := &catalogAppConfig{}
	for _, opt := range []CatalogAppOptions{
		WithSyncManager(manager),
		WithSeenStore(seen),
		WithStatusPersistence(persistence),
		WithInstallChecker(checker),
		WithMiddlewares(middleware, middleware),
		WithMetricsHandler(metrics),
		WithMeterProvider(metricnoop.NewMeterProvider()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
	} {
		require.NoError(t, opt(cfg))
	}

	assert.Equal(t, manager, cfg.syncManager)
	assert.Equal(t, seen, cfg.seenStore)
	assert.Equal(t, persistence, cfg.statusPersistence)
	assert.Equal(t, checker, cfg.installChecker)
	assert.Len(t, cfg.middlewares, 2)
	assert.NotNil(t, cfg.metricsHandler)
	assert.NotNil(t, cfg.meterProvider)
	assert.NotNil(t, cfg.tracerProvider)
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name          string
		config        *catalogAppConfig
		wantAddr      string
		wantReadTO    time.Duration
		wantWriteTO   time.Duration
		wantIdleTO    time.Duration
		metricsStatus int
	}{
		{
			name: "with default middlewares",
			config: &catalogAppConfig{
				address:        ":8080",
				requestTimeout: 10 * time.Second,
				readTimeout:    10 * time.Second,
				writeTimeout:   15 * time.Second,
				idleTimeout:    60 * time.Second,
			},
			wantAddr:      ":8080",
			wantReadTO:    10 * time.Second,
			wantWriteTO:   15 * time.Second,
			wantIdleTO:    60 * time.Second,
			metricsStatus: http.StatusNotFound,
		},
		{
			name: "with custom middlewares and telemetry",
			config: &catalogAppConfig{
				address: "127.0.0.1:3000",
				middlewares: []func(http.Handler) http.Handler{
					func(next http.Handler) http.Handler { return next },
				},
				requestTimeout: 5 * time.Second,
				readTimeout:    5 * time.Second,
				writeTimeout:   10 * time.Second,
				idleTimeout:    30 * time.Second,
				meterProvider:  metricnoop.NewMeterProvider(),
				tracerProvider: tracenoop.NewTracerProvider(),
				metricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte("# metrics\n"))
				}),
			},
			wantAddr:      "127.0.0.1:3000",
			wantReadTO:    5 * time.Second,
			wantWriteTO:   10 * time.Second,
			wantIdleTO:    30 * time.Second,
			metricsStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			server, err := buildHTTPServer(ctx, tt.config, mocks.NewMockCatalogService(ctrl))

			require.NoError(t, err)
			require.NotNil(t, server)
			assert.Equal(t, tt.wantAddr, server.Addr)
			assert.Equal(t, tt.wantReadTO, server.ReadTimeout)
			assert.Equal(t, tt.wantWriteTO, server.WriteTimeout)
			assert.Equal(t, tt.wantIdleTO, server.IdleTimeout)
			require.NotNil(t, server.Handler)

			rr := httptest.NewRecorder()
			server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rr.Code)

			rr = httptest.NewRecorder()
			server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, tt.metricsStatus, rr.Code)
		})
	}
}

func TestNewCatalogApp(t *testing.T) {
	t.Parallel()

	disabled := false

	tests := []struct {
		name       string
		setup      func(*config.Config)
		opts       []CatalogAppOptions
		wantErr    string
		wantKinds  []catalog.Kind
		wantServer bool
		verify     func(*testing.T, *CatalogApp)
	}{
		{
			name:      "both catalogs by default",
			wantKinds: []catalog.Kind{catalog.KindExtension, catalog.KindTheme},
		},
		{
			name:       "with HTTP server",
			opts:       []CatalogAppOptions{WithAddress(":0")},
			wantKinds:  []catalog.Kind{catalog.KindExtension, catalog.KindTheme},
			wantServer: true,
		},
		{
			name: "disabled catalog is skipped",
			setup: func(cfg *config.Config) {
				cfg.Catalogs.Extensions.Disabled = true
			},
			wantKinds: []catalog.Kind{catalog.KindTheme},
		},
		{
			name:      "kinds restrict enabled catalogs",
			opts:      []CatalogAppOptions{WithKinds(catalog.KindExtension)},
			wantKinds: []catalog.Kind{catalog.KindExtension},
		},
		{
			name: "no catalogs enabled",
			setup: func(cfg *config.Config) {
				cfg.Catalogs.Extensions.Disabled = true
			},
			opts:    []CatalogAppOptions{WithKinds(catalog.KindExtension)},
			wantErr: "no catalogs enabled",
		},
		{
			name: "invalid sorting locale",
			setup: func(cfg *config.Config) {
				cfg.Sorting.Locale = "not a locale!"
			},
			wantErr: "invalid sorting locale",
		},
		{
			name: "tracking disabled for one catalog",
			setup: func(cfg *config.Config) {
				cfg.Catalogs.Themes.TrackChanges = &disabled
			},
			wantKinds: []catalog.Kind{catalog.KindExtension, catalog.KindTheme},
			verify: func(t *testing.T, app *CatalogApp) {
				t.Helper()
				ctx := context.Background()
				require.NoError(t, app.StartSessions(ctx))
				err := app.Service().AcknowledgeChanges(ctx, catalog.KindTheme)
				assert.ErrorIs(t, err, session.ErrTrackingDisabled)
				assert.NoError(t, app.Service().AcknowledgeChanges(ctx, catalog.KindExtension))
				require.NoError(t, app.Stop(time.Second))
			},
		},
		{
			name: "with telemetry providers",
			opts: []CatalogAppOptions{
				WithMeterProvider(metricnoop.NewMeterProvider()),
				WithTracerProvider(tracenoop.NewTracerProvider()),
			},
			wantKinds: []catalog.Kind{catalog.KindExtension, catalog.KindTheme},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockManager := syncmocks.NewMockManager(ctrl)
			mockManager.EXPECT().
				PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(fetchResult).
				AnyTimes()

			cfg := createTestAppConfig()
			if tt.setup != nil {
				tt.setup(cfg)
			}

			opts := append([]CatalogAppOptions{
				WithConfig(cfg),
				WithSyncManager(mockManager),
				WithSeenStore(storage.NewMemoryStore()),
				WithStatusPersistence(status.NewMemoryStatusPersistence()),
				WithBackgroundRefresh(false),
			}, tt.opts...)

			app, err := NewCatalogApp(context.Background(), opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			kinds := make([]catalog.Kind, 0, len(app.Sessions()))
			for _, s := range app.Sessions() {
				kinds = append(kinds, s.Kind())
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantServer, app.GetHTTPServer() != nil)

			if tt.verify != nil {
				tt.verify(t, app)
			}
		})
	}
}

func TestNewCatalogApp_DefaultComponents(t *testing.T) {
	t.Parallel()

	cfg := createTestAppConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "seen.json")

	app, err := NewCatalogApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)

	require.NotNil(t, app.components.SyncManager)
	_, isMock := app.components.SyncManager.(*syncmocks.MockManager)
	assert.False(t, isMock)
	assert.Implements(t, (*pkgsync.Manager)(nil), app.components.SyncManager)
	assert.Len(t, app.Sessions(), 2)
	assert.Nil(t, app.GetHTTPServer())
}
