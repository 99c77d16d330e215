package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/stacklok/toolhive-catalog-browser/internal/api"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/httpclient"
	"github.com/stacklok/toolhive-catalog-browser/internal/ranking"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
	"github.com/stacklok/toolhive-catalog-browser/internal/sources"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	"github.com/stacklok/toolhive-catalog-browser/internal/storage"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// tracerName identifies spans created by catalog components
	tracerName = "github.com/stacklok/toolhive-catalog-browser"
)

// CatalogAppOptions is a function that configures the catalog app builder
type CatalogAppOptions func(*catalogAppConfig) error

// catalogAppConfig collects the builder inputs. It supports dependency
// injection for testing while providing sensible defaults for production.
type catalogAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	syncManager       pkgsync.Manager
	seenStore         storage.Store
	statusPersistence status.StatusPersistence
	installChecker    catalog.InstallChecker

	kinds             []catalog.Kind
	backgroundRefresh bool
	commitOnStop      bool

	// HTTP server options. The server is only built when address is set.
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	metricsHandler http.Handler

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func baseConfig(opts ...CatalogAppOptions) (*catalogAppConfig, error) {
	cfg := &catalogAppConfig{
		backgroundRefresh: true,
		commitOnStop:      true,
		requestTimeout:    defaultRequestTimeout,
		readTimeout:       defaultReadTimeout,
		writeTimeout:      defaultWriteTimeout,
		idleTimeout:       defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return cfg, nil
}

// NewCatalogApp builds the application: one browse session per enabled
// catalog, the service over them and, when an address is set, the HTTP server.
func NewCatalogApp(
	ctx context.Context,
	opts ...CatalogAppOptions,
) (*CatalogApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if err := buildSyncManager(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to build sync manager: %w", err)
	}

	sessions, err := buildSessions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sessions: %w", err)
	}

	catalogService := service.NewCatalogService(sessions...)

	var httpServer *http.Server
	if cfg.address != "" {
		httpServer, err = buildHTTPServer(ctx, cfg, catalogService)
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP server: %w", err)
		}
	}

	appCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	return &CatalogApp{
		config: cfg.config,
		components: &AppComponents{
			SyncManager:    cfg.syncManager,
			Sessions:       sessions,
			CatalogService: catalogService,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress enables the HTTP server on the given address
func WithAddress(addr string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithKinds restricts the app to the given catalogs. Disabled catalogs are
// skipped regardless.
func WithKinds(kinds ...catalog.Kind) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.kinds = kinds
		return nil
	}
}

// WithBackgroundRefresh toggles the periodic refresh of every session
func WithBackgroundRefresh(enabled bool) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.backgroundRefresh = enabled
		return nil
	}
}

// WithCommitOnStop controls whether stopping the app commits each catalog to
// the seen set. Commands that never display the changes disable it.
func WithCommitOnStop(enabled bool) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.commitOnStop = enabled
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithSeenStore allows injecting the seen-set storage (for testing)
func WithSeenStore(store storage.Store) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.seenStore = store
		return nil
	}
}

// WithStatusPersistence allows injecting the refresh status persistence (for testing)
func WithStatusPersistence(sp status.StatusPersistence) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.statusPersistence = sp
		return nil
	}
}

// WithInstallChecker overrides the installed list from the configuration
func WithInstallChecker(checker catalog.InstallChecker) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.installChecker = checker
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and catalog metrics
func WithMeterProvider(mp metric.MeterProvider) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for fetch spans
func WithTracerProvider(tp trace.TracerProvider) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler mounts a scrape handler at /metrics
func WithMetricsHandler(h http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSyncManager builds the fetcher chain unless a manager was injected
func buildSyncManager(_ context.Context, b *catalogAppConfig) error {
	if b.syncManager != nil {
		return nil
	}

	slog.Info("Initializing sync components")

	httpCfg := b.config.HTTP
	if httpCfg == nil {
		httpCfg = &config.HTTPConfig{}
	}
	client := httpclient.NewDefaultClient(httpCfg.GetTimeout(), httpclient.WithRetries(httpCfg.GetRetries()))

	var fetcherOpts []sources.FetcherOption
	if b.tracerProvider != nil {
		fetcherOpts = append(fetcherOpts, sources.WithTracer(b.tracerProvider.Tracer(tracerName)))
	}
	fetcher := sources.NewFetcher(sources.NewSourceHandlerFactory(client), fetcherOpts...)

	b.syncManager = pkgsync.NewDefaultSyncManager(fetcher)
	slog.Info("Sync components initialized successfully",
		"timeout", httpCfg.GetTimeout(),
		"retries", httpCfg.GetRetries())
	return nil
}

// buildSessions creates one session per enabled catalog
func buildSessions(ctx context.Context, b *catalogAppConfig) ([]*session.Session, error) {
	cfg := b.config

	kinds := cfg.EnabledKinds()
	if len(b.kinds) > 0 {
		kinds = intersectKinds(kinds, b.kinds)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no catalogs enabled")
	}

	storageCfg := cfg.Storage
	if storageCfg == nil {
		storageCfg = &config.StorageConfig{}
	}
	if b.seenStore == nil {
		b.seenStore = storage.NewFileStore(storageCfg.Path)
	}
	if b.statusPersistence == nil {
		b.statusPersistence = status.NewFileStatusPersistence(storageCfg.StatusDir())
	}
	if b.installChecker == nil {
		b.installChecker = catalog.NewStaticInstallChecker(cfg.Installed)
	}

	sharedOpts, err := buildSharedSessionOptions(b)
	if err != nil {
		return nil, err
	}

	seen := pkgsync.NewSeenStore(b.seenStore)
	sessions := make([]*session.Session, 0, len(kinds))
	for _, kind := range kinds {
		catalogCfg := cfg.Catalog(kind)
		opts := append([]session.Option{}, sharedOpts...)
		if catalogCfg.IsTrackingChanges() {
			opts = append(opts, session.WithTracker(pkgsync.NewTracker(kind, seen)))
		}
		sessions = append(sessions, session.New(kind, catalogCfg, b.syncManager, opts...))

		slog.InfoContext(ctx, "Catalog session configured",
			"kind", kind,
			"url", catalog.RedactURL(catalogCfg.URL),
			"track_changes", catalogCfg.IsTrackingChanges())
	}
	return sessions, nil
}

// buildSharedSessionOptions derives the options common to every session
func buildSharedSessionOptions(b *catalogAppConfig) ([]session.Option, error) {
	cfg := b.config

	refreshCfg := cfg.Refresh
	if refreshCfg == nil {
		refreshCfg = &config.RefreshConfig{}
	}

	var threshold float64
	if cfg.Ranking != nil {
		threshold = cfg.Ranking.Threshold
	}

	locale := config.DefaultLocale
	if cfg.Sorting != nil && cfg.Sorting.Locale != "" {
		locale = cfg.Sorting.Locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid sorting locale %q: %w", locale, err)
	}

	opts := []session.Option{
		session.WithStatusPersistence(b.statusPersistence),
		session.WithRefreshSchedule(refreshCfg.GetInterval(), refreshCfg.GetJitter()),
		session.WithBackgroundRefresh(b.backgroundRefresh),
		session.WithCommitOnStop(b.commitOnStop),
		session.WithRanker(ranking.NewEngine(ranking.WithThreshold(threshold))),
		session.WithSorter(sorting.NewSorter(sorting.WithLocale(tag))),
		session.WithInstallChecker(b.installChecker),
	}
	if b.tracerProvider != nil {
		opts = append(opts, session.WithTracer(b.tracerProvider.Tracer(tracerName)))
	}

	if b.meterProvider != nil {
		refreshMetrics, err := telemetry.NewRefreshMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create refresh metrics: %w", err)
		}
		catalogMetrics, err := telemetry.NewCatalogMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
		}
		viewMetrics, err := telemetry.NewViewMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create view metrics: %w", err)
		}
		opts = append(opts,
			session.WithRefreshMetrics(refreshMetrics),
			session.WithCatalogMetrics(catalogMetrics),
			session.WithViewMetrics(viewMetrics),
		)
		slog.Info("Catalog metrics enabled")
	}

	return opts, nil
}

func intersectKinds(enabled, wanted []catalog.Kind) []catalog.Kind {
	out := make([]catalog.Kind, 0, len(wanted))
	for _, kind := range enabled {
		for _, w := range wanted {
			if kind == w {
				out = append(out, kind)
				break
			}
		}
	}
	return out
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *catalogAppConfig,
	svc service.CatalogService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	middlewares := b.middlewares
	if middlewares == nil {
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	if b.tracerProvider != nil {
		middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, middlewares...)
	}

	// Metrics middleware goes first to capture all requests
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
