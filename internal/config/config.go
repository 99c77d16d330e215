// Package config provides configuration loading and management for the catalog browser.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/git"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

const (
	// DefaultExtensionsURL is the published extension catalog
	DefaultExtensionsURL = "https://plugins-list.pages.dev/plugins-data.json"

	// DefaultThemesURL is the published theme catalog
	DefaultThemesURL = "https://plugins-list.pages.dev/themes-data.json"

	// DefaultRefreshInterval is how often a running session re-fetches its catalog
	DefaultRefreshInterval = time.Hour

	// DefaultHTTPTimeout bounds a single catalog request
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultHTTPRetries is the number of retries after a transient fetch failure
	DefaultHTTPRetries = 2

	// DefaultLocale is the collation locale used for name ordering
	DefaultLocale = "en"

	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "THV_CATALOG"

	// appDirName is the directory created under the XDG state home
	appDirName = "thv-catalog"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Catalogs CatalogsConfig `yaml:"catalogs"`
	Refresh  *RefreshConfig `yaml:"refresh,omitempty"`
	Storage  *StorageConfig `yaml:"storage,omitempty"`
	HTTP     *HTTPConfig    `yaml:"http,omitempty"`
	Ranking  *RankingConfig `yaml:"ranking,omitempty"`
	Sorting  *SortingConfig `yaml:"sorting,omitempty"`

	// Installed lists install URLs the host reports as installed
	Installed []string `yaml:"installed,omitempty"`

	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// CatalogsConfig holds the per-kind catalog settings
type CatalogsConfig struct {
	Extensions *CatalogConfig `yaml:"extensions,omitempty"`
	Themes     *CatalogConfig `yaml:"themes,omitempty"`
}

// CatalogConfig defines a single catalog feed
type CatalogConfig struct {
	// URL is an http(s), file:// or git+ location of the catalog JSON array
	URL string `yaml:"url"`

	// Disabled skips this catalog entirely
	Disabled bool `yaml:"disabled,omitempty"`

	// TrackChanges enables the persisted seen set and "new" badges.
	// Defaults to true when unset.
	TrackChanges *bool `yaml:"trackChanges,omitempty"`

	// Filter restricts which entries become visible
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// RefreshConfig defines the periodic refresh schedule
type RefreshConfig struct {
	Interval string `yaml:"interval,omitempty"`
	Jitter   string `yaml:"jitter,omitempty"`
}

// StorageConfig defines where the seen set and refresh status are kept
type StorageConfig struct {
	// Path is the seen-set document; refresh status files live next to it
	Path string `yaml:"path,omitempty"`
}

// HTTPConfig tunes catalog retrieval
type HTTPConfig struct {
	Timeout string `yaml:"timeout,omitempty"`
	Retries *uint  `yaml:"retries,omitempty"`
}

// RankingConfig tunes the search engine
type RankingConfig struct {
	// Threshold drops matches whose relevance falls below it; 0 disables
	Threshold float64 `yaml:"threshold,omitempty"`
}

// SortingConfig tunes the sort engine
type SortingConfig struct {
	// Locale is a BCP-47 tag used for name collation
	Locale string `yaml:"locale,omitempty"`
}

// FilterConfig defines filtering rules for catalog entries
type FilterConfig struct {
	Names    *NameFilterConfig `yaml:"names,omitempty"`
	Tags     *TagFilterConfig  `yaml:"tags,omitempty"`
	Statuses *TagFilterConfig  `yaml:"statuses,omitempty"`
}

// NameFilterConfig defines name-based filtering with glob patterns
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// TagFilterConfig defines exact-match filtering
type TagFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads and parses configuration from a YAML file. Without a
// path option the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Catalogs.Extensions == nil {
		c.Catalogs.Extensions = &CatalogConfig{}
	}
	if c.Catalogs.Extensions.URL == "" {
		c.Catalogs.Extensions.URL = DefaultExtensionsURL
	}
	if c.Catalogs.Themes == nil {
		c.Catalogs.Themes = &CatalogConfig{}
	}
	if c.Catalogs.Themes.URL == "" {
		c.Catalogs.Themes.URL = DefaultThemesURL
	}
	if c.Refresh == nil {
		c.Refresh = &RefreshConfig{}
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(xdg.StateHome, appDirName, "seen.json")
	}
	if c.HTTP == nil {
		c.HTTP = &HTTPConfig{}
	}
	if c.Ranking == nil {
		c.Ranking = &RankingConfig{}
	}
	if c.Sorting == nil {
		c.Sorting = &SortingConfig{}
	}
	if c.Sorting.Locale == "" {
		c.Sorting.Locale = DefaultLocale
	}
}

// Catalog returns the settings for kind, or nil when kind is unknown
func (c *Config) Catalog(kind catalog.Kind) *CatalogConfig {
	switch kind {
	case catalog.KindExtension:
		return c.Catalogs.Extensions
	case catalog.KindTheme:
		return c.Catalogs.Themes
	default:
		return nil
	}
}

// EnabledKinds returns the catalog kinds that are not disabled, in a fixed order
func (c *Config) EnabledKinds() []catalog.Kind {
	kinds := make([]catalog.Kind, 0, 2)
	for _, kind := range []catalog.Kind{catalog.KindExtension, catalog.KindTheme} {
		if cc := c.Catalog(kind); cc != nil && !cc.Disabled {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// IsTrackingChanges reports whether the seen set is maintained for this catalog
func (c *CatalogConfig) IsTrackingChanges() bool {
	return c.TrackChanges == nil || *c.TrackChanges
}

// GetInterval returns the refresh interval, falling back to the default
func (r *RefreshConfig) GetInterval() time.Duration {
	return parseDurationOr(r.Interval, DefaultRefreshInterval)
}

// GetJitter returns the maximum refresh jitter
func (r *RefreshConfig) GetJitter() time.Duration {
	return parseDurationOr(r.Jitter, 0)
}

// GetTimeout returns the per-request timeout
func (h *HTTPConfig) GetTimeout() time.Duration {
	return parseDurationOr(h.Timeout, DefaultHTTPTimeout)
}

// GetRetries returns the number of retries after a transient failure
func (h *HTTPConfig) GetRetries() uint {
	if h.Retries == nil {
		return DefaultHTTPRetries
	}
	return *h.Retries
}

// StatusDir returns the directory holding per-catalog refresh status files
func (s *StorageConfig) StatusDir() string {
	return filepath.Join(filepath.Dir(s.Path), "status")
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.EnabledKinds()) == 0 {
		return fmt.Errorf("at least one catalog must be enabled")
	}

	for _, kind := range []catalog.Kind{catalog.KindExtension, catalog.KindTheme} {
		if err := validateCatalogConfig(c.Catalog(kind), kind); err != nil {
			return err
		}
	}

	if err := validateDuration(c.Refresh.Interval, "refresh.interval", true); err != nil {
		return err
	}
	if err := validateDuration(c.Refresh.Jitter, "refresh.jitter", false); err != nil {
		return err
	}
	if err := validateDuration(c.HTTP.Timeout, "http.timeout", true); err != nil {
		return err
	}

	if c.Ranking.Threshold < 0 {
		return fmt.Errorf("ranking.threshold must not be negative, got %v", c.Ranking.Threshold)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateCatalogConfig validates a single catalog configuration
func validateCatalogConfig(cc *CatalogConfig, kind catalog.Kind) error {
	if cc == nil || cc.Disabled {
		return nil
	}
	prefix := fmt.Sprintf("catalogs.%s", kind)

	u, err := url.Parse(cc.URL)
	if err != nil {
		return fmt.Errorf("%s: url is invalid: %w", prefix, errors.Unwrap(err))
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%s: url must include a host", prefix)
		}
	case "file":
		if u.Path == "" {
			return fmt.Errorf("%s: file url must include a path", prefix)
		}
	case "git+http", "git+https", "git+file":
		if _, err := git.ParseLocation(cc.URL); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	default:
		return fmt.Errorf("%s: url scheme must be http, https, file or git+https, got %q", prefix, u.Scheme)
	}

	return validateFilterConfig(cc.Filter, kind, prefix)
}

// validateFilterConfig rejects filters that cannot apply to the catalog kind
func validateFilterConfig(filter *FilterConfig, kind catalog.Kind, prefix string) error {
	if filter == nil {
		return nil
	}
	if filter.Tags != nil && kind != catalog.KindTheme {
		return fmt.Errorf("%s: filter.tags is only supported for themes", prefix)
	}
	if filter.Statuses != nil {
		if kind != catalog.KindExtension {
			return fmt.Errorf("%s: filter.statuses is only supported for extensions", prefix)
		}
		for _, s := range append(append([]string{}, filter.Statuses.Include...), filter.Statuses.Exclude...) {
			if !catalog.Status(s).Valid() {
				return fmt.Errorf("%s: filter.statuses contains unknown status %q", prefix, s)
			}
		}
	}
	return nil
}

func validateDuration(value, field string, positive bool) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", field, err)
	}
	if d < 0 || (positive && d == 0) {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}
