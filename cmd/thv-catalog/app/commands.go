// Package app provides the command line interface of the ToolHive catalog browser.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/logging"
	"github.com/stacklok/toolhive-catalog-browser/internal/versions"
)

const (
	// sessionStopTimeout bounds the seen-set commit at the end of a command
	sessionStopTimeout = 10 * time.Second

	outputTable = "table"
	outputJSON  = "json"
)

// rootOptions carries state shared by every subcommand
type rootOptions struct {
	v *viper.Viper
}

// NewRootCmd creates a new root command for the catalog browser.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	opts.v.SetEnvPrefix(config.EnvPrefix)
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	opts.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "thv-catalog",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Browse extension and theme catalogs",
		Long: `thv-catalog fetches the published extension and theme catalogs, ranks them
against a search query or sorts them, and flags entries that are new since the
previous session.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.v.GetBool("debug") {
				logging.Setup(logging.WithLevel(slog.LevelDebug))
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	for _, name := range []string{"debug", "config"} {
		if err := opts.v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	// Add subcommands
	rootCmd.AddCommand(newBrowseCmd(opts))
	rootCmd.AddCommand(newChangesCmd(opts))
	rootCmd.AddCommand(newOpenCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the file named by --config or THV_CATALOG_CONFIG, or
// returns the defaults when neither is set
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.v.GetString("config")
	if path == "" {
		return config.LoadConfig()
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("Loaded configuration", "path", path)
	return cfg, nil
}

// withSession runs fn inside a browse session over one catalog. The session
// ends when fn returns. With commit set, ending it commits the fetched
// snapshot to the seen set.
func (o *rootOptions) withSession(
	ctx context.Context,
	kind catalog.Kind,
	commit bool,
	fn func(ctx context.Context, a *catalogapp.CatalogApp) error,
) (retErr error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	a, err := catalogapp.NewCatalogApp(ctx,
		catalogapp.WithConfig(cfg),
		catalogapp.WithKinds(kind),
		catalogapp.WithBackgroundRefresh(false),
		catalogapp.WithCommitOnStop(commit),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog browser: %w", err)
	}
	defer func() {
		if err := a.Stop(sessionStopTimeout); err != nil && retErr == nil {
			retErr = err
		}
	}()

	if err := a.StartSessions(ctx); err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	return fn(ctx, a)
}

// parseKindArg resolves the optional catalog argument, defaulting to extensions
func parseKindArg(args []string) (catalog.Kind, error) {
	if len(args) == 0 {
		return catalog.KindExtension, nil
	}
	return catalog.ParseKind(args[0])
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			if format == outputJSON {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	versionCmd.Flags().String("format", "", "Output format (json)")
	return versionCmd
}
