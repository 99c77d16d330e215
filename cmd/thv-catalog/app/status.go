package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var output string

	statusCmd := &cobra.Command{
		Use:   "status [extensions|themes]",
		Short: "Refresh catalogs and report their state",
		Long: `Fetch every enabled catalog, or only the one given, and report the refresh
outcome, the entry counts and how many entries are new. The new entries stay
new until they are browsed or listed with changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			var kinds []catalog.Kind
			if len(args) == 1 {
				kind, err := catalog.ParseKind(args[0])
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}

			return root.runStatus(cmd, kinds, output)
		},
	}

	statusCmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table|json)")
	return statusCmd
}

// runStatus reports every selected catalog, including those whose fetch failed
func (o *rootOptions) runStatus(cmd *cobra.Command, kinds []catalog.Kind, output string) (retErr error) {
	ctx := cmd.Context()

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	a, err := catalogapp.NewCatalogApp(ctx,
		catalogapp.WithConfig(cfg),
		catalogapp.WithKinds(kinds...),
		catalogapp.WithBackgroundRefresh(false),
		catalogapp.WithCommitOnStop(false),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog browser: %w", err)
	}
	defer func() {
		retErr = errors.Join(retErr, a.Stop(sessionStopTimeout))
	}()

	// Fetch failures are part of the report
	fetchErr := a.StartSessions(ctx)

	reports := make([]*session.StatusReport, 0, len(a.Sessions()))
	for _, s := range a.Sessions() {
		report, err := a.Service().GetStatus(ctx, s.Kind())
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	if err := newRenderer(cmd.OutOrStdout()).status(reports, output); err != nil {
		return err
	}
	if fetchErr != nil {
		return fmt.Errorf("failed to fetch catalog: %w", fetchErr)
	}
	return nil
}
