package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
)

func newChangesCmd(root *rootOptions) *cobra.Command {
	var output string

	changesCmd := &cobra.Command{
		Use:   "changes [extensions|themes]",
		Short: "List entries added since the previous session",
		Long: `List the entries that were not in the catalog the last time it was browsed.
Listing them, like browse, ends the session, so the listed entries are no longer
new afterwards. The status and open commands leave the new flags in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			kind, err := parseKindArg(args)
			if err != nil {
				return err
			}

			return root.withSession(cmd.Context(), kind, true, func(ctx context.Context, a *catalogapp.CatalogApp) error {
				changes, err := a.Service().ListChanges(ctx, kind)
				if err != nil {
					return err
				}
				if output == outputJSON {
					return newRenderer(cmd.OutOrStdout()).json(changes)
				}
				if changes.Count == 0 {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "No new %s since the previous session\n", kind)
					return err
				}
				return newRenderer(cmd.OutOrStdout()).items(kind, changes.Items, output)
			})
		},
	}

	changesCmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table|json)")
	return changesCmd
}
