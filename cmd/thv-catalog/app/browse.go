package app

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
)

type browseOptions struct {
	query   string
	sort    string
	limit   int
	newOnly bool
	output  string
}

func newBrowseCmd(root *rootOptions) *cobra.Command {
	opts := &browseOptions{}

	browseCmd := &cobra.Command{
		Use:   "browse [extensions|themes]",
		Short: "List a catalog, ranked by a query or sorted",
		Long: `List the entries of a catalog. With --query the entries are ranked by
relevance; otherwise they are ordered by --sort. Entries added since the
previous session are flagged NEW.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			kind, err := parseKindArg(args)
			if err != nil {
				return err
			}

			var listOpts []service.Option
			if strings.TrimSpace(opts.query) != "" {
				listOpts = append(listOpts, service.WithQuery(opts.query))
			}
			if opts.sort != "" {
				listOpts = append(listOpts, service.WithSortMode(opts.sort))
			}
			if opts.limit > 0 {
				listOpts = append(listOpts, service.WithLimit(opts.limit))
			}
			if opts.newOnly {
				listOpts = append(listOpts, service.WithNewOnly())
			}

			return root.withSession(cmd.Context(), kind, true, func(ctx context.Context, a *catalogapp.CatalogApp) error {
				items, err := a.Service().ListEntries(ctx, kind, listOpts...)
				if err != nil {
					return err
				}
				return newRenderer(cmd.OutOrStdout()).items(kind, items, opts.output)
			})
		},
	}

	browseCmd.Flags().StringVarP(&opts.query, "query", "q", "", "Rank entries against this search query")
	browseCmd.Flags().StringVarP(&opts.sort, "sort", "s", "",
		"Sort mode: date-newest, date-oldest, name-az, name-za, working-first, broken-first")
	browseCmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Show at most this many entries")
	browseCmd.Flags().BoolVar(&opts.newOnly, "new", false, "Only show entries added since the previous session")
	browseCmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "Output format (table|json)")

	return browseCmd
}
