package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-browser/internal/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
)

// openURL is replaced in tests
var openURL = browser.OpenURL

func newOpenCmd(root *rootOptions) *cobra.Command {
	var printOnly bool

	openCmd := &cobra.Command{
		Use:   "open <extensions|themes> <install-url|name>",
		Short: "Open an entry's source page in the browser",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := catalog.ParseKind(args[0])
			if err != nil {
				return err
			}

			return root.withSession(cmd.Context(), kind, false, func(ctx context.Context, a *catalogapp.CatalogApp) error {
				item, err := findEntry(ctx, a.Service(), kind, args[1])
				if err != nil {
					return err
				}

				info := item.Entry.Info()
				if info.SourceURL == "" {
					return fmt.Errorf("%s has no source URL", info.Name)
				}
				if printOnly {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), info.SourceURL)
					return err
				}
				if err := openURL(info.SourceURL); err != nil {
					return fmt.Errorf("failed to open %s: %w", info.SourceURL, err)
				}
				return nil
			})
		},
	}

	openCmd.Flags().BoolVar(&printOnly, "print", false, "Print the source URL instead of opening it")
	return openCmd
}

// findEntry resolves ref as an install URL first and as an exact name second
func findEntry(ctx context.Context, svc service.CatalogService, kind catalog.Kind, ref string) (*session.Item, error) {
	item, err := svc.GetEntry(ctx, kind, ref)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, service.ErrEntryNotFound) {
		return nil, err
	}

	items, err := svc.ListEntries(ctx, kind)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if strings.EqualFold(items[i].Entry.Info().Name, ref) {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", service.ErrEntryNotFound, ref)
}
