package service

import (
	"fmt"
	"strings"

	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
)

// Option is a function that sets an option for service operations
type Option func(T any) error

type queryOption interface {
	setQuery(query string) error
}

type modeOption interface {
	setMode(mode sorting.Mode) error
}

type limitOption interface {
	setLimit(limit int) error
}

type newOnlyOption interface {
	setNewOnly(newOnly bool) error
}

// ListEntriesOptions is the options for the ListEntries operation
type ListEntriesOptions struct {
	Query   string
	Mode    sorting.Mode
	Limit   int
	NewOnly bool
}

func (o *ListEntriesOptions) setQuery(query string) error {
	o.Query = query
	return nil
}

func (o *ListEntriesOptions) setMode(mode sorting.Mode) error {
	o.Mode = mode
	return nil
}

func (o *ListEntriesOptions) setLimit(limit int) error {
	o.Limit = limit
	return nil
}

func (o *ListEntriesOptions) setNewOnly(newOnly bool) error {
	o.NewOnly = newOnly
	return nil
}

// WithQuery sets the search query for the ListEntries operation. A
// non-empty query ranks the entries and takes precedence over the sort mode.
func WithQuery(query string) Option {
	return func(o any) error {
		query = strings.TrimSpace(query)
		if query == "" {
			return fmt.Errorf("invalid query: %q", query)
		}

		switch o := o.(type) {
		case queryOption:
			return o.setQuery(query)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithSortMode sets the sort mode for the ListEntries operation
func WithSortMode(mode string) Option {
	return func(o any) error {
		parsed, err := sorting.ParseMode(mode)
		if err != nil {
			return err
		}

		switch o := o.(type) {
		case modeOption:
			return o.setMode(parsed)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithLimit caps the number of entries returned by the ListEntries operation
func WithLimit(limit int) Option {
	return func(o any) error {
		if limit <= 0 {
			return fmt.Errorf("invalid limit: %d", limit)
		}

		switch o := o.(type) {
		case limitOption:
			return o.setLimit(limit)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithNewOnly restricts the ListEntries operation to entries flagged as new
func WithNewOnly() Option {
	return func(o any) error {
		switch o := o.(type) {
		case newOnlyOption:
			return o.setNewOnly(true)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}
