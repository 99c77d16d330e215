// Package catalog defines the entry types published by the remote extension
// and theme catalogs, together with the identity rules shared by every
// component that consumes them.
package catalog

import (
	"fmt"
	"strings"
)

// Kind identifies which catalog an entry belongs to
type Kind string

const (
	// KindExtension is the catalog of installable extensions
	KindExtension Kind = "extensions"

	// KindTheme is the catalog of installable themes
	KindTheme Kind = "themes"
)

// ParseKind converts a user supplied string into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "extensions", "extension", "plugins", "plugin":
		return KindExtension, nil
	case "themes", "theme":
		return KindTheme, nil
	default:
		return "", fmt.Errorf("unknown catalog kind: %q", s)
	}
}

// Status is the reported health of an extension
type Status string

const (
	// StatusWorking means the extension is known to work
	StatusWorking Status = "working"

	// StatusBroken means the extension is known to be broken
	StatusBroken Status = "broken"

	// StatusWarning means the extension works with caveats
	StatusWarning Status = "warning"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusWorking, StatusBroken, StatusWarning:
		return true
	}
	return false
}

// Meta holds the fields common to every catalog entry
type Meta struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	SourceURL   string   `json:"sourceUrl,omitempty"`
	// InstallURL is canonical once the entry has been built by a fetcher.
	InstallURL string `json:"installUrl"`
}

// Entry is the polymorphic contract shared by extensions and themes.
// Implementations are treated as immutable once published in a snapshot.
type Entry interface {
	// Kind returns the catalog this entry belongs to
	Kind() Kind

	// ID returns the canonical install URL, the entry's identity key
	ID() string

	// Info returns the common metadata
	Info() Meta

	// SearchFields returns the ordered list of fields considered by ranking
	SearchFields() []Field
}

// StatusReporter is implemented by entries that carry a health status
type StatusReporter interface {
	EntryStatus() Status
}

// FieldGroup classifies a searchable field for relevance boosting
type FieldGroup int

const (
	// GroupName is the entry name
	GroupName FieldGroup = iota
	// GroupDescription is the entry description
	GroupDescription
	// GroupAuthor covers author names
	GroupAuthor
	// GroupAux covers low-value fields such as tags and the install URL
	GroupAux
)

// Field is one searchable value of an entry. An empty Value never matches.
type Field struct {
	Group FieldGroup
	Value string
}

// Extension is an entry in the extension catalog
type Extension struct {
	Meta
	Status         Status `json:"status"`
	WarningMessage string `json:"warningMessage,omitempty"`
}

var _ Entry = (*Extension)(nil)

// Kind implements Entry
func (*Extension) Kind() Kind { return KindExtension }

// ID implements Entry
func (e *Extension) ID() string { return e.InstallURL }

// Info implements Entry
func (e *Extension) Info() Meta { return e.Meta }

// EntryStatus implements StatusReporter
func (e *Extension) EntryStatus() Status { return e.Status }

// SearchFields returns name, description, the first three authors and the
// install URL, in that order.
func (e *Extension) SearchFields() []Field {
	fields := make([]Field, 0, 6)
	fields = append(fields,
		Field{Group: GroupName, Value: e.Name},
		Field{Group: GroupDescription, Value: e.Description},
	)
	for i := 0; i < 3; i++ {
		var author string
		if i < len(e.Authors) {
			author = e.Authors[i]
		}
		fields = append(fields, Field{Group: GroupAuthor, Value: author})
	}
	return append(fields, Field{Group: GroupAux, Value: e.InstallURL})
}

// Theme is an entry in the theme catalog
type Theme struct {
	Meta
	Images []string `json:"images,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

var _ Entry = (*Theme)(nil)

// Kind implements Entry
func (*Theme) Kind() Kind { return KindTheme }

// ID implements Entry
func (t *Theme) ID() string { return t.InstallURL }

// Info implements Entry
func (t *Theme) Info() Meta { return t.Meta }

// SearchFields returns name, description, all authors joined, and all tags joined
func (t *Theme) SearchFields() []Field {
	return []Field{
		{Group: GroupName, Value: t.Name},
		{Group: GroupDescription, Value: t.Description},
		{Group: GroupAuthor, Value: strings.Join(t.Authors, " ")},
		{Group: GroupAux, Value: strings.Join(t.Tags, " ")},
	}
}

// Canonicalize normalizes an install URL so that it always ends with "/".
// Existing slashes are left alone, so the function is idempotent.
func Canonicalize(id string) string {
	if strings.HasSuffix(id, "/") {
		return id
	}
	return id + "/"
}

// IDs returns the identity keys of entries in snapshot order
func IDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID()
	}
	return ids
}

// IDSet builds a lookup set from a list of identifiers
func IDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
