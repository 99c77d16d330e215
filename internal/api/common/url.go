// Package common holds the request parsing and response writing shared by
// the API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// GetKindParam resolves the {kind} route parameter, accepting the same
// aliases as the CLI ("plugins", "theme", ...)
func GetKindParam(r *http.Request) (catalog.Kind, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "kind"))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in kind")
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("kind cannot be empty")
	}
	return catalog.ParseKind(raw)
}

// GetRequiredQuery returns the named query parameter, which must be present
// and non-blank
func GetRequiredQuery(r *http.Request, name string) (string, error) {
	value := r.URL.Query().Get(name)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return value, nil
}

// GetLimitQuery parses the optional "limit" query parameter. Zero means unset.
func GetLimitQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit: %q", raw)
	}
	return limit, nil
}
