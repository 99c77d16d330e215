package httpclient

import (
	"fmt"
	"net/http"
)

// HTTPError is a non-200 response from a catalog feed
type HTTPError struct {
	StatusCode int
	URL        string
	// Status is the response status line, such as "503 Service Unavailable"
	Status string
}

// NewHTTPError builds the error for a response with the given status
func NewHTTPError(statusCode int, url, status string) error {
	return &HTTPError{StatusCode: statusCode, URL: url, Status: status}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Status)
}

// Retryable reports whether the feed may answer differently on a later
// attempt: server errors and rate limiting
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
