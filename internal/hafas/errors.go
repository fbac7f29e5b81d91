package hafas

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned when the upstream provider answers with a non-2xx
// status. It carries the status code so callers can classify the failure.
type HTTPError struct {
	StatusCode int
	Endpoint   string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s request failed: %s returned status %d", e.Endpoint, e.URL, e.StatusCode)
}

// IsTransient reports whether err represents a failure worth retrying:
// rate limiting or an upstream server error. Client errors (4xx other than
// 429) are permanent and must not be retried.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return httpErr.StatusCode >= 500 && httpErr.StatusCode <= 599
}
