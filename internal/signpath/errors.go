package signpath

import "fmt"

// APIError carries the HTTP status code and verbatim response body of a
// failed API call so operators see exactly what the service said.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SignPath API error (HTTP %d): %s", e.StatusCode, e.Body)
}
