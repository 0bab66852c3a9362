package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the error body returned by the Notion API for non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

// retryable reports whether the request may succeed when repeated.
func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsNotFound reports whether err is an object_not_found response. Notion also
// answers 400 validation_error for ids of the wrong object type.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found" ||
		(apiErr.Status == http.StatusBadRequest && apiErr.Code == "validation_error")
}
