package charger

import (
	"errors"
	"fmt"
)

// APIError reports a failed simulator call: the connection broke, the
// response was malformed, or the simulator answered with an error
// record. API errors are transient from the controller's point of view
// and count against its retry budget.
type APIError struct {
	Endpoint string // path of the failed call, e.g. "/info"
	Status   int    // HTTP status, 0 when the request never completed
	Message  string // simulator error record or decode failure
	Err      error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("simulator %s: %v", e.Endpoint, e.Err)
	case e.Message != "":
		return fmt.Sprintf("simulator %s: %s", e.Endpoint, e.Message)
	default:
		return fmt.Sprintf("simulator %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
