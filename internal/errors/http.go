package errors

import (
	"fmt"
	"net/http"
)

// FromUpstreamStatus classifies an upstream HTTP status into the error
// taxonomy. Connectivity failures (no response at all) are not covered
// here; the transport constructs those directly.
func FromUpstreamStatus(status int) *AppError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AppError{
			Code:    ErrCodeCredentialRejected,
			Message: "credential rejected by upstream",
		}
	case status == http.StatusBadRequest:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "upstream rejected the request payload",
		}
	case status >= http.StatusInternalServerError:
		return &AppError{
			Code:    ErrCodeServer,
			Message: fmt.Sprintf("upstream server error (status %d)", status),
		}
	case status == http.StatusNotFound:
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "upstream resource not found",
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("unexpected upstream status %d", status),
		}
	}
}
