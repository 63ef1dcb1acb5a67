/*
Package errs defines the application error type and the business error codes
shared by HTTP responses and WebSocket error frames.

Codes are short strings (for example "auth_failed", "forbidden") so clients
can branch on them directly; each code maps to a user-facing message and an
HTTP status for the REST surface.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"shambachat/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
// It carries a string business code, a client-friendly message and the HTTP
// status used when the error is reported over REST.
type CustomError struct {
	// Code is the business error code (see codes.go).
	Code string

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code for REST responses.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// New constructs a *CustomError from a predefined code. Optional details are
// applied printf-style when the message template contains placeholders.
// Unknown codes fall back to CodeUnknown.
func New(code string, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %q requested", code),
			"Unknown error code requested",
		)

		unknownErr := errorMap[CodeUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no placeholders. Details ignored.",
				"code", code)
		}
	}

	return &customErr
}
