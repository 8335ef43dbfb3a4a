package errs

import (
	"fmt"
	"net/http"
	"strings"

	"cafechat/internal/pkg/logx"
)

// CustomError is returned by the view API helpers. It pairs a business code with the
// user-facing message and the HTTP status to respond with.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds the error registered for code. Details fill printf placeholders in the
// message template; for ErrUnknown the first detail may be the underlying error, which is
// logged instead. Unregistered codes yield ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusInternalServerError
	}

	if len(details) == 0 {
		return &customErr
	}

	switch {
	case customErr.Code == ErrUnknown:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	case strings.Contains(customErr.Message, "%"):
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	default:
		logx.Warn("Error details ignored, message has no placeholders", "code", customErr.Code)
	}

	return &customErr
}
