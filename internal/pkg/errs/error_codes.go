/*
Package errs provides custom error types and application-level error code constants.

These error codes identify failures of the local view API, both in logs and in the JSON
responses returned to browser renderers.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Session Errors
const (
	// ErrMessageEmpty indicates that the submitted text was blank after trimming.
	ErrMessageEmpty = 2201

	// ErrMessageContentTooLong indicates that the submitted text exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrSessionClosed indicates that the connection to the chat server has ended.
	ErrSessionClosed = 2301
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000
)
