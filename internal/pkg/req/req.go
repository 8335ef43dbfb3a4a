/*
Package req binds HTTP request bodies for the local view API.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cafechat/internal/pkg/errs"
)

// MaxJSONBodySize bounds a JSON request body.
const MaxJSONBodySize int64 = 64 << 10

// BindJSON decodes exactly one JSON object from the request body into dst. Unknown
// fields, trailing data, a non-JSON content type and oversized bodies are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
