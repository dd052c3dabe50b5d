/*
Package req binds JSON request bodies.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"pyquest/internal/errs"
)

// MaxBodyBytes caps every JSON body. Lesson code submissions are the largest payload.
const MaxBodyBytes int64 = 64 << 10

// BindJSON decodes the request body into dst, rejecting non-JSON content types,
// unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.CodeUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.CodeInvalidJSON)
	}
	if decoder.More() {
		return errs.NewError(errs.CodeInvalidJSON)
	}

	return nil
}
