/*
Package errs defines the coded errors returned across PyQuest's public operations.

Every code maps to a CustomError carrying a kid-friendly title, message and suggested
action, plus the HTTP status the API answers with. Business operations never panic;
they return one of these values and callers switch on the code.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pyquest/internal/logx"
)

// Code is a machine-readable error identifier shared with the frontend.
type Code string

// CustomError is the error type returned by ledger, reset and API operations.
type CustomError struct {
	Code    Code
	Title   string
	Message string
	Action  string
	Status  int
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any CustomError with the same code, so sentinels work with errors.Is.
func (e *CustomError) Is(target error) bool {
	var other *CustomError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewError builds the CustomError registered for code. Details fill printf
// placeholders in the message template; an unknown code yields UNKNOWN.
func NewError(code Code, details ...any) *CustomError {
	tmpl, ok := errorMap[code]
	if !ok {
		logx.Error(fmt.Errorf("unknown error code %q", code), "error code missing from errorMap")
		tmpl = errorMap[CodeUnknown]
	}

	out := tmpl
	if out.Status == 0 {
		out.Status = http.StatusBadRequest
	}

	if len(details) > 0 {
		if strings.Contains(out.Message, "%") {
			out.Message = fmt.Sprintf(out.Message, details...)
		} else if cause, ok := details[0].(error); ok && code == CodeUnknown {
			logx.Error(cause, "unknown error wrapped")
		}
	}

	return &out
}

// CodeOf returns the code carried by err, CodeUnknown for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// From converts any error into a CustomError, logging and hiding foreign errors.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(CodeUnknown, err)
}
