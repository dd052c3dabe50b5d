/*
Package resp writes PyQuest's JSON envelopes.

Success bodies look like {"ok":true,"data":...}; failures carry the error code and the
kid-friendly title, message and action from the errs table.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"pyquest/internal/errs"
	"pyquest/internal/logx"
)

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    errs.Code `json:"code"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Action  string    `json:"action,omitempty"`
}

// Envelope is the JSON structure every API response uses.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// JSON sets the headers and writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", status)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Success writes a 200 envelope around data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// Created writes a 201 envelope around data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{OK: true, Data: data})
}

// Error converts err into a coded envelope. Foreign errors become UNKNOWN and are logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ce := errs.From(err)
	if ce == nil {
		ce = errs.NewError(errs.CodeUnknown)
	}
	if ce.Status >= http.StatusInternalServerError {
		logx.Warn("Request failed", "path", r.URL.Path, "code", string(ce.Code))
	}

	JSON(w, ce.Status, Envelope{
		OK: false,
		Error: &ErrorBody{
			Code:    ce.Code,
			Title:   ce.Title,
			Message: ce.Message,
			Action:  ce.Action,
		},
	})
}
