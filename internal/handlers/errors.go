package handlers

import (
	"net/http"

	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/resp"
)

// respondWithError logs foreign errors with the request's logger and writes the
// coded envelope. Coded errors are expected outcomes and are not logged.
func respondWithError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	if errs.CodeOf(err) == errs.CodeUnknown {
		if logMsg == "" {
			logMsg = "Request failed"
		}
		logx.FromContext(r.Context()).Error().Err(err).Msg(logMsg)
	}
	resp.Error(w, r, err)
}
