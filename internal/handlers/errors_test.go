package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/resp"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) resp.Envelope {
	t.Helper()
	var env resp.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRespondWithErrorWritesCodedEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

	respondWithError(rec, r, "", errs.NewError(errs.CodeNotLoggedIn))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, errs.CodeNotLoggedIn, env.Error.Code)
	assert.NotEmpty(t, env.Error.Title)
	assert.NotEmpty(t, env.Error.Action)
}

func TestRespondWithErrorLogsAndHidesForeignErrors(t *testing.T) {
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	t.Cleanup(func() { logx.InitGlobalLogger(true) })

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)

	respondWithError(rec, r, "Failed to load leaderboard", errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	assert.Equal(t, errs.CodeUnknown, decodeEnvelope(t, rec).Error.Code)

	assert.Contains(t, buf.String(), "Failed to load leaderboard")
	assert.Contains(t, buf.String(), "disk on fire")
}
