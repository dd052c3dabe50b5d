package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyquest/internal/config"
	"pyquest/internal/errs"
	"pyquest/internal/interpreter"
	"pyquest/internal/models"
	"pyquest/internal/repository"
	"pyquest/internal/service"
)

const testAdminToken = "let-me-in"

type rawEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code errs.Code `json:"code"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func newTestRouter(t *testing.T) *apiClient {
	t.Helper()

	cfg := &config.Config{
		Environment:    "test",
		JWTSecret:      "router-test-secret",
		AdminToken:     testAdminToken,
		DeviceTokenTTL: time.Hour,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	registry := service.NewLedgerRegistry(
		repository.NewStoreRepository(repository.NewMemoryKV()),
		service.LedgerConfig{MaxUsers: 3},
	)
	lessons, err := service.LoadLessonService("", interpreter.DefaultRunner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(ctx, &Deps{
		Config:   cfg,
		Registry: registry,
		Resets:   service.NewResetService(registry, nil, service.DefaultResetCodeTTL),
		Lessons:  lessons,
	})
	return &apiClient{t: t, router: router}
}

func (c *apiClient) do(method, path string, body any, header http.Header) (*httptest.ResponseRecorder, rawEnvelope) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, r)

	var env rawEnvelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (c *apiClient) registerDevice() {
	c.t.Helper()
	rec, env := c.do(http.MethodPost, "/api/device", nil, nil)
	require.Equal(c.t, http.StatusCreated, rec.Code)

	var dev deviceResponse
	require.NoError(c.t, json.Unmarshal(env.Data, &dev))
	require.NotEmpty(c.t, dev.Token)
	require.NotEmpty(c.t, dev.ProfileID)
	c.token = dev.Token
}

func decodeData[T any](t *testing.T, env rawEnvelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func TestHealth(t *testing.T) {
	c := newTestRouter(t)
	rec, env := c.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.OK)
}

func TestAPIRequiresDeviceToken(t *testing.T) {
	c := newTestRouter(t)

	rec, env := c.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.CodeUnauthorized, env.Error.Code)

	c.token = "not-a-jwt"
	rec, env = c.do(http.MethodGet, "/api/leaderboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.CodeUnauthorized, env.Error.Code)
}

func TestUnknownRouteIsCoded(t *testing.T) {
	c := newTestRouter(t)
	rec, env := c.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.CodeNotFound, env.Error.Code)
}

func TestPlayerJourney(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()

	rec, env := c.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.CodeNotLoggedIn, env.Error.Code)

	rec, env = c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "Ann", Password: "tiger123", Avatar: models.AvatarDragon,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeData[models.UserPublic](t, env)
	assert.Equal(t, "Ann", user.Username)
	assert.Equal(t, models.MaxLives, user.Progress.Lives)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec, env = c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "ann", Password: "tiger123", Avatar: models.AvatarCat,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodeUsernameTaken, env.Error.Code)

	rec, env = c.do(http.MethodPost, "/api/progress/levels", service.CompletionInput{
		Level: 1, XPEarned: 40, CoinsEarned: 7, Attempts: 2, TimeSpent: 30,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	progress := decodeData[models.UserProgress](t, env)
	assert.Equal(t, 40, progress.XP)
	assert.Equal(t, 7, progress.Coins)
	assert.Equal(t, 2, progress.CurrentLevel)

	rec, env = c.do(http.MethodPost, "/api/progress/lives", livesRequest{Delta: -2}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeData[models.UserProgress](t, env).Lives)

	rec, env = c.do(http.MethodPut, "/api/me/avatar", avatarRequest{Avatar: "kraken"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodeInvalidAvatar, env.Error.Code)

	_, env = c.do(http.MethodGet, "/api/leaderboard", nil, nil)
	board := decodeData[[]service.LeaderboardEntry](t, env)
	require.Len(t, board, 1)
	assert.Equal(t, "Ann", board[0].Username)
	assert.Equal(t, 40, board[0].XP)

	rec, _ = c.do(http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = c.do(http.MethodPost, "/api/progress/bonus", bonusRequest{XP: 5}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.CodeNotLoggedIn, env.Error.Code)

	rec, env = c.do(http.MethodPost, "/api/auth/login", loginRequest{Username: "ANN", Password: "tiger123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40, decodeData[models.UserPublic](t, env).Progress.XP)
}

func TestProfilesAreIsolated(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()
	rec, _ := c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "Ben", Password: "tiger123", Avatar: models.AvatarRobot,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	other := &apiClient{t: t, router: c.router}
	other.registerDevice()
	_, env := other.do(http.MethodGet, "/api/leaderboard", nil, nil)
	assert.Empty(t, decodeData[[]service.LeaderboardEntry](t, env))

	rec, env = other.do(http.MethodPost, "/api/auth/login", loginRequest{Username: "Ben", Password: "tiger123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodeUsernameNotFound, env.Error.Code)
}

func TestPasswordResetRoutes(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()
	c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "Cat", Password: "tiger123", Avatar: models.AvatarCat,
	}, nil)

	rec, env := c.do(http.MethodPost, "/api/auth/reset/start", resetStartRequest{Username: "Cat"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decodeData[resetStartResponse](t, env)
	assert.Equal(t, models.ResetStateCodeSent, started.State)
	require.Len(t, started.Code, 6)

	rec, env = c.do(http.MethodPost, "/api/auth/reset/verify", resetVerifyRequest{Username: "Cat", Code: "000000x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodeInvalidCode, env.Error.Code)

	rec, env = c.do(http.MethodPost, "/api/auth/reset/verify", resetVerifyRequest{Username: "Cat", Code: started.Code}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ResetStateCodeVerified, decodeData[resetStateResponse](t, env).State)

	rec, _ = c.do(http.MethodPost, "/api/auth/reset/complete", resetCompleteRequest{
		Username: "Cat", Code: started.Code, NewPassword: "lion4567",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/auth/login", loginRequest{Username: "Cat", Password: "lion4567"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSuggestUsernames(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()

	rec, env := c.do(http.MethodGet, "/api/usernames/suggest?n=4", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	names := decodeData[map[string][]string](t, env)["usernames"]
	assert.Len(t, names, 4)

	for _, q := range []string{"n=0", "n=11", "n=many"} {
		rec, env = c.do(http.MethodGet, "/api/usernames/suggest?"+q, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, errs.CodeInvalidParams, env.Error.Code, q)
	}
}

func TestLessonRoutes(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()

	_, env := c.do(http.MethodGet, "/api/lessons", nil, nil)
	list := decodeData[[]map[string]any](t, env)
	require.NotEmpty(t, list)
	assert.Equal(t, "pet-shop", list[0]["id"])

	rec, env := c.do(http.MethodPost, "/api/lessons/pet-shop/run", runRequest{
		Code: "pets = [\"dog\", \"cat\"]\nprint(pets[1])\n",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[service.RunResult](t, env)
	assert.Equal(t, []string{"cat"}, result.Output)
	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed)

	rec, env = c.do(http.MethodPost, "/api/lessons/moon-base/run", runRequest{Code: "print(1)"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.CodeLessonNotFound, env.Error.Code)

	rec, env = c.do(http.MethodPost, "/api/run", runRequest{Code: "x = 2\nx += 3\nprint(x)"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"5"}, decodeData[service.RunResult](t, env).Output)
}

func TestJSONRoutesRejectOtherContentTypes(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()

	r := httptest.NewRequest(http.MethodPost, "/api/run", bytes.NewBufferString("code=print(1)"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Authorization", "Bearer "+c.token)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	c := newTestRouter(t)
	c.registerDevice()
	rec, env := c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "Dan", Password: "tiger123", Avatar: models.AvatarWizard,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	dan := decodeData[models.UserPublic](t, env)

	rec, env = c.do(http.MethodGet, "/api/admin/users", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errs.CodeForbidden, env.Error.Code)

	rec, _ = c.do(http.MethodGet, "/api/admin/users", nil, http.Header{AdminTokenHeader: {"guess"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := http.Header{AdminTokenHeader: {testAdminToken}}

	rec, env = c.do(http.MethodGet, "/api/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeData[[]models.UserPublic](t, env)
	require.Len(t, users, 1)
	assert.Equal(t, dan.ID, users[0].ID)

	rec, env = c.do(http.MethodPost, "/api/admin/blocklist", blocklistRequest{Words: []string{"Grumpy"}}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeData[blocklistResponse](t, env).Added)

	rec, env = c.do(http.MethodPost, "/api/auth/signup", signupRequest{
		Username: "grumpy42", Password: "tiger123", Avatar: models.AvatarCat,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.CodeUsernameNotAllowed, env.Error.Code)

	rec, env = c.do(http.MethodGet, "/api/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData[statsResponse](t, env)
	assert.Equal(t, 1, stats.Profiles)
	assert.False(t, stats.PersistBlocks)

	rec, _ = c.do(http.MethodDelete, "/api/admin/users/"+dan.ID, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = c.do(http.MethodPost, "/api/admin/users/"+dan.ID+"/reset", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.CodeUserNotFound, env.Error.Code)
}
