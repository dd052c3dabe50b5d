package handlers

import (
	"net/http"
	"time"

	"pyquest/internal/credentials"
	"pyquest/internal/errs"
	"pyquest/internal/models"
	"pyquest/internal/req"
	"pyquest/internal/resp"
	"pyquest/internal/security"
	"pyquest/internal/service"
)

// AuthHandler handles device profiles, signup, login and password reset
type AuthHandler struct {
	registry  *service.LedgerRegistry
	resets    *service.ResetService
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(registry *service.LedgerRegistry, resets *service.ResetService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		registry:  registry,
		resets:    resets,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type deviceResponse struct {
	Token     string    `json:"token"`
	ProfileID string    `json:"profileId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueDevice creates a fresh profile and returns the token that selects it
func (h *AuthHandler) IssueDevice(w http.ResponseWriter, r *http.Request) {
	profileID := security.NewID()
	token, err := security.GenerateDeviceToken(profileID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondWithError(w, r, "Failed to issue device token", err)
		return
	}
	resp.Created(w, deviceResponse{
		Token:     token,
		ProfileID: profileID,
		ExpiresAt: time.Now().Add(h.tokenTTL),
	})
}

type signupRequest struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Avatar   models.Avatar `json:"avatar"`
}

// Signup creates a player on the caller's profile and logs them in
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}

	user, err := ledgerFor(h.registry, r).Signup(r.Context(), body.Username, body.Password, body.Avatar)
	if err != nil {
		respondWithError(w, r, "Failed to sign up", err)
		return
	}
	resp.Created(w, user.Public())
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login logs a player in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}

	user, err := ledgerFor(h.registry, r).Login(r.Context(), body.Username, body.Password)
	if err != nil {
		respondWithError(w, r, "Failed to log in", err)
		return
	}
	resp.Success(w, user.Public())
}

// Logout clears the current player
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ledgerFor(h.registry, r).Logout(r.Context()); err != nil {
		respondWithError(w, r, "Failed to log out", err)
		return
	}
	resp.Success(w, nil)
}

// Me returns the current player
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := ledgerFor(h.registry, r).CurrentUser(r.Context())
	if err != nil {
		respondWithError(w, r, "Failed to load current user", err)
		return
	}
	resp.Success(w, user.Public())
}

type passwordCheckRequest struct {
	Password string `json:"password"`
}

// CheckPassword scores a password as the player types it
func (h *AuthHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	var body passwordCheckRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	resp.Success(w, h.registry.Policy().Check(body.Password))
}

// SuggestUsernames offers fun names that nobody on the profile uses yet
func (h *AuthHandler) SuggestUsernames(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 3)
	if n < 1 || n > maxSuggestions {
		resp.Error(w, r, errs.NewError(errs.CodeInvalidParams))
		return
	}

	ledger := ledgerFor(h.registry, r)
	users, err := ledger.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, r, "Failed to list users", err)
		return
	}
	taken := make(map[string]bool, len(users))
	for _, u := range users {
		taken[models.NormalizeUsername(u.Username)] = true
	}
	blocklist := h.registry.Blocklist()

	names, err := credentials.SuggestUsernames(n, func(name string) bool {
		return taken[models.NormalizeUsername(name)] || !blocklist.Allows(name)
	})
	if err != nil {
		respondWithError(w, r, "Failed to suggest usernames", err)
		return
	}
	resp.Success(w, map[string][]string{"usernames": names})
}

type resetStartRequest struct {
	Username string `json:"username"`
}

type resetStartResponse struct {
	State models.ResetState `json:"state"`
	Code  string            `json:"code"`
}

// ResetStart issues a reset code
func (h *AuthHandler) ResetStart(w http.ResponseWriter, r *http.Request) {
	var body resetStartRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}

	profileID, _ := ProfileFromContext(r.Context())
	code, err := h.resets.InitiatePasswordReset(r.Context(), profileID, body.Username)
	if err != nil {
		respondWithError(w, r, "Failed to start password reset", err)
		return
	}
	resp.Success(w, resetStartResponse{State: models.ResetStateCodeSent, Code: code})
}

type resetVerifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type resetStateResponse struct {
	State models.ResetState `json:"state"`
}

// ResetVerify checks a reset code without using it up
func (h *AuthHandler) ResetVerify(w http.ResponseWriter, r *http.Request) {
	var body resetVerifyRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}

	profileID, _ := ProfileFromContext(r.Context())
	if err := h.resets.VerifyResetCode(r.Context(), profileID, body.Username, body.Code); err != nil {
		respondWithError(w, r, "Failed to verify reset code", err)
		return
	}
	resp.Success(w, resetStateResponse{State: models.ResetStateCodeVerified})
}

type resetCompleteRequest struct {
	Username    string `json:"username"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ResetComplete sets the new password
func (h *AuthHandler) ResetComplete(w http.ResponseWriter, r *http.Request) {
	var body resetCompleteRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}

	profileID, _ := ProfileFromContext(r.Context())
	err := h.resets.ResetPassword(r.Context(), profileID, body.Username, body.Code, body.NewPassword)
	if err != nil {
		respondWithError(w, r, "Failed to reset password", err)
		return
	}
	resp.Success(w, resetStateResponse{State: models.ResetStateDone})
}
