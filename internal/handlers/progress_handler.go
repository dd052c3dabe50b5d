package handlers

import (
	"net/http"

	"pyquest/internal/errs"
	"pyquest/internal/models"
	"pyquest/internal/req"
	"pyquest/internal/resp"
	"pyquest/internal/service"
)

// ProgressHandler handles XP, coins, lives, avatars and the leaderboard
type ProgressHandler struct {
	registry *service.LedgerRegistry
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(registry *service.LedgerRegistry) *ProgressHandler {
	return &ProgressHandler{registry: registry}
}

// respondProgress writes the updated progress. The ledger reports nil progress
// when nobody is logged in, which the API surfaces as NOT_LOGGED_IN.
func respondProgress(w http.ResponseWriter, r *http.Request, p *models.UserProgress, err error) {
	if err != nil {
		respondWithError(w, r, "Failed to update progress", err)
		return
	}
	if p == nil {
		resp.Error(w, r, errs.NewError(errs.CodeNotLoggedIn))
		return
	}
	resp.Success(w, p)
}

// CompleteLevel records a finished level
func (h *ProgressHandler) CompleteLevel(w http.ResponseWriter, r *http.Request) {
	var body service.CompletionInput
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	p, err := ledgerFor(h.registry, r).CompleteLevel(r.Context(), body)
	respondProgress(w, r, p, err)
}

type bonusRequest struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// Bonus grants extra XP and coins
func (h *ProgressHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	var body bonusRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	p, err := ledgerFor(h.registry, r).AddXPAndCoins(r.Context(), body.XP, body.Coins)
	respondProgress(w, r, p, err)
}

type livesRequest struct {
	Delta int `json:"delta"`
}

// Lives gains or loses lives
func (h *ProgressHandler) Lives(w http.ResponseWriter, r *http.Request) {
	var body livesRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	p, err := ledgerFor(h.registry, r).UpdateLives(r.Context(), body.Delta)
	respondProgress(w, r, p, err)
}

type avatarRequest struct {
	Avatar models.Avatar `json:"avatar"`
}

// Avatar changes the current player's avatar
func (h *ProgressHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	var body avatarRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	p, err := ledgerFor(h.registry, r).UpdateAvatar(r.Context(), body.Avatar)
	respondProgress(w, r, p, err)
}

type achievementRequest struct {
	Tag string `json:"tag"`
}

// Achievement unlocks an achievement
func (h *ProgressHandler) Achievement(w http.ResponseWriter, r *http.Request) {
	var body achievementRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	p, err := ledgerFor(h.registry, r).UnlockAchievement(r.Context(), body.Tag)
	respondProgress(w, r, p, err)
}

// Leaderboard lists the top players on the profile
func (h *ProgressHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := ledgerFor(h.registry, r).Leaderboard(r.Context())
	if err != nil {
		respondWithError(w, r, "Failed to load leaderboard", err)
		return
	}
	resp.Success(w, board)
}

// Avatars lists the selectable avatars
func (h *ProgressHandler) Avatars(w http.ResponseWriter, r *http.Request) {
	resp.Success(w, models.Avatars)
}
