package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pyquest/internal/errs"
	"pyquest/internal/repository"
	"pyquest/internal/req"
	"pyquest/internal/resp"
	"pyquest/internal/service"
)

// AdminHandler serves the teacher dashboard
type AdminHandler struct {
	registry *service.LedgerRegistry
	badWords *repository.BadWordRepository
}

// NewAdminHandler creates a new admin handler. badWords is nil unless the
// backend is SQL; added words then only last until restart.
func NewAdminHandler(registry *service.LedgerRegistry, badWords *repository.BadWordRepository) *AdminHandler {
	return &AdminHandler{registry: registry, badWords: badWords}
}

// ListUsers lists every player on the caller's profile
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := ledgerFor(h.registry, r).ListUsers(r.Context())
	if err != nil {
		respondWithError(w, r, "Failed to list users", err)
		return
	}
	resp.Success(w, users)
}

// ResetUser puts a player's progress back to the start
func (h *AdminHandler) ResetUser(w http.ResponseWriter, r *http.Request) {
	if err := ledgerFor(h.registry, r).ResetUserProgress(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithError(w, r, "Failed to reset user", err)
		return
	}
	resp.Success(w, nil)
}

// DeleteUser removes a player
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := ledgerFor(h.registry, r).DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithError(w, r, "Failed to delete user", err)
		return
	}
	resp.Success(w, nil)
}

type blocklistRequest struct {
	Words []string `json:"words"`
}

type blocklistResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// AddBlockedWords extends the username blocklist
func (h *AdminHandler) AddBlockedWords(w http.ResponseWriter, r *http.Request) {
	var body blocklistRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	if len(body.Words) == 0 {
		resp.Error(w, r, errs.NewError(errs.CodeInvalidParams))
		return
	}

	blocklist := h.registry.Blocklist()
	before := blocklist.Len()
	added := 0
	if h.badWords != nil {
		n, err := h.badWords.Add(r.Context(), body.Words...)
		if err != nil {
			respondWithError(w, r, "Failed to store blocked words", err)
			return
		}
		added = n
	}
	blocklist.Add(body.Words...)
	if h.badWords == nil {
		added = blocklist.Len() - before
	}

	resp.Success(w, blocklistResponse{Added: added, Total: blocklist.Len()})
}

type statsResponse struct {
	Profiles      int   `json:"profiles"`
	CorruptLoads  int64 `json:"corruptLoads"`
	BlockedWords  int   `json:"blockedWords"`
	PersistBlocks bool  `json:"persistBlocks"`
}

// Stats reports store health for the dashboard
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.registry.Profiles(r.Context())
	if err != nil {
		respondWithError(w, r, "Failed to list profiles", err)
		return
	}
	resp.Success(w, statsResponse{
		Profiles:      len(profiles),
		CorruptLoads:  h.registry.CorruptLoads(),
		BlockedWords:  h.registry.Blocklist().Len(),
		PersistBlocks: h.badWords != nil,
	})
}
