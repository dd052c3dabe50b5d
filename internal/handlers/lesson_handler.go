package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pyquest/internal/req"
	"pyquest/internal/resp"
	"pyquest/internal/service"
)

// LessonHandler serves lessons and runs exercise code
type LessonHandler struct {
	lessons *service.LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessons *service.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// List returns every lesson
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	resp.Success(w, h.lessons.List())
}

// Get returns one lesson
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.lessons.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, "", err)
		return
	}
	resp.Success(w, lesson)
}

type runRequest struct {
	Code string `json:"code"`
}

// Run executes code against a lesson's grammar
func (h *LessonHandler) Run(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	res, err := h.lessons.Run(chi.URLParam(r, "id"), body.Code)
	if err != nil {
		respondWithError(w, r, "", err)
		return
	}
	resp.Success(w, res)
}

// RunFree executes code with every statement kind enabled
func (h *LessonHandler) RunFree(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := req.BindJSON(w, r, &body); err != nil {
		resp.Error(w, r, err)
		return
	}
	resp.Success(w, h.lessons.RunFree(body.Code))
}
