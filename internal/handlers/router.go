/*
Package handlers exposes the ledger, lessons and interpreter as a JSON API.

Every /api route except device issuance needs a bearer device token; the token's
profile selects which store document the request reads and writes. Admin routes
also need the X-Admin-Token header.
*/
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"pyquest/internal/config"
	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/repository"
	"pyquest/internal/resp"
	"pyquest/internal/security"
	"pyquest/internal/service"
)

// Deps are the services the router wires into handlers
type Deps struct {
	Config   *config.Config
	Registry *service.LedgerRegistry
	Resets   *service.ResetService
	Lessons  *service.LessonService
	// BadWords is nil unless the backend is SQL
	BadWords *repository.BadWordRepository
}

// NewRouter builds the routing table. The rate limiters' cleanup goroutines
// stop when ctx is done.
func NewRouter(ctx context.Context, deps *Deps) http.Handler {
	authLimiter := security.NewRateLimiter(authRateCount, authRateWindow)
	runLimiter := security.NewRateLimiter(runRateCount, runRateWindow)
	go authLimiter.Cleanup(limiterCleanupInterval, ctx.Done())
	go runLimiter.Cleanup(limiterCleanupInterval, ctx.Done())

	mw := NewMiddleware(deps.Config.JWTSecret, deps.Config.AdminToken)
	auth := NewAuthHandler(deps.Registry, deps.Resets, deps.Config.JWTSecret, deps.Config.DeviceTokenTTL)
	progress := NewProgressHandler(deps.Registry)
	lessons := NewLessonHandler(deps.Lessons)
	admin := NewAdminHandler(deps.Registry, deps.BadWords)

	r := chi.NewRouter()

	corsAllowedOrigins := deps.Config.AllowedOrigins
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", AdminTokenHeader},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.Error(w, r, errs.NewError(errs.CodeNotFound))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.Success(w, map[string]string{
			"status":  "ok",
			"service": "PyQuest",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.With(authLimiter.Middleware).Post("/device", auth.IssueDevice)

		api.Group(func(dev chi.Router) {
			dev.Use(mw.RequireDevice)

			dev.Route("/auth", func(a chi.Router) {
				a.With(authLimiter.Middleware).Post("/signup", auth.Signup)
				a.With(authLimiter.Middleware).Post("/login", auth.Login)
				a.Post("/logout", auth.Logout)
				a.Get("/me", auth.Me)

				a.Route("/reset", func(rs chi.Router) {
					rs.Use(authLimiter.Middleware)
					rs.Post("/start", auth.ResetStart)
					rs.Post("/verify", auth.ResetVerify)
					rs.Post("/complete", auth.ResetComplete)
				})
			})

			dev.Post("/password/check", auth.CheckPassword)
			dev.Get("/usernames/suggest", auth.SuggestUsernames)
			dev.Get("/avatars", progress.Avatars)

			dev.Put("/me/avatar", progress.Avatar)
			dev.Post("/me/achievements", progress.Achievement)

			dev.Route("/progress", func(p chi.Router) {
				p.Post("/levels", progress.CompleteLevel)
				p.Post("/bonus", progress.Bonus)
				p.Post("/lives", progress.Lives)
			})
			dev.Get("/leaderboard", progress.Leaderboard)

			dev.Route("/lessons", func(l chi.Router) {
				l.Get("/", lessons.List)
				l.Get("/{id}", lessons.Get)
				l.With(runLimiter.Middleware).Post("/{id}/run", lessons.Run)
			})
			dev.With(runLimiter.Middleware).Post("/run", lessons.RunFree)

			dev.Route("/admin", func(ad chi.Router) {
				ad.Use(mw.RequireAdmin)
				ad.Get("/stats", admin.Stats)
				ad.Get("/users", admin.ListUsers)
				ad.Post("/users/{id}/reset", admin.ResetUser)
				ad.Delete("/users/{id}", admin.DeleteUser)
				ad.Post("/blocklist", admin.AddBlockedWords)
			})
		})
	})

	return r
}
