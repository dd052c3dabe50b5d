package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/resp"
	"pyquest/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ProfileContextKey ContextKey = "profile"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	jwtSecret  string
	adminToken string
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(jwtSecret, adminToken string) *Middleware {
	return &Middleware{
		jwtSecret:  jwtSecret,
		adminToken: adminToken,
	}
}

// RequireDevice resolves the bearer device token to a profile ID
func (m *Middleware) RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			resp.Error(w, r, errs.NewError(errs.CodeUnauthorized))
			return
		}

		profileID, err := security.ParseDeviceToken(token, m.jwtSecret)
		if err != nil {
			logx.FromContext(r.Context()).Debug().Err(err).Msg("Rejected device token")
			resp.Error(w, r, errs.NewError(errs.CodeUnauthorized))
			return
		}

		ctx := context.WithValue(r.Context(), ProfileContextKey, profileID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin checks the admin header. Without a configured token every
// admin request is refused.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if m.adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(m.adminToken)) != 1 {
			logx.FromContext(r.Context()).Warn().Msg("Rejected admin request")
			resp.Error(w, r, errs.NewError(errs.CodeForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProfileFromContext returns the profile ID set by RequireDevice
func ProfileFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProfileContextKey).(string)
	return id, ok && id != ""
}
