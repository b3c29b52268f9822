package reqctx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/festahub/festahub/internal/shared"
)

type requestContextKey struct{}

// WithContext stores the resolution context in ctx.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext extracts the resolution context, or nil when the request is
// unauthenticated.
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(requestContextKey{}).(*Context)
	return rc
}

// Middleware builds a resolution context from the session user on every
// authenticated request.
type Middleware struct {
	Users    UserDirectory
	Projects ProjectDirectory
	Logger   *slog.Logger
}

// Attach injects a *Context for requests carrying a session user. Requests
// without one pass through untouched; RequireUser decides rejection.
func (m Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		rc := New(sess.User(), m.Users, m.Projects)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), rc)))
	})
}

// RequireUser rejects requests that did not resolve a context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
