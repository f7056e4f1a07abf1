package middleware

import (
	"net/http"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

// RequireRole rejects anonymous callers with 401 and callers whose role
// fails allowed with 403.
func RequireRole(allowed func(domain.UserRole) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed(domain.UserRole(ctxutil.UserRoleFromCtx(r.Context()))) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireViewer admits any authenticated user.
func RequireViewer() Middleware {
	return RequireRole(domain.UserRole.IsValid)
}

// RequireEditor admits editors and admins.
func RequireEditor() Middleware {
	return RequireRole(domain.UserRole.CanEdit)
}

// RequireAdmin admits admins only.
func RequireAdmin() Middleware {
	return RequireRole(domain.UserRole.IsAdmin)
}
