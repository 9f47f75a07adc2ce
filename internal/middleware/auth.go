// Package middleware holds the authorization gate that fronts every protected
// route: bearer authentication, role gates and the login rate limiter.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier is what the gate needs from the token service.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, bool)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

// Handle authenticates the Authorization bearer token. A missing token is
// rejected with 401, an invalid or expired one with 403.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return am.handle(next, false)
}

// HandleWS also accepts the token as a ?token= query parameter, since
// browsers cannot set headers on a websocket handshake.
func (am *AuthMiddleware) HandleWS(next http.Handler) http.Handler {
	return am.handle(next, true)
}

func (am *AuthMiddleware) handle(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)
		if !present && allowQuery {
			token = r.URL.Query().Get("token")
			present = token != ""
		}
		if !present {
			httpx.Error(w, apperr.ErrNoToken)
			return
		}

		id, ok := am.verifier.Verify(token)
		if !ok {
			httpx.Error(w, apperr.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// bearerToken reports present for any non-empty Authorization header. A
// header with another scheme yields an empty token, which fails verification.
func bearerToken(r *http.Request) (token string, present bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity the gate attached to ctx.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func requireRole(allowed func(auth.Role) bool, denied error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				httpx.Error(w, apperr.ErrNotAuthenticated)
				return
			}
			if !allowed(id.Role) {
				httpx.Error(w, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits admin and super_admin.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(auth.Role.IsAdmin, apperr.ErrAdminRequired)(next)
}

// RequireAnyAdmin admits the same roles as RequireAdmin. It guards read-only
// admin views.
func RequireAnyAdmin(next http.Handler) http.Handler {
	return requireRole(auth.Role.IsAdmin, apperr.ErrAdminRequired)(next)
}

func RequireSuperAdmin(next http.Handler) http.Handler {
	return requireRole(auth.Role.IsSuperAdmin, apperr.ErrSuperAdminRequired)(next)
}
