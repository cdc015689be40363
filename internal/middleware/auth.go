package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/nhadat/listing-auth/internal/apperr"
	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/http/respond"
)

// Cookie names carrying the session tokens.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	ID       string
	FullName string
	RoleName string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by Authenticate or OptionalAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TokenFromRequest extracts the access token, preferring the Authorization bearer
// header over the access token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate rejects requests without a valid access token.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.DecodeKind(TokenFromRequest(r), auth.KindAccess)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identityOf(claims))))
		})
	}
}

// OptionalAuth attaches an identity when a valid access token is present.
// Any failure leaves the request anonymous; it never rejects.
func OptionalAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := tokens.DecodeKind(TokenFromRequest(r), auth.KindAccess); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identityOf(claims)))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles allows only identities whose role is in roles. It must run after Authenticate.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				respond.Error(w, r, apperr.New(apperr.CodeUnauthorized, "Authentication required"))
				return
			}
			if !slices.Contains(roles, id.RoleName) {
				respond.Error(w, r, apperr.New(apperr.CodeForbidden, "You don't have permission to access this resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityOf(c *auth.Claims) Identity {
	return Identity{ID: c.ID, FullName: c.FullName, RoleName: c.RoleName}
}
