package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/platform/token"
)

// CookieName is the token cookie written on login and cleared on logout.
const CookieName = "jwt"

type userKey struct{}

// UserFrom returns the authenticated user, nil for anonymous requests.
func UserFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey{}).(*domain.User)
	return u
}

// WithTestUser exists for handler tests; production code goes through
// Protect/WithUser.
func WithTestUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

type UserGetter interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// Auth is the authentication gate. One verification core backs both the
// hard (Protect) and soft (WithUser) entry points.
type Auth struct {
	Tokens   *token.Service
	Users    UserGetter
	Renderer *response.Renderer
}

// authenticate runs the full check chain: token present, signature and
// expiry valid, subject still exists and is active, password not changed
// after the token was issued.
func (a *Auth) authenticate(r *http.Request) (*domain.User, error) {
	raw := extractToken(r)
	if raw == "" {
		return nil, response.Unauthorized("you are not logged in, please log in to get access")
	}

	claims, err := a.Tokens.Verify(raw)
	if err != nil {
		return nil, response.Unauthorized("invalid or expired token, please log in again")
	}

	user, err := a.Users.FindByID(r.Context(), claims.Sub)
	if err != nil {
		return nil, response.Internal(err)
	}
	if user == nil || !user.Active {
		return nil, response.Unauthorized("the user belonging to this token no longer exists")
	}

	if user.PasswordChangedAfter(claims.IssuedTime()) {
		return nil, response.Unauthorized("password recently changed, please log in again")
	}

	return user, nil
}

func extractToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Protect fails the request with 401 unless it carries a valid token
// for an existing, active user.
func (a *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			a.Renderer.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// WithUser attaches the user when the same checks pass and silently
// continues anonymously when they don't. Never fails a request.
func (a *Auth) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := a.authenticate(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey{}, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles gates an already-authenticated request on role
// membership. Mount after Protect.
func (a *Auth) RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r.Context())
			if user == nil {
				a.Renderer.WriteError(w, r, response.Unauthorized("you are not logged in, please log in to get access"))
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				a.Renderer.WriteError(w, r, response.Forbidden("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
