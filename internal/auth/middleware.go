package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/cookie"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

type ctxKey struct{}

// ClaimsFromContext returns the claims CheckAuth attached to the request.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*token.Claims)
	return c, ok
}

// WithClaims stores c in ctx.
func WithClaims(ctx context.Context, c *token.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Gate guards routes with the access token.
type Gate struct {
	tokens *token.Issuer
	errs   *response.ErrorWriter
}

func NewGate(tokens *token.Issuer, errs *response.ErrorWriter) *Gate {
	return &Gate{tokens: tokens, errs: errs}
}

// CheckAuth requires a valid access token from the accessToken cookie or a
// Bearer Authorization header. A non-empty roles list restricts access further.
func (g *Gate) CheckAuth(roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessTokenFrom(r)
			if raw == "" {
				g.errs.Write(w, r, apperror.Unauthorized("You are not authorized!"))
				return
			}
			verified := g.tokens.VerifyAccess(raw)
			if !verified.Success {
				g.errs.Write(w, r, apperror.Wrap(verified.Err, http.StatusUnauthorized, "You are not authorized!"))
				return
			}
			c := verified.Claims
			if c.Status == entity.StatusBlocked {
				g.errs.Write(w, r, apperror.Forbidden("User is blocked"))
				return
			}
			if c.IsDeleted || c.Status == entity.StatusDeleted {
				g.errs.Write(w, r, apperror.NotFound("User is deleted"))
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, c.Role) {
				g.errs.Write(w, r, apperror.Forbidden("You are not permitted to access this route"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), c)))
		})
	}
}

func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(cookie.AccessTokenName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
