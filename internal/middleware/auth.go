package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

const (
	ContextClaims = "claims"
	ContextToken  = "token"
)

// Authenticator validates bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.TokenClaims, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticate rejects requests without a live access token and stores the
// claims in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized("missing or malformed authorization header", nil))
			return
		}

		claims, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// OptionalAuth stores the claims when a valid token is sent and otherwise
// lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := BearerToken(c); ok {
			if claims, err := m.auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ContextClaims, claims)
				c.Set(ContextToken, token)
			}
		}
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("insufficient role"))
	}
}

// ClaimsFrom returns the claims stored by Authenticate or OptionalAuth.
func ClaimsFrom(c *gin.Context) (*model.TokenClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*model.TokenClaims)
	return claims, ok
}

// ActorFrom returns the caller, or an anonymous actor with RoleNone.
func ActorFrom(c *gin.Context) model.Actor {
	if claims, ok := ClaimsFrom(c); ok {
		return claims.Actor()
	}
	return model.Actor{Role: model.RoleNone}
}
