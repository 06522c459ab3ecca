package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

const (
	ContextSubject = "subject"
	ContextPurpose = "purpose"
)

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) claims(c *gin.Context) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.Unauthorized(nil)
	}
	claims, err := m.tokens.ValidateToken(parts[1])
	if err != nil {
		return nil, errors.Unauthorized(err)
	}
	return claims, nil
}

// Authenticate verifies the bearer token and sets the verified contact in
// context. Requests without a valid token are rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.claims(c)
		if err == nil && claims == nil {
			err = errors.Unauthorized(nil)
		}
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextPurpose, claims.Purpose)
		c.Next()
	}
}

// OptionalAuth sets the subject when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still an
// error.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.claims(c)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}
		if claims != nil {
			c.Set(ContextSubject, claims.Subject)
			c.Set(ContextPurpose, claims.Purpose)
		}
		c.Next()
	}
}
