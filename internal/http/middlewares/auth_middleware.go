package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/bidashboard/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenValidator interface {
	Validate(raw string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects a request without a bearer token with 401 and one whose token
// does not validate with 403.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Authentication token required.")
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				abort(c, http.StatusUnauthorized, "Authentication token required.")
				return
			}
			abort(c, http.StatusForbidden, "Invalid or expired token.")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)

		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
