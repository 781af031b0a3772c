package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"testhub/internal/logger"
	"testhub/internal/model"
)

const claimsKey = "auth_claims"

// Cookie describes how the credential cookie is written.
type Cookie struct {
	Name       string
	Production bool
}

// Set writes token as an HttpOnly cookie. In production it is Secure and
// SameSite=None so a cross-origin frontend can send it; otherwise Lax.
func (ck Cookie) Set(c *gin.Context, token string, maxAge int) {
	if ck.Production {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(ck.Name, token, maxAge, "/", "", ck.Production, true)
}

func (ck Cookie) Clear(c *gin.Context) {
	ck.Set(c, "", -1)
}

// Middleware authenticates requests and gates them by role.
type Middleware struct {
	tokens *TokenManager
	cookie Cookie
}

func NewMiddleware(tokens *TokenManager, cookie Cookie) *Middleware {
	return &Middleware{tokens: tokens, cookie: cookie}
}

func (m *Middleware) extractToken(c *gin.Context) string {
	if token, err := c.Cookie(m.cookie.Name); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Protect rejects requests without a valid credential and stores the claims
// for handlers.
func (m *Middleware) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No token provided"})
			return
		}
		claims, err := m.tokens.Verify(token)
		if err != nil {
			logger.L.Debugw("token rejected", "request_id", logger.RequestID(c), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: Invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Authorize allows only the listed roles. With no roles it only requires an
// authenticated user. Must run after Protect.
func Authorize(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No user found"})
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden: Insufficient permissions"})
	}
}

// CurrentUser returns the claims Protect stored, or nil.
func CurrentUser(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// WithClaims stores claims directly, for tests that bypass Protect.
func WithClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}
