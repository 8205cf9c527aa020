package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/internal/tokens"
)

const (
	// AccessTokenCookie carries the access token for browser clients.
	AccessTokenCookie = "accessToken"

	ContextKeyClaims  = "claims"
	ContextKeySubject = "sub"
)

// TokenDecoder is the minimal interface the guard depends on
type TokenDecoder interface {
	Decode(token string) (*tokens.Claims, error)
}

// AuthMiddleware verifies the access token from the Authorization header or,
// failing that, the accessToken cookie. HTML clients are redirected to
// loginPath instead of receiving a 401.
func AuthMiddleware(dec TokenDecoder, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(AccessTokenCookie)
		}
		if raw == "" {
			deny(c, loginPath, "missing access token")
			return
		}

		claims, err := dec.Decode(raw)
		if err != nil {
			deny(c, loginPath, "invalid or expired access token")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// Subject returns the authenticated subject set by AuthMiddleware, or "".
func Subject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func deny(c *gin.Context, loginPath, message string) {
	if loginPath != "" && strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
		return
	}
	Fail(c, http.StatusUnauthorized, message)
}
