package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/internal/config"
	"github.com/peterphenikaa/zen8labs-auth/internal/tokens"
	"github.com/stretchr/testify/require"
)

const loginPath = "/v1/auth/login"

func newGuarded(t *testing.T) (*gin.Engine, *tokens.Signer) {
	t.Helper()
	signer := tokens.NewSigner(config.JWTConfig{Secret: "middleware-secret", Issuer: "zen8labs-auth", AccessTokenTTL: time.Minute})
	g := gin.New()
	g.GET("/", AuthMiddleware(signer, loginPath), func(c *gin.Context) {
		claims, ok := c.Get(ContextKeyClaims)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c), "exp": claims.(*tokens.Claims).ExpiresAt.Unix()})
	})
	return g, signer
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	g, _ := newGuarded(t)
	rw := serve(g, http.MethodGet, "/")

	require.Equal(t, http.StatusUnauthorized, rw.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &env))
	require.False(t, env.Status)
	require.Equal(t, http.StatusUnauthorized, env.Code)
	require.NotEmpty(t, env.Timestamp)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g, _ := newGuarded(t)
	for _, h := range []string{"BadHeader", "Basic abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", h)
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		require.Equal(t, http.StatusUnauthorized, rw.Code, h)
	}
}

func TestAuthMiddleware_ValidBearer(t *testing.T) {
	g, signer := newGuarded(t)
	tok, err := signer.Sign("user1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["sub"])
}

func TestAuthMiddleware_ValidCookie(t *testing.T) {
	g, signer := newGuarded(t)
	tok, err := signer.Sign("user2")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok})
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), "user2")
}

func TestAuthMiddleware_ExpiredTokenRedirectsBrowsers(t *testing.T) {
	g, _ := newGuarded(t)
	past := time.Now().Add(-time.Hour)
	old := tokens.NewSigner(config.JWTConfig{Secret: "middleware-secret", Issuer: "zen8labs-auth", AccessTokenTTL: time.Minute}).
		WithClock(func() time.Time { return past })
	tok, err := old.Sign("user3")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok})
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusFound, rw.Code)
	require.Equal(t, loginPath, rw.Header().Get("Location"))
}

func TestRecovery(t *testing.T) {
	g := gin.New()
	g.Use(Recovery())
	g.GET("/boom", func(c *gin.Context) { panic("boom") })

	rw := serve(g, http.MethodGet, "/boom")
	require.Equal(t, http.StatusInternalServerError, rw.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &env))
	require.Equal(t, "internal server error", env.Message)
}
