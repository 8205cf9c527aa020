package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peterphenikaa/zen8labs-auth/internal/auth"
	"github.com/peterphenikaa/zen8labs-auth/internal/config"
	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"github.com/peterphenikaa/zen8labs-auth/internal/users"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/middleware"
)

const (
	RefreshTokenCookie = "refreshToken"

	// LoginPath is where the guard sends browser clients without a valid token.
	LoginPath = "/v1/auth/login"

	refreshCookiePath = "/v1/auth"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

// RefreshRequest carries the refresh token when it is not sent as a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Authenticator is the slice of auth.Service the handlers need.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials, client auth.Client) (*models.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string)
	ActiveSessions(ctx context.Context, userID, currentID string) ([]auth.SessionInfo, error)
	SessionIDForRefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// Accounts registers and looks up users.
type Accounts interface {
	Register(ctx context.Context, email, name, secret string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg      *config.Config
	auth     Authenticator
	accounts Accounts
}

func NewAuthHandler(cfg *config.Config, a Authenticator, accounts Accounts) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: a, accounts: accounts}
}

// Register mounts the routes under rg/auth. guard protects the routes that
// need an access token; limiters run in front of login, register and refresh.
func (h *AuthHandler) Register(rg *gin.RouterGroup, guard gin.HandlerFunc, limiters ...gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", chain(limiters, h.Login)...)
	a.POST("/register", chain(limiters, h.RegisterUser)...)
	a.POST("/refresh", chain(limiters, h.Refresh)...)
	a.POST("/logout", h.Logout)
	a.GET("/me", guard, h.Me)
	a.GET("/sessions", guard, h.Sessions)
}

// Login verifies credentials and opens a session for the calling device.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.FailValidation(c, err)
		return
	}

	client := auth.Client{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
	resp, err := h.auth.Authenticate(c.Request.Context(), auth.Credentials{Email: req.Email, Password: req.Password}, client)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setAccessCookie(c, resp.AccessToken)
	h.setCookie(c, RefreshTokenCookie, resp.RefreshToken, int(h.cfg.Session.RefreshTTL.Seconds()), refreshCookiePath)
	middleware.Respond(c, http.StatusOK, resp, "login successful")
}

func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.FailValidation(c, err)
		return
	}

	id, err := h.accounts.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		middleware.Fail(c, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, users.ErrInvalidEmail):
		middleware.FailFields(c, map[string][]string{"email": {"email must be an email"}})
		return
	case errors.Is(err, users.ErrWeakPassword):
		middleware.FailFields(c, map[string][]string{"password": {"password is too short"}})
		return
	case err != nil:
		logger.Error("register_failed", "error", err)
		middleware.Fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	middleware.Respond(c, http.StatusCreated, id, "user registered")
}

// Refresh issues a new access token for a live session. The refresh token is
// read from the body first, then from the refreshToken cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}
	if token == "" {
		middleware.Fail(c, http.StatusUnauthorized, "missing refresh token")
		return
	}

	resp, err := h.auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	h.setAccessCookie(c, resp.AccessToken)
	middleware.Respond(c, http.StatusOK, resp, "token refreshed")
}

// Logout always succeeds from the client's point of view.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}
	if token != "" {
		h.auth.Logout(c.Request.Context(), token)
	}

	h.setCookie(c, middleware.AccessTokenCookie, "", -1, "/")
	h.setCookie(c, RefreshTokenCookie, "", -1, refreshCookiePath)
	middleware.Respond(c, http.StatusOK, nil, "logged out")
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, err := h.accounts.FindByID(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		logger.Error("me_lookup_failed", "error", err)
		middleware.Fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if id == nil {
		middleware.Fail(c, http.StatusUnauthorized, "please sign in again")
		return
	}
	middleware.Respond(c, http.StatusOK, id, "ok")
}

// Sessions lists the caller's active sessions, flagging the one bound to the
// refresh cookie sent with the request.
func (h *AuthHandler) Sessions(c *gin.Context) {
	ctx := c.Request.Context()

	var current string
	if rt, _ := c.Cookie(RefreshTokenCookie); rt != "" {
		if id, err := h.auth.SessionIDForRefreshToken(ctx, rt); err == nil {
			current = id
		}
	}

	list, err := h.auth.ActiveSessions(ctx, middleware.Subject(c), current)
	if err != nil {
		logger.Error("sessions_list_failed", "error", err)
		middleware.Fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if list == nil {
		list = []auth.SessionInfo{}
	}
	middleware.Respond(c, http.StatusOK, list, "ok")
}

// refreshTokenFrom reads an optional JSON body, falling back to the cookie.
// It reports false after writing a 400 for an unparseable body.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) (string, bool) {
	var req RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.FailValidation(c, err)
			return "", false
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, true
	}
	rt, _ := c.Cookie(RefreshTokenCookie)
	return rt, true
}

func (h *AuthHandler) setAccessCookie(c *gin.Context, token string) {
	h.setCookie(c, middleware.AccessTokenCookie, token, int(h.cfg.JWT.AccessTokenTTL.Seconds()), "/")
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, "", h.cfg.IsProduction(), true)
}

// writeAuthError maps service errors to responses. Credential failures share
// one message so callers cannot tell which part was wrong.
func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		middleware.Fail(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrSessionExpiredOrRevoked),
		errors.Is(err, auth.ErrUserNotFound):
		middleware.Fail(c, http.StatusUnauthorized, "session expired, please sign in again")
	default:
		logger.Error("auth_request_failed", "path", c.FullPath(), "error", err)
		middleware.Fail(c, http.StatusInternalServerError, "internal server error")
	}
}

func chain(pre []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(pre)+1)
	out = append(out, pre...)
	return append(out, h)
}
