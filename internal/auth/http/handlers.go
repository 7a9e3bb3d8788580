package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/auth/domain"
	"github.com/arqmanager/portfolio-web/internal/auth/middleware"
	"github.com/arqmanager/portfolio-web/internal/auth/service"
	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/logger"
)

type Handler struct {
	sessions     *service.SessionService
	cookieTTL    time.Duration
	cookieSecure bool
}

func New(sessions *service.SessionService, cookieTTL time.Duration, cookieSecure bool) *Handler {
	return &Handler{sessions: sessions, cookieTTL: cookieTTL, cookieSecure: cookieSecure}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/login/google", h.LoginWithGoogle)
	rg.POST("/register", h.SignUp)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", middleware.RequireSession(), h.Me)
}

// Login opens a session from email and password
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	sess, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.loginFailed(c, "login", err)
		return
	}

	h.setCookie(c, sess.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": sess.CurrentUser})
}

// LoginWithGoogle opens a session from a Google ID token
func (h *Handler) LoginWithGoogle(c *gin.Context) {
	var req domain.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	sess, err := h.sessions.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		h.loginFailed(c, "login_google", err)
		return
	}

	h.setCookie(c, sess.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": sess.CurrentUser})
}

func (h *Handler) loginFailed(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid email or password"})
	case errors.Is(err, domain.ErrInvalidGoogleToken):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid google token"})
	default:
		logger.New(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not sign in, try again"})
	}
}

// SignUp creates an account on the backend. It does not open a session.
func (h *Handler) SignUp(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	user, err := h.sessions.Register(c.Request.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		var rejected *backend.RemoteValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid fields", "fields": verr.Fields})
		case errors.As(err, &rejected):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "account could not be created"})
		default:
			logger.New(c.Request.Context()).LogError("register", err)
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not create account, try again"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": user})
}

// Logout ends the session and clears the cookie
func (h *Handler) Logout(c *gin.Context) {
	sid, _ := c.Cookie(middleware.SessionCookie)
	if err := h.sessions.Logout(c.Request.Context(), sid); err != nil {
		logger.New(c.Request.Context()).LogError("logout", err)
	}
	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me re-checks the session against the backend and returns the current user
func (h *Handler) Me(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	user, err := h.sessions.Refresh(c.Request.Context(), sess)
	if errors.Is(err, domain.ErrSessionNotFound) {
		h.clearCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "session expired", "redirect": middleware.LoginRedirect()})
		return
	}
	if err != nil {
		logger.New(c.Request.Context()).LogError("me", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not load the current user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (h *Handler) setCookie(c *gin.Context, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sid, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cookieSecure, true)
}
