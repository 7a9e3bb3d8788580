package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/auth/domain"
	"github.com/arqmanager/portfolio-web/internal/auth/service"
	"github.com/arqmanager/portfolio-web/internal/logger"
)

const (
	SessionCookie = "arq_session"
	ctxSession    = "session"
	LoginPath     = "/login"
)

type SessionResolver interface {
	Resolve(ctx context.Context, sid string) (*service.Session, error)
}

// LoadSession resolves the session cookie, if any, and stores the session in
// the gin context. It never rejects a request.
func LoadSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), sid)
		switch {
		case err == nil:
			SetSession(c, sess)
		case errors.Is(err, domain.ErrSessionNotFound):
		default:
			logger.New(c.Request.Context()).LogError("session_resolve", err)
		}
		c.Next()
	}
}

// RequireSession rejects requests without an authenticated session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":       false,
				"error":    "authentication required",
				"redirect": LoginRedirect(),
			})
			return
		}
		c.Next()
	}
}

// LoginRedirect is the redirect object sent with 401 answers. Form responses
// use the same {"to", "after_ms"} shape for their scheduled navigation.
func LoginRedirect() gin.H {
	return gin.H{"to": LoginPath}
}

// SetSession attaches sess to the request.
func SetSession(c *gin.Context, sess *service.Session) {
	c.Set(ctxSession, sess)
}

// CurrentSession returns the session loaded by LoadSession, or nil.
func CurrentSession(c *gin.Context) *service.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*service.Session)
	return sess
}
