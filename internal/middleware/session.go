package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/users-web/internal/models"
)

// ContextSessionKey holds the *models.Session for the current request.
const ContextSessionKey = "session"

type sessionStarter interface {
	Start(ctx context.Context, id string) *models.Session
}

// SessionCookie describes the cookie carrying the session id.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session resumes or opens the browser session and refreshes its cookie.
func Session(sessions sessionStarter, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)
		session := sessions.Start(c.Request.Context(), id)
		if session.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie.Name, session.ID, int(cookie.TTL.Seconds()), "/", "", cookie.Secure, true)
		}
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFromContext returns the request session, or nil outside Session.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}
