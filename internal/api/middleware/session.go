package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/session"
)

// SessionHeader carries the shopping session id in both directions
const SessionHeader = "X-Session-ID"

const (
	sessionIDKey  = "session_id"
	newSessionKey = "session_new"
)

// SessionMiddleware resolves the caller's shopping session. A request without
// a session id gets a fresh one, echoed back in the response header.
func SessionMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			sessionID = session.NewSessionID()
			c.Set(newSessionKey, true)
			logger.Debug("Minted session", zap.String("session", sessionID))
		} else if _, err := uuid.Parse(sessionID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			c.Abort()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Header(SessionHeader, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id resolved by SessionMiddleware
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// IsNewSession reports whether the session id was minted for this request,
// in which case no cart can exist for it yet
func IsNewSession(c *gin.Context) bool {
	return c.GetBool(newSessionKey)
}
