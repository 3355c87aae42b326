package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gaugyan/storefront/internal/api/middleware"
	"github.com/gaugyan/storefront/internal/session"
)

// HandleEndSession handles DELETE /v1/session. The saved cart survives, so
// the same session id restores it later.
func HandleEndSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.GetSessionID(c)
		if !sessions.End(sessionID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "ended": true})
	}
}
