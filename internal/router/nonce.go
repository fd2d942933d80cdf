package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nus-cts-lab/free-viewing-sky/internal/utils"
)

const CspNonceContextKey = "csp_nonce"

// NonceMiddleware mints a fresh CSP nonce for every response and sets a
// Content-Security-Policy restricting the experiment client to same-origin
// resources: its own scripts and stylesheets, the stimulus images, and the
// sample-stream websocket.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(16)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(CspNonceContextKey, nonce)
		c.Header("Content-Security-Policy", fmt.Sprintf(
			"default-src 'self'; script-src 'self' 'nonce-%s'; img-src 'self' data:; connect-src 'self' ws: wss:",
			nonce))
		c.Next()
	}
}
