package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
)

// maxCaptureBytes bounds a widget-capture upload (a viewport-sized PNG).
const maxCaptureBytes = 8 << 20

// TrialHandler serves the display and sampler collaborator endpoints: the
// client polls the active trial spec, reports image bounds, streams position
// samples, and may upload the spotlight widget's own heatmap capture.
type TrialHandler struct {
	log      *zap.Logger
	manager  *session.Manager
	upgrader websocket.Upgrader
}

func NewTrialHandler(log *zap.Logger, manager *session.Manager) *TrialHandler {
	return &TrialHandler{
		log:     log,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// The app serves its own client; only same-origin streams.
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// Current returns the trial spec the client should display, or 204 between
// trials.
func (h *TrialHandler) Current(c *gin.Context) {
	sess, ok := lookupSession(c, h.manager)
	if !ok {
		return
	}
	spec := sess.Display.Current()
	if spec == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, spec)
}

// Bounds stores the client-measured bounding rectangles for the active
// trial's images.
func (h *TrialHandler) Bounds(c *gin.Context) {
	sess, ok := lookupSession(c, h.manager)
	if !ok {
		return
	}
	var bounds map[models.Quadrant]models.Rect
	if err := c.ShouldBindJSON(&bounds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bounds payload"})
		return
	}
	sess.Display.ReportBounds(bounds)
	c.Status(http.StatusOK)
}

// Stream upgrades to a websocket and ingests position-sample batches for the
// rest of the session.
func (h *TrialHandler) Stream(c *gin.Context) {
	sess, ok := lookupSession(c, h.manager)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade sample stream", zap.Error(err))
		return
	}
	h.log.Info("Sample stream connected", zap.String("session", sess.ID))
	go sess.Sampler.ReadLoop(conn)
}

// Capture accepts the spotlight widget's rendered bitmap for one trial. The
// exporter prefers it over the server-side gradient fallback.
func (h *TrialHandler) Capture(c *gin.Context) {
	sess, ok := lookupSession(c, h.manager)
	if !ok {
		return
	}
	trial, err := strconv.Atoi(c.Param("trial"))
	if err != nil || trial < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trial index"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCaptureBytes))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid capture payload"})
		return
	}
	sess.Store.SetCapture(trial, data)
	c.Status(http.StatusOK)
}
