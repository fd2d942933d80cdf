// Package handlers wires the experiment core to its HTTP surface.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/config"
	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
	"github.com/nus-cts-lab/free-viewing-sky/internal/utils"
)

const sessionIDKey = "experimentSessionID"

// SessionHandler manages the session lifecycle: start, status, the
// between-rounds gate, and the emergency exit.
type SessionHandler struct {
	log     *zap.Logger
	manager *session.Manager
}

func NewSessionHandler(log *zap.Logger, manager *session.Manager) *SessionHandler {
	return &SessionHandler{log: log, manager: manager}
}

type startRequest struct {
	Participant    string `json:"participant" binding:"required"`
	ViewportWidth  int    `json:"viewportWidth" binding:"required"`
	ViewportHeight int    `json:"viewportHeight" binding:"required"`
	Practice       bool   `json:"practice"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session request"})
		return
	}
	if !utils.ValidParticipantID(req.Participant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant identifier"})
		return
	}
	if req.ViewportWidth < 640 || req.ViewportHeight < 480 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Viewport too small for a four-quadrant layout"})
		return
	}

	sess, err := h.manager.StartSession(req.Participant, req.ViewportWidth, req.ViewportHeight, req.Practice)
	if err != nil {
		h.log.Error("Failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start session"})
		return
	}

	cookie := sessions.Default(c)
	cookie.Set(sessionIDKey, sess.ID)
	if err := cookie.Save(); err != nil {
		h.log.Warn("Failed to persist session cookie", zap.Error(err))
	}

	exp := config.Conf.Experiment
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.ID,
		"overlay":   sess.Sampler.Overlay(),
		"config": gin.H{
			"trialDurationMs": exp.TrialDurationMS,
			"rounds":          sess.Config.Rounds,
			"trialsPerRound":  sess.Config.TrialsPerRound,
		},
	})
}

// statusResponse augments the scheduler snapshot with the terminal run error
// once the scheduler goroutine has exited, so the client can tell a failed
// session (capacity violation) from a cancelled or completed one.
type statusResponse struct {
	session.Status
	Error string `json:"error,omitempty"`
}

func (h *SessionHandler) Status(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	resp := statusResponse{Status: sess.Scheduler.Status()}
	select {
	case <-sess.Done():
		if err := sess.RunErr(); err != nil {
			resp.Error = err.Error()
		}
	default:
	}
	c.JSON(http.StatusOK, resp)
}

type proceedRequest struct {
	Code string `json:"code"`
}

// Proceed releases the round gate after verifying the round's access code.
func (h *SessionHandler) Proceed(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var req proceedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proceed request"})
		return
	}

	err := h.manager.ProceedRound(sess.ID, req.Code)
	switch {
	case errors.Is(err, session.ErrBadAccessCode):
		h.log.Warn("Round gate rejected access code", zap.String("session", sess.ID))
		c.JSON(http.StatusForbidden, gin.H{"error": "Access code rejected"})
	case errors.Is(err, session.ErrNotAwaitingProceed):
		c.JSON(http.StatusConflict, gin.H{"error": "Session is not between rounds"})
	case err != nil:
		h.log.Error("Failed to proceed round", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not proceed"})
	default:
		c.Status(http.StatusOK)
	}
}

// Cancel triggers the emergency exit: sampling stops, the in-flight trial is
// discarded, and everything recorded so far stays exportable.
func (h *SessionHandler) Cancel(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.manager.Cancel(sess.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not cancel session"})
		return
	}

	// Wait briefly for the scheduler to wind down so the caller can export
	// immediately after this returns.
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		h.log.Warn("Scheduler slow to stop after cancel", zap.String("session", sess.ID))
	}
	c.JSON(http.StatusOK, gin.H{"recordedTrials": sess.Store.TrialCount()})
}

// lookup resolves the session from the URL parameter, falling back to the
// cookie, and writes the error response itself on failure.
func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	return lookupSession(c, h.manager)
}

func lookupSession(c *gin.Context, manager *session.Manager) (*session.Session, bool) {
	id := c.Param("id")
	if id == "" {
		cookie := sessions.Default(c)
		id, _ = cookie.Get(sessionIDKey).(string)
	}
	sess, err := manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return sess, true
}
