package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/config"
	"github.com/nus-cts-lab/free-viewing-sky/internal/export"
	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
)

// ExportHandler serves the downloadable artifacts: trial and sample CSV
// tables, the JSON session summary, and the heatmap archive. Exports are
// best-effort views of whatever the store holds, so they work both after a
// full run and after an emergency cancel.
type ExportHandler struct {
	log     *zap.Logger
	manager *session.Manager
}

func NewExportHandler(log *zap.Logger, manager *session.Manager) *ExportHandler {
	return &ExportHandler{log: log, manager: manager}
}

func (h *ExportHandler) TrialsCSV(c *gin.Context) {
	sess, ok := h.exportable(c)
	if !ok {
		return
	}
	h.attachment(c, "text/csv", fmt.Sprintf("trials-%s.csv", sess.Participant))
	if err := export.WriteTrialCSV(c.Writer, sess.Store.Trials()); err != nil {
		h.log.Error("Failed to write trial CSV", zap.Error(err))
	}
}

func (h *ExportHandler) SamplesCSV(c *gin.Context) {
	sess, ok := h.exportable(c)
	if !ok {
		return
	}
	h.attachment(c, "text/csv", fmt.Sprintf("samples-%s.csv", sess.Participant))
	if err := export.WriteSampleCSV(c.Writer, sess.Store.Samples()); err != nil {
		h.log.Error("Failed to write sample CSV", zap.Error(err))
	}
}

func (h *ExportHandler) SummaryJSON(c *gin.Context) {
	sess, ok := h.exportable(c)
	if !ok {
		return
	}
	status := sess.Scheduler.Status()
	summary := export.Summary{
		SessionID:       sess.ID,
		Participant:     sess.Participant,
		Practice:        sess.Practice,
		State:           string(status.State),
		StartedAt:       status.StartedAt,
		GeneratedAt:     time.Now().UTC(),
		Rounds:          sess.Config.Rounds,
		TrialsPerRound:  sess.Config.TrialsPerRound,
		TrialDurationMS: float64(sess.Config.TrialDuration.Milliseconds()),
		ViewportW:       sess.Config.ViewportW,
		ViewportH:       sess.Config.ViewportH,
		TrialCount:      sess.Store.TrialCount(),
		SampleCount:     sess.Store.SampleCount(),
	}

	h.attachment(c, "application/json", fmt.Sprintf("summary-%s.json", sess.Participant))
	if err := export.WriteSessionSummary(c.Writer, summary); err != nil {
		h.log.Error("Failed to write session summary", zap.Error(err))
	}
}

func (h *ExportHandler) HeatmapArchive(c *gin.Context) {
	sess, ok := h.exportable(c)
	if !ok {
		return
	}
	archiver := export.NewArchiver(h.log, sess.Store.TrialSamples, sess.Store.Capture,
		config.Conf.Experiment.HeatmapRadiusPX)

	h.attachment(c, "application/zip", fmt.Sprintf("heatmaps-%s.zip", sess.Participant))
	if err := archiver.Write(c.Writer, sess.Store.Trials()); err != nil {
		h.log.Error("Failed to write heatmap archive", zap.Error(err))
	}
}

// exportable resolves the session and refuses practice runs, whose data is
// deliberately discarded.
func (h *ExportHandler) exportable(c *gin.Context) (*session.Session, bool) {
	sess, ok := lookupSession(c, h.manager)
	if !ok {
		return nil, false
	}
	if sess.Practice {
		c.JSON(http.StatusConflict, gin.H{"error": "Practice sessions are not exportable"})
		return nil, false
	}
	return sess, true
}

func (h *ExportHandler) attachment(c *gin.Context, contentType, name string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
}
