package sampler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// WebSampler is the browser-backed PositionSampler. The client runs the
// spotlight overlay widget and pushes batches of cursor samples over a
// websocket; samples arriving outside an active window are dropped so a
// previous trial's stragglers can never contaminate the next trial.
type WebSampler struct {
	log *zap.Logger

	mu         sync.Mutex
	opts       Options
	active     bool
	buf        []models.PositionSample
	viewportW  float64
	viewportH  float64
	lastActive time.Time
}

var _ PositionSampler = (*WebSampler)(nil)

func NewWebSampler(log *zap.Logger) *WebSampler {
	return &WebSampler{log: log}
}

// SetViewport records the client's viewport dimensions, used to clamp
// incoming coordinates.
func (w *WebSampler) SetViewport(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewportW = float64(width)
	w.viewportH = float64(height)
}

func (w *WebSampler) Configure(opts Options) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts = opts
}

// Overlay returns the currently configured spotlight options, served to the
// client so the widget can mirror the server-side configuration.
func (w *WebSampler) Overlay() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

func (w *WebSampler) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = true
	w.lastActive = time.Now()
}

func (w *WebSampler) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = false
}

func (w *WebSampler) Samples() []models.PositionSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.PositionSample, len(w.buf))
	copy(out, w.buf)
	return out
}

func (w *WebSampler) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = w.buf[:0]
}

// LastActivity is the last time a sampling window was open or a sample
// arrived. The session janitor uses it to expire abandoned sessions.
func (w *WebSampler) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// ingest appends a batch of client samples, clamping coordinates to the
// viewport. Batches arriving while no window is active are discarded.
func (w *WebSampler) ingest(batch []models.PositionSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = time.Now()
	if !w.active {
		return
	}
	for _, s := range batch {
		s.X = clamp(s.X, 0, w.viewportW)
		s.Y = clamp(s.Y, 0, w.viewportH)
		w.buf = append(w.buf, s)
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi <= lo {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ReadLoop consumes sample batches from a websocket connection until the
// client disconnects. Runs on the connection's goroutine; WebSampler's own
// locking makes ingestion safe against the scheduler draining concurrently.
func (w *WebSampler) ReadLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var batch []models.PositionSample
		if err := conn.ReadJSON(&batch); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Warn("Sample stream closed unexpectedly", zap.Error(err))
			}
			return
		}
		w.ingest(batch)
	}
}
