// Package display defines the stimulus-presentation collaborator boundary.
package display

import (
	"sync"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// Surface is the display collaborator consumed by the scheduler. BoundsOf
// returns nil when nothing is currently displayed in that quadrant.
type Surface interface {
	Show(spec *models.TrialSpec)
	Hide()
	BoundsOf(q models.Quadrant) *models.Rect
}

// WebSurface is the browser-backed Surface. Show publishes the active trial
// spec for the client to poll; the client reports back the laid-out bounding
// rectangle of each quadrant's image element once rendering settles.
type WebSurface struct {
	mu     sync.Mutex
	spec   *models.TrialSpec
	bounds map[models.Quadrant]models.Rect
}

var _ Surface = (*WebSurface)(nil)

func NewWebSurface() *WebSurface {
	return &WebSurface{}
}

func (w *WebSurface) Show(spec *models.TrialSpec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spec = spec
	// Bounds belong to the previous trial's layout; a stale rectangle must
	// never be attributed to the new stimulus.
	w.bounds = nil
}

func (w *WebSurface) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spec = nil
	w.bounds = nil
}

// Current returns the trial spec the client should be displaying, or nil
// between trials.
func (w *WebSurface) Current() *models.TrialSpec {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spec
}

// ReportBounds stores the client-measured image rectangles for the active
// trial. Reports arriving between trials are ignored.
func (w *WebSurface) ReportBounds(bounds map[models.Quadrant]models.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spec == nil {
		return
	}
	w.bounds = bounds
}

func (w *WebSurface) BoundsOf(q models.Quadrant) *models.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bounds == nil {
		return nil
	}
	if r, ok := w.bounds[q]; ok {
		return &r
	}
	return nil
}
