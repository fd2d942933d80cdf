// Package sampler defines the position-tracking collaborator boundary. The
// core never talks to the spotlight overlay widget directly; it drives
// whatever implements PositionSampler through configure/start/stop and drains
// the collected samples between trials.
package sampler

import "github.com/nus-cts-lab/free-viewing-sky/internal/models"

// Options configures the spotlight overlay for a sampling window.
type Options struct {
	// OcclusionRadiusPct is the aperture radius as a percentage of the
	// shorter viewport dimension.
	OcclusionRadiusPct float64 `json:"occlusionRadiusPct"`
	OverlayOpacity     float64 `json:"overlayOpacity"`
	OverlayColor       string  `json:"overlayColor"`
	EdgeSoftnessPct    float64 `json:"edgeSoftnessPct"`
}

// PositionSampler streams timestamped cursor positions while active. The
// contract is strict: Configure then Start before the stimulus is shown, Stop
// immediately after the viewing window elapses, Samples drained and Clear
// called before the next Start. Only one sampling window may ever be active.
type PositionSampler interface {
	Configure(opts Options)
	Start()
	Stop()
	// Samples returns everything collected since the last Clear.
	Samples() []models.PositionSample
	Clear()
}
