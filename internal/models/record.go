package models

import "time"

// TrialRecord is the canonical one-row-per-trial summary. Image and filler
// trials populate disjoint field subsets: Images/Quadrants for image trials,
// Fillers/FillerQuadrants for filler trials. The export layer serializes
// unused fields as empty strings so the column set stays uniform.
type TrialRecord struct {
	Trial      int       `json:"trial"`
	Round      int       `json:"round"`
	RoundTrial int       `json:"roundTrial"`
	Type       TrialType `json:"type"`

	// Image trials: one entry per category.
	Images    map[Category]string   `json:"images,omitempty"`
	Quadrants map[Category]Quadrant `json:"quadrants,omitempty"`

	// Filler trials: four fillers in placement order.
	Fillers         []string   `json:"fillers,omitempty"`
	FillerQuadrants []Quadrant `json:"fillerQuadrants,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	DurationMS float64   `json:"durationMs"`

	ViewportW int `json:"viewportWidth"`
	ViewportH int `json:"viewportHeight"`

	SampleCount int     `json:"sampleCount"`
	AvgX        float64 `json:"avgX"`
	AvgY        float64 `json:"avgY"`
	DistancePX  float64 `json:"distancePx"`

	// QuadrantDwellMS accrues inter-sample time to the quadrant holding the
	// cursor; ImageDwellMS accrues a fixed per-sample interval to the image
	// whose bounding rectangle contains the cursor, keyed by that image's
	// quadrant.
	QuadrantDwellMS map[Quadrant]float64 `json:"quadrantDwellMs"`
	ImageDwellMS    map[Quadrant]float64 `json:"imageDwellMs"`
}

// SampleRecord is the canonical one-row-per-sample record, produced in bulk
// from the raw sample stream when a trial ends.
type SampleRecord struct {
	Trial       int       `json:"trial"`
	Round       int       `json:"round"`
	RoundTrial  int       `json:"roundTrial"`
	Type        TrialType `json:"type"`
	Sample      int       `json:"sample"` // index within the trial, 0-based
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Timestamp   float64   `json:"timestamp"`   // absolute, Unix epoch ms
	TimeInTrial float64   `json:"timeInTrial"` // ms since the trial's sampling window opened
	Quadrant    Quadrant  `json:"quadrant"`
	VelocityPXS float64   `json:"velocityPxs"` // px/s from the previous valid sample, 0 for the first
}
