package metrics

import (
	"math"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// MaxGapMS is the largest inter-sample delta that still counts toward dwell
// accrual. Anything larger indicates a tracking gap (tab switch, stalled
// sampler) and is excluded, though the samples themselves are retained.
const MaxGapMS = 5000.0

// MetricResult reports a derived value together with whether enough valid
// data existed to compute it.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// Valid reports whether a sample has finite coordinates and a finite,
// non-negative timestamp. Malformed samples are excluded from every
// aggregate but still appear in the raw sample output.
func Valid(s models.PositionSample) bool {
	if math.IsNaN(s.X) || math.IsInf(s.X, 0) {
		return false
	}
	if math.IsNaN(s.Y) || math.IsInf(s.Y, 0) {
		return false
	}
	if math.IsNaN(s.Timestamp) || math.IsInf(s.Timestamp, 0) || s.Timestamp < 0 {
		return false
	}
	return true
}

// FilterValid returns only the samples with usable coordinates and timestamps.
func FilterValid(samples []models.PositionSample) []models.PositionSample {
	valid := make([]models.PositionSample, 0, len(samples))
	for _, s := range samples {
		if Valid(s) {
			valid = append(valid, s)
		}
	}
	return valid
}

// QuadrantDwell accrues, for each consecutive pair of valid samples, the
// elapsed time between them to the quadrant containing the first sample. The
// quadrant boundary is the geometric screen center; samples exactly on a
// center line belong to the left/top quadrant. Negative deltas and deltas
// beyond MaxGapMS are skipped.
func QuadrantDwell(samples []models.PositionSample, viewportW, viewportH int) map[models.Quadrant]float64 {
	dwell := make(map[models.Quadrant]float64, 4)
	for _, q := range models.Quadrants {
		dwell[q] = 0
	}

	valid := FilterValid(samples)
	if len(valid) < 2 {
		return dwell
	}

	cx := float64(viewportW) / 2
	cy := float64(viewportH) / 2

	for i := 1; i < len(valid); i++ {
		dt := valid[i].Timestamp - valid[i-1].Timestamp
		if dt < 0 || dt > MaxGapMS {
			continue
		}
		q := models.QuadrantAt(valid[i-1].X, valid[i-1].Y, cx, cy)
		dwell[q] += dt
	}
	return dwell
}

// ImageDwell accrues a fixed per-sample interval to the image whose bounding
// rectangle contains each valid sample, keyed by that image's quadrant. At
// most one rectangle can contain a point since the layout keeps them
// disjoint; samples outside every rectangle contribute nothing. A quadrant
// with no reported bounds stays at zero.
func ImageDwell(samples []models.PositionSample, bounds map[models.Quadrant]models.Rect, sampleIntervalMS float64) map[models.Quadrant]float64 {
	dwell := make(map[models.Quadrant]float64, 4)
	for _, q := range models.Quadrants {
		dwell[q] = 0
	}

	if len(bounds) == 0 || sampleIntervalMS <= 0 {
		return dwell
	}

	for _, s := range FilterValid(samples) {
		for q, r := range bounds {
			if r.Contains(s.X, s.Y) {
				dwell[q] += sampleIntervalMS
				break
			}
		}
	}
	return dwell
}
