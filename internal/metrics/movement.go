package metrics

import (
	"math"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// MovementDistance sums the Euclidean distances between consecutive valid
// samples. Pairs separated by a tracking gap are skipped so a frozen cursor
// that jumps across the screen after a stall does not inflate the total.
func MovementDistance(samples []models.PositionSample) MetricResult {
	valid := FilterValid(samples)
	if len(valid) < 2 {
		return MetricResult{Value: 0, Calculated: false, SampleSize: len(valid)}
	}

	total := 0.0
	pairs := 0
	for i := 1; i < len(valid); i++ {
		dt := valid[i].Timestamp - valid[i-1].Timestamp
		if dt < 0 || dt > MaxGapMS {
			continue
		}
		dx := valid[i].X - valid[i-1].X
		dy := valid[i].Y - valid[i-1].Y
		total += math.Sqrt(dx*dx + dy*dy)
		pairs++
	}

	if pairs == 0 {
		return MetricResult{Value: 0, Calculated: false, SampleSize: 0}
	}
	return MetricResult{Value: total, Calculated: true, SampleSize: pairs}
}

// AveragePosition returns the mean x/y over valid samples.
func AveragePosition(samples []models.PositionSample) (avgX, avgY float64, result MetricResult) {
	valid := FilterValid(samples)
	if len(valid) == 0 {
		return 0, 0, MetricResult{Value: 0, Calculated: false, SampleSize: 0}
	}

	var sumX, sumY float64
	for _, s := range valid {
		sumX += s.X
		sumY += s.Y
	}
	n := float64(len(valid))
	return sumX / n, sumY / n, MetricResult{Calculated: true, SampleSize: len(valid)}
}

// Velocity computes the instantaneous velocity in px/s between two samples.
// Returns 0 for non-positive or gap-sized deltas and for malformed input.
func Velocity(prev, curr models.PositionSample) float64 {
	if !Valid(prev) || !Valid(curr) {
		return 0
	}
	dt := curr.Timestamp - prev.Timestamp
	if dt <= 0 || dt > MaxGapMS {
		return 0
	}
	dx := curr.X - prev.X
	dy := curr.Y - prev.Y
	return math.Sqrt(dx*dx+dy*dy) / (dt / 1000)
}
