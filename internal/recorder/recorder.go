// Package recorder turns a raw position-sample stream plus its trial context
// into the canonical trial-summary and per-sample records.
package recorder

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/metrics"
	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

var (
	// ErrNoContext means the trial context is missing or unidentified. A
	// record with no provenance is meaningless, so this is a hard error.
	ErrNoContext = errors.New("trial context is missing")
	// ErrNoSpec means no trial spec was supplied.
	ErrNoSpec = errors.New("trial spec is nil")
	// ErrNoStream means the sample stream itself is absent (as opposed to
	// merely empty, which is a valid degraded state).
	ErrNoStream = errors.New("sample stream is nil")
)

// Recorder builds trial records. Deterministic given identical inputs; all
// derived metrics are computed synchronously inside RecordTrial.
type Recorder struct {
	log *zap.Logger

	// sampleIntervalMS approximates the sampler's fixed polling interval and
	// is the unit of per-image dwell accrual.
	sampleIntervalMS float64
}

func New(log *zap.Logger, sampleIntervalMS float64) *Recorder {
	return &Recorder{log: log, sampleIntervalMS: sampleIntervalMS}
}

// RecordTrial converts one trial's sample stream into a TrialRecord and its
// SampleRecords. Malformed individual samples degrade the affected aggregates
// and are logged, never raised; only absent inputs produce an error.
func (r *Recorder) RecordTrial(trialCtx models.TrialContext, spec *models.TrialSpec, samples []models.PositionSample, bounds map[models.Quadrant]models.Rect) (*models.TrialRecord, []models.SampleRecord, error) {
	if trialCtx.Trial <= 0 || trialCtx.Round <= 0 {
		return nil, nil, ErrNoContext
	}
	if spec == nil {
		return nil, nil, ErrNoSpec
	}
	if samples == nil {
		return nil, nil, ErrNoStream
	}

	valid := metrics.FilterValid(samples)
	if dropped := len(samples) - len(valid); dropped > 0 {
		r.log.Warn("Excluding malformed position samples from aggregates",
			zap.Int("trial", trialCtx.Trial),
			zap.Int("dropped", dropped),
			zap.Int("total", len(samples)))
	}
	for _, q := range models.Quadrants {
		if _, ok := bounds[q]; !ok {
			r.log.Warn("Display bounds unavailable, image dwell reported as zero",
				zap.Int("trial", trialCtx.Trial),
				zap.String("quadrant", string(q)))
		}
	}

	record := &models.TrialRecord{
		Trial:      trialCtx.Trial,
		Round:      trialCtx.Round,
		RoundTrial: trialCtx.RoundTrial,
		Type:       spec.Type,
		StartedAt:  trialCtx.StartedAt,
		EndedAt:    trialCtx.EndedAt,
		DurationMS: float64(trialCtx.EndedAt.Sub(trialCtx.StartedAt).Milliseconds()),
		ViewportW:  trialCtx.ViewportW,
		ViewportH:  trialCtx.ViewportH,
	}

	switch spec.Type {
	case models.TrialImage:
		record.Images = make(map[models.Category]string, len(spec.Placements))
		record.Quadrants = make(map[models.Category]models.Quadrant, len(spec.Placements))
		for _, p := range spec.Placements {
			record.Images[p.Category] = p.ImageID
			record.Quadrants[p.Category] = p.Quadrant
		}
	case models.TrialFiller:
		for _, p := range spec.Placements {
			record.Fillers = append(record.Fillers, p.ImageID)
			record.FillerQuadrants = append(record.FillerQuadrants, p.Quadrant)
		}
	}

	record.SampleCount = len(valid)
	avgX, avgY, _ := metrics.AveragePosition(samples)
	record.AvgX = avgX
	record.AvgY = avgY
	record.DistancePX = metrics.MovementDistance(samples).Value
	record.QuadrantDwellMS = metrics.QuadrantDwell(samples, trialCtx.ViewportW, trialCtx.ViewportH)
	record.ImageDwellMS = metrics.ImageDwell(samples, bounds, r.sampleIntervalMS)

	return record, r.sampleRecords(trialCtx, spec, samples), nil
}

// sampleRecords flattens the raw stream. Every sample is retained, malformed
// ones included, so the raw table is a faithful transcript of what the
// sampler delivered.
func (r *Recorder) sampleRecords(trialCtx models.TrialContext, spec *models.TrialSpec, samples []models.PositionSample) []models.SampleRecord {
	cx := float64(trialCtx.ViewportW) / 2
	cy := float64(trialCtx.ViewportH) / 2
	startMS := float64(trialCtx.StartedAt.UnixMilli())

	records := make([]models.SampleRecord, 0, len(samples))
	var prev *models.PositionSample
	for i, s := range samples {
		rec := models.SampleRecord{
			Trial:       trialCtx.Trial,
			Round:       trialCtx.Round,
			RoundTrial:  trialCtx.RoundTrial,
			Type:        spec.Type,
			Sample:      i,
			X:           s.X,
			Y:           s.Y,
			Timestamp:   startMS + s.Timestamp,
			TimeInTrial: s.Timestamp,
			Quadrant:    models.QuadrantAt(s.X, s.Y, cx, cy),
		}
		if prev != nil {
			rec.VelocityPXS = metrics.Velocity(*prev, s)
		}
		if metrics.Valid(s) {
			tmp := s
			prev = &tmp
		}
		records = append(records, rec)
	}
	return records
}
