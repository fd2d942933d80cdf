package recorder

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

func testContext() models.TrialContext {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return models.TrialContext{
		Trial:      7,
		Round:      1,
		RoundTrial: 7,
		StartedAt:  start,
		EndedAt:    start.Add(15 * time.Second),
		ViewportW:  1024,
		ViewportH:  768,
	}
}

func imageSpec() *models.TrialSpec {
	return &models.TrialSpec{
		Type: models.TrialImage,
		Placements: []models.Placement{
			{Category: models.CategoryDysphoric, ImageID: "dys_01", Quadrant: models.QuadrantTopLeft},
			{Category: models.CategoryThreat, ImageID: "thr_01", Quadrant: models.QuadrantTopRight},
			{Category: models.CategoryPositive, ImageID: "pos_01", Quadrant: models.QuadrantBottomLeft},
			{Category: models.CategoryFiller, ImageID: "fil_01", Quadrant: models.QuadrantBottomRight},
		},
	}
}

func TestRecordTrialRejectsAbsentInputs(t *testing.T) {
	rec := New(zap.NewNop(), 16.67)

	if _, _, err := rec.RecordTrial(models.TrialContext{}, imageSpec(), []models.PositionSample{}, nil); !errors.Is(err, ErrNoContext) {
		t.Errorf("empty context: got %v, want ErrNoContext", err)
	}
	if _, _, err := rec.RecordTrial(testContext(), nil, []models.PositionSample{}, nil); !errors.Is(err, ErrNoSpec) {
		t.Errorf("nil spec: got %v, want ErrNoSpec", err)
	}
	if _, _, err := rec.RecordTrial(testContext(), imageSpec(), nil, nil); !errors.Is(err, ErrNoStream) {
		t.Errorf("nil stream: got %v, want ErrNoStream", err)
	}
}

func TestRecordTrialEmptyStreamIsDegradedNotFatal(t *testing.T) {
	rec := New(zap.NewNop(), 16.67)

	record, samples, err := rec.RecordTrial(testContext(), imageSpec(), []models.PositionSample{}, nil)
	if err != nil {
		t.Fatalf("empty (non-nil) stream should record: %v", err)
	}
	if record.SampleCount != 0 || len(samples) != 0 {
		t.Errorf("expected zero samples, got count=%d rows=%d", record.SampleCount, len(samples))
	}
	if record.DurationMS != 15000 {
		t.Errorf("duration = %f, want 15000", record.DurationMS)
	}
}

func TestRecordTrialImageFields(t *testing.T) {
	rec := New(zap.NewNop(), 16.67)

	record, _, err := rec.RecordTrial(testContext(), imageSpec(), []models.PositionSample{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if record.Type != models.TrialImage {
		t.Errorf("type = %s", record.Type)
	}
	if record.Images[models.CategoryThreat] != "thr_01" {
		t.Errorf("threat image = %q", record.Images[models.CategoryThreat])
	}
	if record.Quadrants[models.CategoryPositive] != models.QuadrantBottomLeft {
		t.Errorf("positive quadrant = %q", record.Quadrants[models.CategoryPositive])
	}
	if len(record.Fillers) != 0 {
		t.Error("image trial populated filler fields")
	}
}

func TestRecordTrialFillerFields(t *testing.T) {
	rec := New(zap.NewNop(), 16.67)
	spec := &models.TrialSpec{
		Type: models.TrialFiller,
		Placements: []models.Placement{
			{Category: models.CategoryFiller, ImageID: "fil_01", Quadrant: models.QuadrantTopLeft},
			{Category: models.CategoryFiller, ImageID: "fil_02", Quadrant: models.QuadrantTopRight},
			{Category: models.CategoryFiller, ImageID: "fil_03", Quadrant: models.QuadrantBottomLeft},
			{Category: models.CategoryFiller, ImageID: "fil_04", Quadrant: models.QuadrantBottomRight},
		},
	}

	record, _, err := rec.RecordTrial(testContext(), spec, []models.PositionSample{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(record.Fillers) != 4 || len(record.FillerQuadrants) != 4 {
		t.Fatalf("filler fields = %v / %v", record.Fillers, record.FillerQuadrants)
	}
	if len(record.Images) != 0 {
		t.Error("filler trial populated image-trial fields")
	}
}

func TestRecordTrialDerivedMetricsAndSampleRows(t *testing.T) {
	rec := New(zap.NewNop(), 16.67)
	bounds := map[models.Quadrant]models.Rect{
		models.QuadrantTopLeft: {X: 0, Y: 0, Width: 300, Height: 300},
	}
	samples := []models.PositionSample{
		{X: 100, Y: 100, Timestamp: 0},
		{X: 130, Y: 140, Timestamp: 100}, // 50 px moved
		{X: math.NaN(), Y: 0, Timestamp: 150},
		{X: 130, Y: 140, Timestamp: 200},
	}

	record, rows, err := rec.RecordTrial(testContext(), imageSpec(), samples, bounds)
	if err != nil {
		t.Fatal(err)
	}

	if record.SampleCount != 3 {
		t.Errorf("sample count = %d, want 3 (malformed excluded)", record.SampleCount)
	}
	if len(rows) != 4 {
		t.Errorf("sample rows = %d, want 4 (raw stream retained)", len(rows))
	}
	if math.Abs(record.DistancePX-50) > 0.001 {
		t.Errorf("distance = %f, want 50", record.DistancePX)
	}
	if got := record.ImageDwellMS[models.QuadrantTopLeft]; math.Abs(got-3*16.67) > 0.001 {
		t.Errorf("image dwell = %f, want %f", got, 3*16.67)
	}

	// Velocity: 50 px over 100 ms = 500 px/s on the second row.
	if math.Abs(rows[1].VelocityPXS-500) > 0.001 {
		t.Errorf("row velocity = %f, want 500", rows[1].VelocityPXS)
	}
	if rows[0].VelocityPXS != 0 {
		t.Errorf("first row velocity = %f, want 0", rows[0].VelocityPXS)
	}
	// Row 3 pairs with the last valid sample (row 1), not the malformed row 2.
	if rows[3].VelocityPXS != 0 {
		t.Errorf("stationary row velocity = %f, want 0", rows[3].VelocityPXS)
	}

	if rows[2].Trial != 7 || rows[2].Round != 1 || rows[2].Sample != 2 {
		t.Errorf("row indices wrong: %+v", rows[2])
	}
	wantTS := float64(testContext().StartedAt.UnixMilli()) + 100
	if rows[1].Timestamp != wantTS {
		t.Errorf("absolute timestamp = %f, want %f", rows[1].Timestamp, wantTS)
	}
	if rows[1].TimeInTrial != 100 {
		t.Errorf("time in trial = %f, want 100", rows[1].TimeInTrial)
	}
	if rows[0].Quadrant != models.QuadrantTopLeft {
		t.Errorf("row quadrant = %s", rows[0].Quadrant)
	}
}
