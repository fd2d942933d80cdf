package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

func imageTrial() models.TrialRecord {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return models.TrialRecord{
		Trial: 1, Round: 1, RoundTrial: 1, Type: models.TrialImage,
		Images: map[models.Category]string{
			models.CategoryDysphoric: "dys_01",
			models.CategoryThreat:    "thr_01",
			models.CategoryPositive:  "pos_01",
			models.CategoryFiller:    "fil_01",
		},
		Quadrants: map[models.Category]models.Quadrant{
			models.CategoryDysphoric: models.QuadrantTopLeft,
			models.CategoryThreat:    models.QuadrantTopRight,
			models.CategoryPositive:  models.QuadrantBottomLeft,
			models.CategoryFiller:    models.QuadrantBottomRight,
		},
		StartedAt: start, EndedAt: start.Add(15 * time.Second),
		DurationMS: 15000, ViewportW: 1024, ViewportH: 768,
		SampleCount: 900, AvgX: 512.5, AvgY: 384.25, DistancePX: 1234.5,
		QuadrantDwellMS: map[models.Quadrant]float64{
			models.QuadrantTopLeft: 7500, models.QuadrantTopRight: 7500,
		},
		ImageDwellMS: map[models.Quadrant]float64{
			models.QuadrantTopLeft: 3000,
		},
	}
}

func fillerTrial() models.TrialRecord {
	return models.TrialRecord{
		Trial: 2, Round: 1, RoundTrial: 2, Type: models.TrialFiller,
		Fillers: []string{"fil_02", "fil_03", "fil_04", "fil_05"},
		FillerQuadrants: []models.Quadrant{
			models.QuadrantTopLeft, models.QuadrantTopRight,
			models.QuadrantBottomLeft, models.QuadrantBottomRight,
		},
		ViewportW: 1024, ViewportH: 768,
	}
}

func column(t *testing.T, header, row []string, name string) string {
	t.Helper()
	for i, h := range header {
		if h == name {
			return row[i]
		}
	}
	t.Fatalf("column %q missing from header", name)
	return ""
}

func TestWriteTrialCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrialCSV(&buf, []models.TrialRecord{imageTrial(), fillerTrial()}); err != nil {
		t.Fatalf("WriteTrialCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want header + 2 trials", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(TrialHeader, ",") {
		t.Errorf("header row = %v", rows[0])
	}
	for i, row := range rows[1:] {
		if len(row) != len(TrialHeader) {
			t.Errorf("row %d has %d fields, header has %d", i, len(row), len(TrialHeader))
		}
	}
}

func TestTrialRowImageAndFillerFieldsAreDisjoint(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrialCSV(&buf, []models.TrialRecord{imageTrial(), fillerTrial()}); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	header, image, filler := rows[0], rows[1], rows[2]

	if got := column(t, header, image, "threat_image"); got != "thr_01" {
		t.Errorf("image trial threat_image = %q", got)
	}
	if got := column(t, header, image, "dysphoric_quadrant"); got != "top_left" {
		t.Errorf("image trial dysphoric_quadrant = %q", got)
	}
	if got := column(t, header, image, "filler_1"); got != "" {
		t.Errorf("image trial filler_1 = %q, want empty", got)
	}

	if got := column(t, header, filler, "filler_3"); got != "fil_04" {
		t.Errorf("filler trial filler_3 = %q", got)
	}
	if got := column(t, header, filler, "filler_4_quadrant"); got != "bottom_right" {
		t.Errorf("filler trial filler_4_quadrant = %q", got)
	}
	if got := column(t, header, filler, "dysphoric_image"); got != "" {
		t.Errorf("filler trial dysphoric_image = %q, want empty", got)
	}
}

func TestTrialRowMetricsAndTimestamps(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrialCSV(&buf, []models.TrialRecord{imageTrial()}); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	header, row := rows[0], rows[1]

	if got := column(t, header, row, "started_at"); got != "2025-06-01T10:00:00Z" {
		t.Errorf("started_at = %q", got)
	}
	if got := column(t, header, row, "avg_y"); got != "384.25" {
		t.Errorf("avg_y = %q", got)
	}
	if got := column(t, header, row, "dwell_top_right_ms"); got != "7500" {
		t.Errorf("dwell_top_right_ms = %q", got)
	}
	// Absent map entries serialize as plain zero, not empty.
	if got := column(t, header, row, "image_dwell_bottom_left_ms"); got != "0" {
		t.Errorf("image_dwell_bottom_left_ms = %q", got)
	}
}

func TestWriteSampleCSV(t *testing.T) {
	samples := []models.SampleRecord{
		{
			Trial: 1, Round: 1, RoundTrial: 1, Type: models.TrialImage, Sample: 0,
			X: 100.5, Y: 200, Timestamp: 1748772000000, TimeInTrial: 0,
			Quadrant: models.QuadrantTopLeft, VelocityPXS: 0,
		},
		{
			Trial: 1, Round: 1, RoundTrial: 1, Type: models.TrialImage, Sample: 1,
			X: 130.5, Y: 240, Timestamp: 1748772000017, TimeInTrial: 16.67,
			Quadrant: models.QuadrantTopLeft, VelocityPXS: 2998.8,
		},
	}

	var buf bytes.Buffer
	if err := WriteSampleCSV(&buf, samples); err != nil {
		t.Fatalf("WriteSampleCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want header + 2 samples", len(rows))
	}
	header := rows[0]
	if strings.Join(header, ",") != strings.Join(SampleHeader, ",") {
		t.Errorf("header row = %v", header)
	}
	if got := column(t, header, rows[2], "time_in_trial_ms"); got != "16.67" {
		t.Errorf("time_in_trial_ms = %q", got)
	}
	if got := column(t, header, rows[2], "quadrant"); got != "top_left" {
		t.Errorf("quadrant = %q", got)
	}
	if got := column(t, header, rows[1], "velocity_pxs"); got != "0" {
		t.Errorf("first-sample velocity = %q, want 0", got)
	}
}
