// Package export produces the downloadable session artifacts: the trial and
// sample CSV tables, the JSON session summary, and the heatmap archive.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// TrialHeader is the fixed column order of the trial-summary table. Image and
// filler trials populate disjoint subsets; unused fields serialize as empty
// strings so every row has the same shape.
var TrialHeader = []string{
	"trial", "round", "round_trial", "trial_type",
	"dysphoric_image", "threat_image", "positive_image", "filler_image",
	"dysphoric_quadrant", "threat_quadrant", "positive_quadrant", "filler_quadrant",
	"filler_1", "filler_2", "filler_3", "filler_4",
	"filler_1_quadrant", "filler_2_quadrant", "filler_3_quadrant", "filler_4_quadrant",
	"started_at", "ended_at", "duration_ms",
	"viewport_width", "viewport_height",
	"sample_count", "avg_x", "avg_y", "distance_px",
	"dwell_top_left_ms", "dwell_top_right_ms", "dwell_bottom_left_ms", "dwell_bottom_right_ms",
	"image_dwell_top_left_ms", "image_dwell_top_right_ms", "image_dwell_bottom_left_ms", "image_dwell_bottom_right_ms",
}

// SampleHeader is the fixed column order of the per-sample table.
var SampleHeader = []string{
	"trial", "round", "round_trial", "trial_type", "sample",
	"x", "y", "timestamp_ms", "time_in_trial_ms", "quadrant", "velocity_pxs",
}

// WriteTrialCSV writes the trial-summary table. encoding/csv quotes fields
// containing commas, so identifiers are safe as-is.
func WriteTrialCSV(w io.Writer, trials []models.TrialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrialHeader); err != nil {
		return fmt.Errorf("failed to write trial header: %w", err)
	}
	for _, t := range trials {
		if err := cw.Write(trialRow(t)); err != nil {
			return fmt.Errorf("failed to write trial %d: %w", t.Trial, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSampleCSV writes the per-sample table.
func WriteSampleCSV(w io.Writer, samples []models.SampleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SampleHeader); err != nil {
		return fmt.Errorf("failed to write sample header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Trial),
			strconv.Itoa(s.Round),
			strconv.Itoa(s.RoundTrial),
			string(s.Type),
			strconv.Itoa(s.Sample),
			ftoa(s.X),
			ftoa(s.Y),
			ftoa(s.Timestamp),
			ftoa(s.TimeInTrial),
			string(s.Quadrant),
			ftoa(s.VelocityPXS),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write sample row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func trialRow(t models.TrialRecord) []string {
	row := []string{
		strconv.Itoa(t.Trial),
		strconv.Itoa(t.Round),
		strconv.Itoa(t.RoundTrial),
		string(t.Type),
	}

	// Image-trial columns.
	for _, cat := range models.Categories {
		row = append(row, t.Images[cat])
	}
	for _, cat := range models.Categories {
		row = append(row, string(t.Quadrants[cat]))
	}

	// Filler-trial columns.
	for i := 0; i < 4; i++ {
		if i < len(t.Fillers) {
			row = append(row, t.Fillers[i])
		} else {
			row = append(row, "")
		}
	}
	for i := 0; i < 4; i++ {
		if i < len(t.FillerQuadrants) {
			row = append(row, string(t.FillerQuadrants[i]))
		} else {
			row = append(row, "")
		}
	}

	row = append(row,
		t.StartedAt.UTC().Format(time.RFC3339Nano),
		t.EndedAt.UTC().Format(time.RFC3339Nano),
		ftoa(t.DurationMS),
		strconv.Itoa(t.ViewportW),
		strconv.Itoa(t.ViewportH),
		strconv.Itoa(t.SampleCount),
		ftoa(t.AvgX),
		ftoa(t.AvgY),
		ftoa(t.DistancePX),
	)
	for _, q := range models.Quadrants {
		row = append(row, ftoa(t.QuadrantDwellMS[q]))
	}
	for _, q := range models.Quadrants {
		row = append(row, ftoa(t.ImageDwellMS[q]))
	}
	return row
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
