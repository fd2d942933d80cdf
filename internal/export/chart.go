package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// Grid resolution of the chart-style heatmap. Coarse on purpose: the chart is
// a quick-look companion to the gradient render, not the analysis artifact.
const (
	chartCols = 32
	chartRows = 18
)

// RenderChart writes the second heatmap sub-style: an interactive echarts
// heatmap HTML page binning the trial's samples onto a fixed grid.
func RenderChart(w io.Writer, trial models.TrialRecord, samples []models.SampleRecord) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	if trial.ViewportW <= 0 || trial.ViewportH <= 0 {
		return fmt.Errorf("trial %d has no viewport dimensions", trial.Trial)
	}

	counts := make(map[[2]int]int)
	maxCount := 0
	for _, s := range samples {
		col := int(s.X / float64(trial.ViewportW) * chartCols)
		row := int(s.Y / float64(trial.ViewportH) * chartRows)
		if col < 0 || col >= chartCols || row < 0 || row >= chartRows {
			continue
		}
		key := [2]int{col, row}
		counts[key]++
		if counts[key] > maxCount {
			maxCount = counts[key]
		}
	}
	if maxCount == 0 {
		return ErrNoSamples
	}

	xLabels := make([]string, chartCols)
	for i := range xLabels {
		xLabels[i] = strconv.Itoa(i)
	}
	yLabels := make([]string, chartRows)
	for i := range yLabels {
		// Invert so row 0 (screen top) appears at the top of the chart.
		yLabels[i] = strconv.Itoa(chartRows - 1 - i)
	}

	data := make([]opts.HeatMapData, 0, len(counts))
	for key, count := range counts {
		data = append(data, opts.HeatMapData{
			Value: [3]interface{}{key[0], chartRows - 1 - key[1], count},
		})
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Trial %d gaze density", trial.Trial),
			Subtitle: fmt.Sprintf("round %d, %s trial, %d samples", trial.Round, trial.Type, len(samples)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      xLabels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      yLabels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#50a3ba", "#eac736", "#d94e5d"},
			},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	hm.AddSeries("samples", data)

	return hm.Render(w)
}
