package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// TrialArtifact describes one trial's entries in the heatmap archive
// metadata. Skipped trials keep their row so gaps are visible.
type TrialArtifact struct {
	Trial       int     `json:"trial"`
	Round       int     `json:"round"`
	GradientPNG string  `json:"gradientPng,omitempty"`
	ChartHTML   string  `json:"chartHtml,omitempty"`
	SampleCount int     `json:"sampleCount"`
	DurationMS  float64 `json:"durationMs"`
	Skipped     bool    `json:"skipped"`
	Reason      string  `json:"reason,omitempty"`
}

// ArchiveMetadata is the summary document packaged with the heatmaps.
type ArchiveMetadata struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	TrialCount  int             `json:"trialCount"`
	Skipped     int             `json:"skipped"`
	Trials      []TrialArtifact `json:"trials"`
}

// Archiver packages per-trial heatmaps into a single zip: one directory per
// round, two sub-styles (gradient PNG and echarts HTML) per trial, plus a
// metadata document. A single trial's render failure records a skip and never
// aborts the rest of the archive.
type Archiver struct {
	log *zap.Logger

	// SamplesOf returns the samples of one global trial index; CaptureOf
	// returns the spotlight widget's own captured bitmap for the trial, or
	// nil when none was uploaded (the gradient renderer is the fallback).
	SamplesOf func(trial int) []models.SampleRecord
	CaptureOf func(trial int) []byte

	RadiusPX float64
}

func NewArchiver(log *zap.Logger, samplesOf func(int) []models.SampleRecord, captureOf func(int) []byte, radiusPX float64) *Archiver {
	return &Archiver{log: log, SamplesOf: samplesOf, CaptureOf: captureOf, RadiusPX: radiusPX}
}

// Write builds the archive for the given trials.
func (a *Archiver) Write(w io.Writer, trials []models.TrialRecord) error {
	zw := zip.NewWriter(w)
	meta := ArchiveMetadata{GeneratedAt: time.Now().UTC()}

	for _, t := range trials {
		artifact := a.writeTrial(zw, t)
		if artifact.Skipped {
			meta.Skipped++
		}
		meta.Trials = append(meta.Trials, artifact)
	}
	meta.TrialCount = len(meta.Trials)

	mw, err := zw.Create("metadata.json")
	if err != nil {
		return fmt.Errorf("failed to create archive metadata entry: %w", err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("failed to encode archive metadata: %w", err)
	}

	return zw.Close()
}

func (a *Archiver) writeTrial(zw *zip.Writer, t models.TrialRecord) TrialArtifact {
	samples := a.SamplesOf(t.Trial)
	artifact := TrialArtifact{
		Trial:       t.Trial,
		Round:       t.Round,
		SampleCount: len(samples),
		DurationMS:  t.DurationMS,
	}

	gradientName := fmt.Sprintf("round-%d/gradient/trial-%02d.png", t.Round, t.RoundTrial)
	chartName := fmt.Sprintf("round-%d/chart/trial-%02d.html", t.Round, t.RoundTrial)

	var gradient bytes.Buffer
	if capture := a.CaptureOf(t.Trial); len(capture) > 0 {
		gradient.Write(capture)
	} else if err := RenderGradient(&gradient, samples, t.ViewportW, t.ViewportH, a.RadiusPX); err != nil {
		a.log.Warn("Skipping heatmap for trial",
			zap.Int("trial", t.Trial),
			zap.Error(err))
		artifact.Skipped = true
		artifact.Reason = err.Error()
		return artifact
	}
	if err := writeEntry(zw, gradientName, gradient.Bytes()); err != nil {
		a.log.Warn("Failed to write gradient entry", zap.Int("trial", t.Trial), zap.Error(err))
		artifact.Skipped = true
		artifact.Reason = err.Error()
		return artifact
	}
	artifact.GradientPNG = gradientName

	var chart bytes.Buffer
	if err := RenderChart(&chart, t, samples); err != nil {
		// The gradient made it in; record a partial skip but keep going.
		a.log.Warn("Skipping chart sub-style for trial",
			zap.Int("trial", t.Trial),
			zap.Error(err))
		artifact.Reason = err.Error()
		return artifact
	}
	if err := writeEntry(zw, chartName, chart.Bytes()); err != nil {
		a.log.Warn("Failed to write chart entry", zap.Int("trial", t.Trial), zap.Error(err))
		artifact.Reason = err.Error()
		return artifact
	}
	artifact.ChartHTML = chartName

	return artifact
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
