package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Summary is the JSON session summary document bundled with the tabular
// exports.
type Summary struct {
	SessionID       string    `json:"sessionId"`
	Participant     string    `json:"participant"`
	Practice        bool      `json:"practice"`
	State           string    `json:"state"`
	StartedAt       time.Time `json:"startedAt"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Rounds          int       `json:"rounds"`
	TrialsPerRound  int       `json:"trialsPerRound"`
	TrialDurationMS float64   `json:"trialDurationMs"`
	ViewportW       int       `json:"viewportWidth"`
	ViewportH       int       `json:"viewportHeight"`
	TrialCount      int       `json:"trialCount"`
	SampleCount     int       `json:"sampleCount"`
}

// WriteSessionSummary serializes the summary as indented JSON.
func WriteSessionSummary(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode session summary: %w", err)
	}
	return nil
}
