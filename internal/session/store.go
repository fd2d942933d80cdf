package session

import (
	"sync"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// Store is the append-only in-memory record store for one session. Trial
// indices are assigned by the scheduler and never recomputed here. The export
// handlers read concurrently with the scheduler's writes, so every read view
// is a copy taken under the lock.
type Store struct {
	mu       sync.RWMutex
	trials   []models.TrialRecord
	samples  []models.SampleRecord
	captures map[int][]byte
}

func NewStore() *Store {
	return &Store{captures: make(map[int][]byte)}
}

func (s *Store) AppendTrial(t models.TrialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trials = append(s.trials, t)
}

func (s *Store) AppendSamples(records []models.SampleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, records...)
}

// Trials returns a snapshot of every trial record in append order.
func (s *Store) Trials() []models.TrialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TrialRecord, len(s.trials))
	copy(out, s.trials)
	return out
}

// Samples returns a snapshot of every sample record in append order.
func (s *Store) Samples() []models.SampleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SampleRecord, len(s.samples))
	copy(out, s.samples)
	return out
}

// TrialSamples returns the samples belonging to one global trial index. A
// linear scan is fine at this scale (60 trials, ~900 samples each).
func (s *Store) TrialSamples(trial int) []models.SampleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SampleRecord
	for _, r := range s.samples {
		if r.Trial == trial {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) TrialCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trials)
}

// SetCapture stores the spotlight widget's own rendered bitmap for a trial,
// uploaded by the client. The exporter prefers it over the fallback gradient.
func (s *Store) SetCapture(trial int, png []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.captures[trial]; exists {
		return // append-only, first upload wins
	}
	s.captures[trial] = png
}

// Capture returns the uploaded bitmap for a trial, or nil.
func (s *Store) Capture(trial int) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captures[trial]
}

func (s *Store) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}
