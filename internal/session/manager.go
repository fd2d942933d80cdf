package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBadAccessCode   = errors.New("round access code rejected")
)

// Manager creates and tracks live sessions. Each session gets its own freshly
// seeded RNG so shuffles are independent across participants.
type Manager struct {
	log     *zap.Logger
	catalog *models.StimulusCatalog
	base    Config

	// roundCodes maps a round number to the bcrypt hash of its access code.
	// Rounds without a configured hash proceed on a bare signal.
	roundCodes map[int]string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(log *zap.Logger, catalog *models.StimulusCatalog, base Config, roundCodes map[int]string) *Manager {
	return &Manager{
		log:        log,
		catalog:    catalog,
		base:       base,
		roundCodes: roundCodes,
		sessions:   make(map[string]*Session),
	}
}

// StartSession builds a session for one participant and launches its
// scheduler. The session runs on a background context so it outlives the
// originating request; cancellation is explicit via Cancel. Practice sessions
// run a shortened one-round pattern and are excluded from export.
func (m *Manager) StartSession(participant string, viewportW, viewportH int, practice bool) (*Session, error) {
	cfg := m.base
	cfg.ViewportW = viewportW
	cfg.ViewportH = viewportH
	if practice {
		cfg.Rounds = 1
		cfg.TrialsPerRound = 2
		cfg.ImageTrials = 1
		cfg.FillerTrials = 1
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sess, err := newSession(m.log, cfg, m.catalog, rng, participant, practice)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	sess.Start(context.Background(), m.log)
	m.log.Info("Session started",
		zap.String("session", sess.ID),
		zap.String("participant", participant),
		zap.Bool("practice", practice))
	return sess, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ProceedRound verifies the access code for the round about to start, then
// releases the scheduler's gate.
func (m *Manager) ProceedRound(id string, code string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	nextRound := sess.Scheduler.Status().Round + 1
	if hash, gated := m.roundCodes[nextRound]; gated {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
			return ErrBadAccessCode
		}
	}
	return sess.Scheduler.Proceed()
}

// Cancel triggers a session's emergency exit.
func (m *Manager) Cancel(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.Cancel()
	return nil
}

// Remove drops a session from the registry after cancelling it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		sess.Cancel()
	}
}

// ExpireIdle cancels sessions with no sampler activity for longer than
// maxIdle. Expired sessions stay registered in their terminal state so every
// already-recorded trial remains exportable; only an explicit Remove drops
// the data.
func (m *Manager) ExpireIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	now := time.Now()
	for id, sess := range m.sessions {
		st := sess.Scheduler.Status().State
		if st == StateComplete || st == StateFailed || sess.expired {
			continue
		}
		last := sess.Sampler.LastActivity()
		if last.IsZero() {
			last = sess.CreatedAt
		}
		if now.Sub(last) > maxIdle {
			sess.Cancel()
			sess.expired = true
			expired++
			m.log.Warn("Expired idle session",
				zap.String("session", id),
				zap.Time("lastActivity", last))
		}
	}
	return expired
}
