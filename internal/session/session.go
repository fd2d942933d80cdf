package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/display"
	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
	"github.com/nus-cts-lab/free-viewing-sky/internal/recorder"
	"github.com/nus-cts-lab/free-viewing-sky/internal/sampler"
	"github.com/nus-cts-lab/free-viewing-sky/internal/stimulus"
)

// Session owns everything belonging to one participant run: the shuffled
// image pool, the scheduler goroutine, the record store, and the web-backed
// sampler and display collaborators.
type Session struct {
	ID          string
	Participant string
	Practice    bool
	CreatedAt   time.Time
	Config      Config

	Scheduler *Scheduler
	Store     *Store
	Sampler   *sampler.WebSampler
	Display   *display.WebSurface

	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	// expired marks a session the manager cancelled for inactivity; guarded
	// by the manager's mutex.
	expired bool
}

func newSession(log *zap.Logger, cfg Config, catalog *models.StimulusCatalog, rng *rand.Rand, participant string, practice bool) (*Session, error) {
	samp := sampler.NewWebSampler(log)
	samp.SetViewport(cfg.ViewportW, cfg.ViewportH)
	disp := display.NewWebSurface()
	store := NewStore()
	pool := stimulus.NewPool(catalog, rng)
	rec := recorder.New(log, cfg.SampleIntervalMS)

	sched, err := NewScheduler(cfg, log, rng, pool, rec, store, samp, disp)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:          uuid.NewString(),
		Participant: participant,
		Practice:    practice,
		CreatedAt:   time.Now(),
		Config:      cfg,
		Scheduler:   sched,
		Store:       store,
		Sampler:     samp,
		Display:     disp,
		done:        make(chan struct{}),
	}, nil
}

// Start launches the scheduler goroutine.
func (s *Session) Start(parent context.Context, log *zap.Logger) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	go func() {
		defer close(s.done)
		if err := s.Scheduler.Run(ctx); err != nil {
			s.runErr = err
			log.Warn("Session run ended with error",
				zap.String("session", s.ID),
				zap.Error(err))
		}
	}()
}

// Cancel requests the emergency-exit path: active sampling stops, the
// in-flight trial is discarded, and the store keeps every completed trial.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Done is closed once the scheduler goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// RunErr is the scheduler's terminal error, valid after Done is closed.
func (s *Session) RunErr() error {
	return s.runErr
}
