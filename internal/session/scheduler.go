// Package session drives the round/trial state machine and owns the
// per-session record store.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/display"
	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
	"github.com/nus-cts-lab/free-viewing-sky/internal/recorder"
	"github.com/nus-cts-lab/free-viewing-sky/internal/sampler"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateRoundRunning  State = "round_running"
	StateRoundComplete State = "round_complete"
	StateComplete      State = "session_complete"
	StateFailed        State = "failed"
)

// ErrNotAwaitingProceed is returned when a proceed signal arrives outside the
// between-rounds gate.
var ErrNotAwaitingProceed = errors.New("session is not awaiting a round gate")

// Config holds the experiment parameters fixed at session start.
type Config struct {
	Rounds           int
	TrialsPerRound   int
	ImageTrials      int
	FillerTrials     int
	TrialDuration    time.Duration
	SampleIntervalMS float64
	Overlay          sampler.Options
	ViewportW        int
	ViewportH        int
}

func (c Config) validate() error {
	if c.ImageTrials+c.FillerTrials != c.TrialsPerRound {
		return fmt.Errorf("trial split %d+%d does not equal trials per round %d",
			c.ImageTrials, c.FillerTrials, c.TrialsPerRound)
	}
	if c.Rounds < 1 || c.TrialsPerRound < 1 {
		return errors.New("rounds and trials per round must be positive")
	}
	if c.TrialDuration <= 0 {
		return errors.New("trial duration must be positive")
	}
	return nil
}

// RoundState tracks progress through the current round. Reset and regenerated
// at every round start.
type RoundState struct {
	Round      int                `json:"round"`
	RoundTrial int                `json:"roundTrial"`
	StartedAt  time.Time          `json:"startedAt"`
	Pattern    []models.TrialType `json:"pattern"`
}

// Scheduler runs the session: per round it pre-checks pool capacity,
// generates the trial-type pattern, and executes each trial through a strict
// synchronous phase sequence (allocate, display, sample, stop, record). No
// trial begins before the previous trial's recording completes, and only one
// sampling window is ever open.
type Scheduler struct {
	cfg   Config
	log   *zap.Logger
	rng   *rand.Rand
	pool  ImagePool
	rec   *recorder.Recorder
	store *Store
	samp  sampler.PositionSampler // nil when the collaborator is unavailable
	disp  display.Surface

	proceed chan struct{}

	mu          sync.Mutex
	state       State
	round       RoundState
	globalTrial int
	startedAt   time.Time

	warnedNoSampler bool
}

// ImagePool is the allocation surface the scheduler needs from the stimulus
// pool.
type ImagePool interface {
	Allocate(cat models.Category, count int) ([]string, error)
	CanSatisfy(imageTrials, fillerTrials int) bool
}

func NewScheduler(cfg Config, log *zap.Logger, rng *rand.Rand, pool ImagePool, rec *recorder.Recorder, store *Store, samp sampler.PositionSampler, disp display.Surface) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:     cfg,
		log:     log,
		rng:     rng,
		pool:    pool,
		rec:     rec,
		store:   store,
		samp:    samp,
		disp:    disp,
		proceed: make(chan struct{}, 1),
		state:   StateIdle,
	}, nil
}

// Status is a point-in-time snapshot for the HTTP surface.
type Status struct {
	State       State     `json:"state"`
	Round       int       `json:"round"`
	RoundTrial  int       `json:"roundTrial"`
	GlobalTrial int       `json:"globalTrial"`
	StartedAt   time.Time `json:"startedAt"`
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		Round:       s.round.Round,
		RoundTrial:  s.round.RoundTrial,
		GlobalTrial: s.globalTrial,
		StartedAt:   s.startedAt,
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Proceed releases the between-rounds gate. The caller is responsible for any
// access-code verification before signalling.
func (s *Scheduler) Proceed() error {
	s.mu.Lock()
	awaiting := s.state == StateRoundComplete
	s.mu.Unlock()
	if !awaiting {
		return ErrNotAwaitingProceed
	}
	select {
	case s.proceed <- struct{}{}:
	default: // already signalled
	}
	return nil
}

// Run executes the whole session. It returns nil after a full run, the
// context error on cancellation (already-recorded trials stay in the store),
// and a fatal error if stimulus capacity is violated.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	for round := 1; round <= s.cfg.Rounds; round++ {
		if err := s.beginRound(round); err != nil {
			s.setState(StateFailed)
			return err
		}

		for i, tt := range s.round.Pattern {
			if err := s.runTrial(ctx, round, i+1, tt); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					s.log.Warn("Session cancelled, flushing recorded trials",
						zap.Int("round", round),
						zap.Int("recorded", s.store.TrialCount()))
					s.setState(StateComplete)
					return err
				}
				s.setState(StateFailed)
				return err
			}
		}

		s.setState(StateRoundComplete)
		s.log.Info("Round complete",
			zap.Int("round", round),
			zap.Int("globalTrial", s.globalTrial))

		if round < s.cfg.Rounds {
			// The gate may pause indefinitely; only an explicit proceed
			// signal or cancellation moves the session forward.
			select {
			case <-s.proceed:
			case <-ctx.Done():
				s.setState(StateComplete)
				return ctx.Err()
			}
		}
	}

	s.setState(StateComplete)
	s.log.Info("Session complete", zap.Int("trials", s.store.TrialCount()))
	return nil
}

// beginRound verifies capacity for the full remaining round before any
// pattern is committed, then regenerates the round state.
func (s *Scheduler) beginRound(round int) error {
	if !s.pool.CanSatisfy(s.cfg.ImageTrials, s.cfg.FillerTrials) {
		return fmt.Errorf("round %d capacity check: %w", round, ErrInsufficientCapacity)
	}

	pattern := make([]models.TrialType, 0, s.cfg.TrialsPerRound)
	for i := 0; i < s.cfg.ImageTrials; i++ {
		pattern = append(pattern, models.TrialImage)
	}
	for i := 0; i < s.cfg.FillerTrials; i++ {
		pattern = append(pattern, models.TrialFiller)
	}
	s.rng.Shuffle(len(pattern), func(i, j int) {
		pattern[i], pattern[j] = pattern[j], pattern[i]
	})

	s.mu.Lock()
	s.state = StateRoundRunning
	s.round = RoundState{Round: round, RoundTrial: 0, StartedAt: time.Now(), Pattern: pattern}
	s.mu.Unlock()

	s.log.Info("Round started", zap.Int("round", round))
	return nil
}

// ErrInsufficientCapacity is the fatal pre-check failure: the pool cannot
// cover a full round and the session must not proceed with missing images.
var ErrInsufficientCapacity = errors.New("stimulus pool cannot satisfy a full round")

func (s *Scheduler) runTrial(ctx context.Context, round, roundTrial int, tt models.TrialType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spec, err := s.nextSpec(tt)
	if err != nil {
		return fmt.Errorf("trial %d/%d: %w", round, roundTrial, err)
	}

	s.mu.Lock()
	s.globalTrial++
	s.round.RoundTrial = roundTrial
	global := s.globalTrial
	s.mu.Unlock()

	s.disp.Show(spec)
	startedAt := time.Now()

	if s.samp != nil {
		s.samp.Configure(s.cfg.Overlay)
		s.samp.Clear()
		s.samp.Start()
	} else if !s.warnedNoSampler {
		s.warnedNoSampler = true
		s.log.Warn("Position sampler unavailable, trials will record without samples")
	}

	timer := time.NewTimer(s.cfg.TrialDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		// Emergency exit: stop sampling immediately and discard this
		// trial's partial data. Completed trials are already in the store.
		if s.samp != nil {
			s.samp.Stop()
			s.samp.Clear()
		}
		s.disp.Hide()
		return ctx.Err()
	}

	samples := []models.PositionSample{}
	if s.samp != nil {
		s.samp.Stop()
		samples = s.samp.Samples()
		s.samp.Clear()
	}
	endedAt := time.Now()

	bounds := make(map[models.Quadrant]models.Rect, 4)
	for _, q := range models.Quadrants {
		if r := s.disp.BoundsOf(q); r != nil {
			bounds[q] = *r
		}
	}

	trialCtx := models.TrialContext{
		Trial:      global,
		Round:      round,
		RoundTrial: roundTrial,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		ViewportW:  s.cfg.ViewportW,
		ViewportH:  s.cfg.ViewportH,
	}
	record, sampleRecords, err := s.rec.RecordTrial(trialCtx, spec, samples, bounds)
	if err != nil {
		return fmt.Errorf("record trial %d: %w", global, err)
	}

	s.store.AppendTrial(*record)
	s.store.AppendSamples(sampleRecords)
	s.disp.Hide()

	s.log.Debug("Trial recorded",
		zap.Int("trial", global),
		zap.Int("round", round),
		zap.Int("roundTrial", roundTrial),
		zap.String("type", string(tt)),
		zap.Int("samples", record.SampleCount))
	return nil
}

// nextSpec allocates the trial's images and assigns a random quadrant
// permutation. All four quadrants are used exactly once per trial.
func (s *Scheduler) nextSpec(tt models.TrialType) (*models.TrialSpec, error) {
	spec := &models.TrialSpec{Type: tt}

	switch tt {
	case models.TrialImage:
		for _, cat := range models.Categories {
			ids, err := s.pool.Allocate(cat, 1)
			if err != nil {
				return nil, err
			}
			spec.Placements = append(spec.Placements, models.Placement{Category: cat, ImageID: ids[0]})
		}
	case models.TrialFiller:
		ids, err := s.pool.Allocate(models.CategoryFiller, 4)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			spec.Placements = append(spec.Placements, models.Placement{Category: models.CategoryFiller, ImageID: id})
		}
	default:
		return nil, fmt.Errorf("unknown trial type %q", tt)
	}

	perm := s.rng.Perm(len(models.Quadrants))
	for i := range spec.Placements {
		spec.Placements[i].Quadrant = models.Quadrants[perm[i]]
	}
	return spec, nil
}
