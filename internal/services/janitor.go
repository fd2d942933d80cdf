package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
)

// Janitor expires sessions whose participant walked away: no sampler activity
// for longer than the configured idle window. Expiry cancels the scheduler so
// sampling stops, but the session stays registered and its recorded trials
// stay exportable; data is dropped only by an explicit remove.
type Janitor struct {
	log     *zap.Logger
	manager *session.Manager
	maxIdle time.Duration
}

func NewJanitor(log *zap.Logger, manager *session.Manager, maxIdle time.Duration) *Janitor {
	return &Janitor{
		log:     log,
		manager: manager,
		maxIdle: maxIdle,
	}
}

// Start runs the janitor in a goroutine.
func (j *Janitor) Start() {
	j.log.Info("Starting session janitor...", zap.Duration("maxIdle", j.maxIdle))
	go func() {
		// Ticker will fire on every minute.
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			<-ticker.C
			j.sweep()
		}
	}()
}

func (j *Janitor) sweep() {
	if expired := j.manager.ExpireIdle(j.maxIdle); expired > 0 {
		j.log.Info("Expired idle sessions", zap.Int("count", expired))
	}
}
