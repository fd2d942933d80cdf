// Package stimulus owns the per-session image inventory. The pool hands out
// images for trials while guaranteeing that no identifier is ever shown twice
// in a session, across all categories.
package stimulus

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// ErrInsufficientStimuli means the pool cannot satisfy an allocation. A
// partially filled trial would break the balanced design, so callers must
// abort the round rather than truncate.
var ErrInsufficientStimuli = errors.New("insufficient stimuli remaining")

// Pool is the mutable per-session inventory: a shuffled remaining-unused queue
// per category plus a global used set spanning every category. Not safe for
// concurrent use; the scheduler is the only caller.
type Pool struct {
	remaining map[models.Category][]string
	used      map[string]struct{}
}

// NewPool copies each category list out of the catalog and shuffles each
// independently. Pass a seeded rand for deterministic tests.
func NewPool(catalog *models.StimulusCatalog, rng *rand.Rand) *Pool {
	p := &Pool{
		remaining: make(map[models.Category][]string, len(models.Categories)),
		used:      make(map[string]struct{}),
	}
	for _, cat := range models.Categories {
		src := catalog.Images(cat)
		queue := make([]string, len(src))
		copy(queue, src)
		rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
		p.remaining[cat] = queue
	}
	return p
}

// Allocate removes and returns count identifiers from the front of the
// category's queue, skipping any identifier already used anywhere in the
// session. On ErrInsufficientStimuli the pool is left unchanged.
func (p *Pool) Allocate(cat models.Category, count int) ([]string, error) {
	queue := p.remaining[cat]

	picked := make([]string, 0, count)
	rest := make([]string, 0, len(queue))
	for _, id := range queue {
		if _, taken := p.used[id]; taken {
			continue
		}
		if len(picked) < count {
			picked = append(picked, id)
		} else {
			rest = append(rest, id)
		}
	}

	if len(picked) < count {
		return nil, fmt.Errorf("allocate %d from %q: %w", count, cat, ErrInsufficientStimuli)
	}

	p.remaining[cat] = rest
	for _, id := range picked {
		p.used[id] = struct{}{}
	}
	return picked, nil
}

// Remaining counts the identifiers still allocatable from a category.
func (p *Pool) Remaining(cat models.Category) int {
	n := 0
	for _, id := range p.remaining[cat] {
		if _, taken := p.used[id]; !taken {
			n++
		}
	}
	return n
}

// Used reports whether an identifier has been allocated this session.
func (p *Pool) Used(id string) bool {
	_, ok := p.used[id]
	return ok
}

// UsedCount returns the size of the global used set.
func (p *Pool) UsedCount() int {
	return len(p.used)
}

// CanSatisfy is a pure capacity check: an image trial needs one image from
// each emotional category plus one filler, a filler trial needs four fillers.
// The scheduler calls this before committing to a round's trial pattern so an
// allocation failure can never surface mid-round. Counting per category is
// sound because the catalog loader guarantees identifiers are globally
// unique, so an allocation in one category never consumes another's.
func (p *Pool) CanSatisfy(imageTrials, fillerTrials int) bool {
	for _, cat := range models.EmotionalCategories {
		if p.Remaining(cat) < imageTrials {
			return false
		}
	}
	return p.Remaining(models.CategoryFiller) >= imageTrials+4*fillerTrials
}
