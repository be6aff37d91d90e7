package scrape

import (
	"context"
	"math/rand"
	"time"
)

// pauser draws the politeness delay taken before each fetch. Every worker
// owns its own pauser and randomness, so workers never pause in lockstep.
type pauser struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
}

func newPauser(min, max time.Duration, seed int64) *pauser {
	return &pauser{min: min, max: max, rng: rand.New(rand.NewSource(seed))}
}

// next draws a delay uniformly from [min, max].
func (p *pauser) next() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Pause blocks for a drawn delay or until ctx is done, whichever comes
// first. It reports the context error so callers stop claiming pages.
func (p *pauser) Pause(ctx context.Context) error {
	delay := p.next()
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
