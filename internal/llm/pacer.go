package llm

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces completion calls by a fixed delay. The mutex covers the
// next-allowed timestamp across every task sharing the client, so adapter
// fan-out cannot stack up requests faster than the upstream quota allows.
type Pacer struct {
	mu          sync.Mutex
	delay       time.Duration
	nextAllowed time.Time
}

// DefaultRequestDelay matches free-tier hosted completion quotas.
const DefaultRequestDelay = 2 * time.Second

// NewPacer builds a pacer; delay <= 0 disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until the pacing slot opens or ctx is cancelled. Each caller
// claims the next slot before sleeping, so concurrent waiters line up rather
// than release together.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	wait := p.nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	p.nextAllowed = now.Add(wait + p.delay)
	p.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
