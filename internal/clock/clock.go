package clock

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidStep = errors.New("clock: step must be positive")

// Clock reports the current tick time and moves to the next tick.
type Clock interface {
	Now() time.Time
	Advance(ctx context.Context) error
}

// Step is a simulated clock that advances by a fixed step without waiting.
type Step struct {
	now  time.Time
	step time.Duration
}

// NewStep creates a simulated clock starting at start.
func NewStep(start time.Time, step time.Duration) (*Step, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	return &Step{now: start, step: step}, nil
}

func (s *Step) Now() time.Time {
	return s.now
}

func (s *Step) Advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.now = s.now.Add(s.step)
	return nil
}

// Realtime waits one interval of wall time per Advance.
type Realtime struct {
	ticker *time.Ticker
	now    time.Time
}

// NewRealtime creates a wall clock ticking every interval. Stop releases the ticker.
func NewRealtime(interval time.Duration) (*Realtime, error) {
	if interval <= 0 {
		return nil, ErrInvalidStep
	}
	return &Realtime{
		ticker: time.NewTicker(interval),
		now:    time.Now(),
	}, nil
}

func (r *Realtime) Now() time.Time {
	return r.now
}

func (r *Realtime) Advance(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ticker.C:
		r.now = time.Now()
		return nil
	}
}

// Stop releases the underlying ticker.
func (r *Realtime) Stop() {
	r.ticker.Stop()
}
