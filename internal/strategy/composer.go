package strategy

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// ComposerOption configures a Composer at construction.
type ComposerOption func(*Composer)

// WithMerge sets how each proposal folds into the accumulator.
func WithMerge(merge MergeFunc) ComposerOption {
	return func(c *Composer) {
		if merge != nil {
			c.merge = merge
		}
	}
}

// WithPriority sets the priority the Composer reports when nested in another Composer.
func WithPriority(p Priority) ComposerOption {
	return func(c *Composer) {
		if p.Valid() {
			c.priority = p
			c.priorityFixed = true
		}
	}
}

// Composer runs an immutable, priority-ordered chain of strategies as one Strategy.
// A Composer is driven by a single caller and is not safe for concurrent use.
type Composer struct {
	name          string
	strategies    []Strategy
	merge         MergeFunc
	priority      Priority
	priorityFixed bool

	stepped bool
	closed  bool
}

var _ Strategy = (*Composer)(nil)

// NewComposer sorts strategies once by descending priority, keeping insertion order on ties.
func NewComposer(name string, strategies []Strategy, opts ...ComposerOption) (*Composer, error) {
	ordered := make([]Strategy, 0, len(strategies))
	for i, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("%w: composer %q index %d", ErrNilStrategy, name, i)
		}
		ordered = append(ordered, s)
	}
	slices.SortStableFunc(ordered, func(a, b Strategy) int {
		return int(b.Priority()) - int(a.Priority())
	})

	c := &Composer{
		name:       name,
		strategies: ordered,
		merge:      MergeOverwrite,
		priority:   PriorityMedium,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.priorityFixed && len(ordered) > 0 {
		c.priority = ordered[0].Priority()
	}

	log.Debug().Msgf("strategy.NewComposer name=%q strategies=%d priority=%s", name, len(ordered), c.priority)
	return c, nil
}

func (c *Composer) Name() string {
	return c.name
}

func (c *Composer) Priority() Priority {
	return c.priority
}

// Strategies returns the chain in execution order.
func (c *Composer) Strategies() []Strategy {
	return slices.Clone(c.strategies)
}

// Len returns the number of strategies in the chain.
func (c *Composer) Len() int {
	return len(c.strategies)
}

// Next folds acc through every strategy in order. On failure the input
// accumulator is returned unchanged together with an *ExecutionError.
func (c *Composer) Next(t time.Time, state State, acc float64) (float64, error) {
	if c.closed {
		return acc, ErrClosed
	}

	c.stepped = false
	current := acc
	for i, s := range c.strategies {
		proposal, err := safeNext(s, t, state, current)
		if err != nil {
			log.Warn().Msgf(
				"strategy.Composer.Next aborted composer=%q strategy=%q index=%d tick=%d err=%v",
				c.name,
				s.Name(),
				i,
				state.Tick,
				err,
			)
			return acc, &ExecutionError{
				Composer: c.name,
				Strategy: s.Name(),
				Index:    i,
				Tick:     state.Tick,
				Err:      err,
			}
		}
		current = c.merge(current, proposal)
	}
	c.stepped = true
	return current, nil
}

// Update broadcasts the settled result. It requires a successful Next since the last Update or Clear.
func (c *Composer) Update(result Result) error {
	if c.closed {
		return ErrClosed
	}
	if !c.stepped {
		return fmt.Errorf("%w: composer %q", ErrUpdateBeforeNext, c.name)
	}
	c.stepped = false

	var errs []error
	for _, s := range c.strategies {
		if err := s.Update(result); err != nil {
			errs = append(errs, fmt.Errorf("update %q: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Clear resets every child strategy.
func (c *Composer) Clear() {
	c.stepped = false
	for _, s := range c.strategies {
		s.Clear()
	}
}

// Close releases every child exactly once, even when an earlier child fails or panics.
// Later calls are no-ops.
func (c *Composer) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.stepped = false

	var errs []error
	for _, s := range c.strategies {
		if err := safeClose(s); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		log.Warn().Msgf("strategy.Composer.Close composer=%q failures=%d", c.name, len(errs))
	}
	return errors.Join(errs...)
}

// Closed reports whether Close has run.
func (c *Composer) Closed() bool {
	return c.closed
}

func safeNext(s Strategy, t time.Time, state State, acc float64) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = acc
			err = fmt.Errorf("%w: %v", ErrStrategyPanic, r)
		}
	}()
	return s.Next(t, state, acc)
}

func safeClose(s Strategy) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStrategyPanic, r)
		}
	}()
	return s.Close()
}
