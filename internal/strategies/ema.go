package strategies

import (
	"fmt"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// EMA smooths the accumulator with an exponential moving average.
// A proposal is only committed once the tick settles through Update.
type EMA struct {
	base
	alpha float64

	value   float64
	primed  bool
	pending float64
	staged  bool
}

func newEMA(def registry.Definition) (strategy.Strategy, error) {
	alpha, err := def.Params.Float("alpha", 0.5)
	if err != nil {
		return nil, err
	}
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha %v outside (0,1]", registry.ErrInvalidParam, alpha)
	}
	return &EMA{base: newBase(def), alpha: alpha}, nil
}

func (e *EMA) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	next := acc
	if e.primed {
		next = e.alpha*acc + (1-e.alpha)*e.value
	}
	e.pending = next
	e.staged = true
	return next, nil
}

func (e *EMA) Update(strategy.Result) error {
	if !e.staged {
		return nil
	}
	e.value = e.pending
	e.primed = true
	e.staged = false
	return nil
}

func (e *EMA) Clear() {
	e.value = 0
	e.primed = false
	e.pending = 0
	e.staged = false
}

// Value returns the committed average.
func (e *EMA) Value() (float64, bool) {
	return e.value, e.primed
}
