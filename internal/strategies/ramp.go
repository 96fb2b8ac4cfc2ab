package strategies

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// Ramp limits how far the accumulator may move from the last settled result.
type Ramp struct {
	base
	maxStep float64

	last    float64
	hasLast bool
}

func newRamp(def registry.Definition) (strategy.Strategy, error) {
	step, err := def.Params.RequireFloat("max_step")
	if err != nil {
		return nil, err
	}
	if step < 0 {
		return nil, fmt.Errorf("%w: max_step %v is negative", registry.ErrInvalidParam, step)
	}
	return &Ramp{base: newBase(def), maxStep: step}, nil
}

func (r *Ramp) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	if !r.hasLast {
		return acc, nil
	}
	return math.Min(math.Max(acc, r.last-r.maxStep), r.last+r.maxStep), nil
}

func (r *Ramp) Update(result strategy.Result) error {
	r.last = result.Value
	r.hasLast = true
	return nil
}

func (r *Ramp) Clear() {
	r.last = 0
	r.hasLast = false
}
