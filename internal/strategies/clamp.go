package strategies

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// Clamp bounds the accumulator into [min, max]. Either bound may be omitted.
type Clamp struct {
	base
	min float64
	max float64
}

func newClamp(def registry.Definition) (strategy.Strategy, error) {
	lo, err := def.Params.Float("min", math.Inf(-1))
	if err != nil {
		return nil, err
	}
	hi, err := def.Params.Float("max", math.Inf(1))
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: min %v > max %v", registry.ErrInvalidParam, lo, hi)
	}
	return &Clamp{base: newBase(def), min: lo, max: hi}, nil
}

func (c *Clamp) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	return math.Min(math.Max(acc, c.min), c.max), nil
}
