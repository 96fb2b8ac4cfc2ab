package strategies

import (
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// Offset adds a constant to the accumulator.
type Offset struct {
	base
	value float64
}

func newOffset(def registry.Definition) (strategy.Strategy, error) {
	value, err := def.Params.RequireFloat("value")
	if err != nil {
		return nil, err
	}
	return &Offset{base: newBase(def), value: value}, nil
}

func (o *Offset) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	return acc + o.value, nil
}
