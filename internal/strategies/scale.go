package strategies

import (
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// Scale multiplies the accumulator by a constant factor.
type Scale struct {
	base
	factor float64
}

func newScale(def registry.Definition) (strategy.Strategy, error) {
	factor, err := def.Params.RequireFloat("factor")
	if err != nil {
		return nil, err
	}
	return &Scale{base: newBase(def), factor: factor}, nil
}

func (s *Scale) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	return acc * s.factor, nil
}
