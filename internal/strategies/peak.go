package strategies

import (
	"math"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// Peak caps the accumulator at limit and tracks the highest settled result.
type Peak struct {
	base
	limit float64

	peak    float64
	hasPeak bool
}

func newPeak(def registry.Definition) (strategy.Strategy, error) {
	limit, err := def.Params.Float("limit", math.Inf(1))
	if err != nil {
		return nil, err
	}
	return &Peak{base: newBase(def), limit: limit}, nil
}

func (p *Peak) Next(_ time.Time, _ strategy.State, acc float64) (float64, error) {
	return math.Min(acc, p.limit), nil
}

func (p *Peak) Update(result strategy.Result) error {
	if !p.hasPeak || result.Value > p.peak {
		p.peak = result.Value
		p.hasPeak = true
	}
	return nil
}

func (p *Peak) Clear() {
	p.peak = 0
	p.hasPeak = false
}

// Peak returns the highest settled result since construction or Clear.
func (p *Peak) Peak() (float64, bool) {
	return p.peak, p.hasPeak
}
