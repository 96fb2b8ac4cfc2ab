package strategies

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

var ErrMissingInput = errors.New("strategies: missing input")

// Input proposes a named tick input, optionally scaled.
type Input struct {
	base
	input      string
	scale      float64
	fallback   float64
	hasDefault bool
}

func newInput(def registry.Definition) (strategy.Strategy, error) {
	name, err := def.Params.String("input", "")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: input is required", registry.ErrInvalidParam)
	}
	scale, err := def.Params.Float("scale", 1)
	if err != nil {
		return nil, err
	}
	fallback, err := def.Params.Float("default", 0)
	if err != nil {
		return nil, err
	}
	return &Input{
		base:       newBase(def),
		input:      name,
		scale:      scale,
		fallback:   fallback,
		hasDefault: def.Params.Has("default"),
	}, nil
}

func (in *Input) Next(_ time.Time, state strategy.State, _ float64) (float64, error) {
	v, ok := state.Input(in.input)
	if !ok {
		if !in.hasDefault {
			return 0, fmt.Errorf("%w: %q at tick %d", ErrMissingInput, in.input, state.Tick)
		}
		v = in.fallback
	}
	return v * in.scale, nil
}
