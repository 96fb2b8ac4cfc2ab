package strategies

import (
	"github.com/danmuck/stratum/internal/registry"
)

// Kind describes one builtin factory.
type Kind struct {
	Name        string
	Description string
	Factory     registry.Factory
}

// Builtins returns the builtin kinds in registration order.
func Builtins() []Kind {
	return []Kind{
		{Name: "input", Description: "propose a named tick input (params: input, scale, default)", Factory: newInput},
		{Name: "offset", Description: "add a constant (params: value)", Factory: newOffset},
		{Name: "scale", Description: "multiply by a constant (params: factor)", Factory: newScale},
		{Name: "clamp", Description: "bound into [min, max] (params: min, max)", Factory: newClamp},
		{Name: "ema", Description: "exponential moving average (params: alpha)", Factory: newEMA},
		{Name: "ramp", Description: "limit change per tick vs last result (params: max_step)", Factory: newRamp},
		{Name: "peak", Description: "cap at limit and track settled peak (params: limit)", Factory: newPeak},
	}
}

// RegisterBuiltins adds every builtin kind to reg.
func RegisterBuiltins(reg *registry.Registry) error {
	for _, kind := range Builtins() {
		if err := reg.Register(kind.Name, kind.Factory); err != nil {
			return err
		}
	}
	return nil
}
