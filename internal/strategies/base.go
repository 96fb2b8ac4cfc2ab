package strategies

import (
	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
)

// base carries identity and the shared no-op hooks for builtin kinds.
type base struct {
	name     string
	priority strategy.Priority
}

func newBase(def registry.Definition) base {
	return base{name: def.Name, priority: def.Priority}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Priority() strategy.Priority {
	return b.priority
}

func (b *base) Update(strategy.Result) error {
	return nil
}

func (b *base) Clear() {}

func (b *base) Close() error {
	return nil
}
