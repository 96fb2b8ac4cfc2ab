package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/stratum/internal/strategy"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownStrategy = errors.New("registry: unknown strategy")
	ErrFactoryExists   = errors.New("registry: factory already registered")
	ErrFactoryNil      = errors.New("registry: factory is nil")
	ErrInvalidName     = errors.New("registry: invalid name")
	ErrRegistrySealed  = errors.New("registry: sealed")
	ErrNilStrategy     = errors.New("registry: factory returned nil strategy")
)

// UnknownStrategyError reports a capability name with no registered factory.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("registry: unknown strategy %q", e.Name)
}

// Is lets errors.Is(err, ErrUnknownStrategy) match any UnknownStrategyError.
func (e *UnknownStrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}

// Factory builds one strategy instance from its definition.
type Factory func(def Definition) (strategy.Strategy, error)

// Registry stores factories by capability name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	sealed    bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// ValidateName checks the capability/instance name format.
func ValidateName(name string) error {
	if !isValidName(strings.TrimSpace(name)) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Register adds a factory under name. It fails once the registry is sealed.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return ErrFactoryNil
	}
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: register %q", ErrRegistrySealed, name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %q", ErrFactoryExists, name)
	}
	r.factories[name] = factory
	log.Debug().Msgf("registry.Registry.Register name=%q", name)
	return nil
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has run.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Has reports whether name has a registered factory.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.TrimSpace(name)]
	return ok
}

// Resolve builds the strategy registered under name with default settings.
func (r *Registry) Resolve(name string) (strategy.Strategy, error) {
	return r.Build(Definition{Name: name, Kind: name})
}

// Build resolves def.Kind and constructs a strategy from def.
func (r *Registry) Build(def Definition) (strategy.Strategy, error) {
	def = def.normalized()

	r.mu.RLock()
	factory, ok := r.factories[def.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownStrategyError{Name: def.Kind}
	}

	s, err := factory(def)
	if err != nil {
		return nil, fmt.Errorf("registry: build %q (kind=%s): %w", def.Name, def.Kind, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilStrategy, def.Kind)
	}
	return s, nil
}

// Kinds returns registered names in deterministic order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]string, 0, len(r.factories))
	for name := range r.factories {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

func isValidName(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
