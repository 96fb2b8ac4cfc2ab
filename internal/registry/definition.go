package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/stratum/internal/strategy"
)

var ErrInvalidParam = errors.New("registry: invalid param")

// Definition describes one strategy instance to build.
type Definition struct {
	// Name identifies the instance in logs and errors. Defaults to Kind.
	Name string
	// Kind selects the registered factory.
	Kind string
	// Priority defaults to medium.
	Priority strategy.Priority
	Params   Params
}

func (d Definition) normalized() Definition {
	d.Kind = strings.TrimSpace(d.Kind)
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = d.Kind
	}
	if !d.Priority.Valid() {
		d.Priority = strategy.PriorityMedium
	}
	if d.Params == nil {
		d.Params = Params{}
	}
	return d
}

// Params carries kind-specific settings decoded from configuration.
type Params map[string]any

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Float returns key as float64, or def when unset.
func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidParam, key, v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T, want number", ErrInvalidParam, key, raw)
	}
}

// RequireFloat returns key as float64 and fails when unset.
func (p Params) RequireFloat(key string) (float64, error) {
	if !p.Has(key) {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParam, key)
	}
	return p.Float(key, 0)
}

// String returns key as a trimmed string, or def when unset.
func (p Params) String(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want string", ErrInvalidParam, key, raw)
	}
	return strings.TrimSpace(v), nil
}

// Bool returns key as bool, or def when unset.
func (p Params) Bool(key string, def bool) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q: %v", ErrInvalidParam, key, v, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s has type %T, want bool", ErrInvalidParam, key, raw)
	}
}

// Duration returns key parsed with time.ParseDuration, or def when unset.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	v, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s has type %T, want duration string", ErrInvalidParam, key, raw)
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidParam, key, v, err)
	}
	return d, nil
}
