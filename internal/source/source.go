package source

import (
	"errors"
	"maps"
	"time"
)

var ErrProfileExhausted = errors.New("source: profile exhausted")

// Source returns the named inputs for one tick.
type Source interface {
	Inputs(tick uint64, t time.Time) (map[string]float64, error)
}

// Static returns the same inputs on every tick.
type Static map[string]float64

func (s Static) Inputs(uint64, time.Time) (map[string]float64, error) {
	return maps.Clone(s), nil
}

// Merge combines sources. Later sources win on key collisions.
func Merge(sources ...Source) Source {
	return merged(sources)
}

type merged []Source

func (m merged) Inputs(tick uint64, t time.Time) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, src := range m {
		if src == nil {
			continue
		}
		in, err := src.Inputs(tick, t)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, in)
	}
	return out, nil
}
