package strategy

import "time"

// State is the read-only snapshot handed to every strategy for one tick.
type State struct {
	Tick   uint64
	Time   time.Time
	Inputs map[string]float64
}

// Input returns a named input value for this tick.
func (s State) Input(name string) (float64, bool) {
	if s.Inputs == nil {
		return 0, false
	}
	v, ok := s.Inputs[name]
	return v, ok
}

// Result is the settled value of one tick, broadcast through Update.
type Result struct {
	Pipeline string
	Tick     uint64
	Time     time.Time
	Value    float64
}

// Strategy is one unit of per-tick decision logic.
//
// Next receives the accumulator as produced by every higher-priority sibling
// and returns its proposal. Update observes the settled result of the tick.
// Clear drops accumulated state. Close releases resources.
type Strategy interface {
	Name() string
	Priority() Priority
	Next(t time.Time, state State, acc float64) (float64, error)
	Update(result Result) error
	Clear()
	Close() error
}
