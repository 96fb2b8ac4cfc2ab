package strategy

import (
	"fmt"
	"strings"
)

// Priority orders sibling strategies inside a Composer. Higher runs first.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityVeryHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityVeryHigh:
		return "very_high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared priority levels.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityVeryHigh
}

// ParsePriority accepts the config spellings of a priority level.
func ParsePriority(raw string) (Priority, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "low":
		return PriorityLow, nil
	case "medium", "normal":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "very_high", "veryhigh":
		return PriorityVeryHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
}
