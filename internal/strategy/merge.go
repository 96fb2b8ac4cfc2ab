package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MergeFunc combines the running accumulator with one strategy's proposal.
type MergeFunc func(acc, proposal float64) float64

// MergeOverwrite takes the proposal as the new accumulator.
func MergeOverwrite(_, proposal float64) float64 { return proposal }

// MergeSum treats proposals as deltas.
func MergeSum(acc, proposal float64) float64 { return acc + proposal }

// MergeMin keeps the smaller value.
func MergeMin(acc, proposal float64) float64 { return math.Min(acc, proposal) }

// MergeMax keeps the larger value.
func MergeMax(acc, proposal float64) float64 { return math.Max(acc, proposal) }

// MergeProduct treats proposals as factors.
func MergeProduct(acc, proposal float64) float64 { return acc * proposal }

var merges = map[string]MergeFunc{
	"overwrite": MergeOverwrite,
	"sum":       MergeSum,
	"min":       MergeMin,
	"max":       MergeMax,
	"product":   MergeProduct,
}

// ParseMerge resolves a named merge function. Empty selects overwrite.
func ParseMerge(raw string) (MergeFunc, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return MergeOverwrite, nil
	}
	fn, ok := merges[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMerge, raw)
	}
	return fn, nil
}

// MergeNames lists the named merge functions in sorted order.
func MergeNames() []string {
	names := make([]string, 0, len(merges))
	for name := range merges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
