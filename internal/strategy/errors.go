package strategy

import (
	"errors"
	"fmt"
)

var (
	ErrStrategyExecution = errors.New("strategy: execution failed")
	ErrStrategyPanic     = errors.New("strategy: panic in next")
	ErrNilStrategy       = errors.New("strategy: nil strategy")
	ErrUpdateBeforeNext  = errors.New("strategy: update called before next")
	ErrClosed            = errors.New("strategy: composer closed")
	ErrInvalidPriority   = errors.New("strategy: invalid priority")
	ErrUnknownMerge      = errors.New("strategy: unknown merge function")
)

// ExecutionError reports the strategy that aborted a chain for one tick.
type ExecutionError struct {
	Composer string
	Strategy string
	Index    int
	Tick     uint64
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf(
		"strategy: composer %q aborted at %q (index=%d tick=%d): %v",
		e.Composer,
		e.Strategy,
		e.Index,
		e.Tick,
		e.Err,
	)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStrategyExecution) match any ExecutionError.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrStrategyExecution
}
