package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/stratum/internal/clock"
	"github.com/danmuck/stratum/internal/dispatch"
	"github.com/danmuck/stratum/internal/observability"
	"github.com/danmuck/stratum/internal/sink"
	"github.com/danmuck/stratum/internal/source"
	"github.com/danmuck/stratum/internal/strategy"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingDispatcher = errors.New("engine: dispatcher is required")
	ErrMissingClock      = errors.New("engine: clock is required")
	ErrMissingSink       = errors.New("engine: sink is required")
	ErrInvalidOnError    = errors.New("engine: invalid on_error policy")
	ErrAlreadyRan        = errors.New("engine: runner already ran")
)

// OnError selects what a pipeline failure does to the run.
type OnError string

const (
	// OnErrorAbort stops the run at the first failed pipeline tick.
	OnErrorAbort OnError = "abort"
	// OnErrorSkip drops the failed pipeline tick, clears the pipeline, and continues.
	OnErrorSkip OnError = "skip"
)

// ParseOnError accepts the config spellings of OnError. Empty selects abort.
func ParseOnError(raw string) (OnError, error) {
	switch OnError(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OnErrorAbort:
		return OnErrorAbort, nil
	case OnErrorSkip:
		return OnErrorSkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOnError, raw)
	}
}

// Options tunes a run.
type Options struct {
	RunID string
	// Ticks bounds the run. Zero runs until the context is done.
	Ticks   uint64
	Initial float64
	// Carry seeds each pipeline tick with its previous settled value instead of Initial.
	Carry   bool
	OnError OnError
}

// Summary reports a finished run.
type Summary struct {
	RunID    string
	Ticks    uint64
	Last     map[string]float64
	Failures int
}

// Runner drives a dispatcher tick by tick. It owns the dispatcher and sink and closes both when Run returns.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	clock      clock.Clock
	source     source.Source
	sink       sink.Sink
	opts       Options
	ran        bool
}

// NewRunner validates collaborators. A nil source yields empty inputs.
func NewRunner(d *dispatch.Dispatcher, c clock.Clock, src source.Source, snk sink.Sink, opts Options) (*Runner, error) {
	if d == nil {
		return nil, ErrMissingDispatcher
	}
	if c == nil {
		return nil, ErrMissingClock
	}
	if snk == nil {
		return nil, ErrMissingSink
	}
	policy, err := ParseOnError(string(opts.OnError))
	if err != nil {
		return nil, err
	}
	opts.OnError = policy
	if strings.TrimSpace(opts.RunID) == "" {
		opts.RunID = uuid.NewString()
	}
	if src == nil {
		src = source.Static{}
	}
	return &Runner{dispatcher: d, clock: c, source: src, sink: snk, opts: opts}, nil
}

// RunID returns the identifier stamped on every record.
func (r *Runner) RunID() string {
	return r.opts.RunID
}

// Run executes ticks until the bound is reached, the context ends, or a failure aborts the run.
// Context cancellation is a clean stop.
func (r *Runner) Run(ctx context.Context) (sum Summary, err error) {
	if r.ran {
		return Summary{}, ErrAlreadyRan
	}
	r.ran = true

	sum = Summary{RunID: r.opts.RunID, Last: make(map[string]float64)}
	defer func() {
		closeErr := errors.Join(r.dispatcher.Close(), r.sink.Close())
		if closeErr != nil {
			log.Error().Msgf("engine.Runner.Run release failed run_id=%q err=%v", r.opts.RunID, closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	names := r.dispatcher.Names()
	log.Info().Msgf(
		"engine.Runner.Run start run_id=%q pipelines=%d ticks=%d on_error=%s carry=%v",
		r.opts.RunID,
		len(names),
		r.opts.Ticks,
		r.opts.OnError,
		r.opts.Carry,
	)

	for tick := uint64(0); r.opts.Ticks == 0 || tick < r.opts.Ticks; tick++ {
		if ctx.Err() != nil {
			break
		}
		now := r.clock.Now()
		inputs, err := r.source.Inputs(tick, now)
		if err != nil {
			return sum, fmt.Errorf("engine: inputs for tick %d: %w", tick, err)
		}
		state := strategy.State{Tick: tick, Time: now, Inputs: inputs}

		for _, name := range names {
			if err := r.step(ctx, name, state, &sum); err != nil {
				return sum, err
			}
		}
		sum.Ticks++
		observability.RecordTick(r.opts.RunID)

		if r.opts.Ticks != 0 && tick+1 >= r.opts.Ticks {
			break
		}
		if err := r.clock.Advance(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return sum, fmt.Errorf("engine: advance clock: %w", err)
		}
	}

	log.Info().Msgf(
		"engine.Runner.Run complete run_id=%q ticks=%d failures=%d",
		r.opts.RunID,
		sum.Ticks,
		sum.Failures,
	)
	return sum, nil
}

func (r *Runner) step(ctx context.Context, name string, state strategy.State, sum *Summary) error {
	acc := r.opts.Initial
	if r.opts.Carry {
		if last, ok := sum.Last[name]; ok {
			acc = last
		}
	}

	start := time.Now()
	value, err := r.dispatcher.Dispatch(name, state.Time, state, acc)
	observability.RecordDispatch(name, time.Since(start), err == nil)
	if err != nil {
		return r.handleFailure(name, state.Tick, err, sum)
	}

	result := strategy.Result{Pipeline: name, Tick: state.Tick, Time: state.Time, Value: value}
	if err := r.dispatcher.Update(name, result); err != nil {
		return fmt.Errorf("engine: update pipeline %q tick %d: %w", name, state.Tick, err)
	}
	rec := sink.Record{
		RunID:    r.opts.RunID,
		Pipeline: name,
		Tick:     state.Tick,
		Time:     state.Time,
		Value:    value,
	}
	if err := r.sink.Write(ctx, rec); err != nil {
		return fmt.Errorf("engine: write pipeline %q tick %d: %w", name, state.Tick, err)
	}

	sum.Last[name] = value
	observability.RecordPipelineValue(name, value)
	log.Debug().Msgf("engine.Runner.step pipeline=%q tick=%d value=%g", name, state.Tick, value)
	return nil
}

func (r *Runner) handleFailure(name string, tick uint64, err error, sum *Summary) error {
	var execErr *strategy.ExecutionError
	if !errors.As(err, &execErr) {
		return fmt.Errorf("engine: dispatch pipeline %q tick %d: %w", name, tick, err)
	}
	sum.Failures++
	observability.RecordStrategyFailure(name, execErr.Strategy)

	if r.opts.OnError != OnErrorSkip {
		return fmt.Errorf("engine: dispatch pipeline %q tick %d: %w", name, tick, err)
	}
	log.Warn().Msgf(
		"engine.Runner.step skipped pipeline=%q tick=%d strategy=%q err=%v",
		name,
		tick,
		execErr.Strategy,
		execErr.Err,
	)
	if err := r.dispatcher.Clear(name); err != nil {
		return fmt.Errorf("engine: clear pipeline %q tick %d: %w", name, tick, err)
	}
	return nil
}
