package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoRegistry        = errors.New("dispatch: registry is nil")
	ErrDuplicatePipeline = errors.New("dispatch: duplicate pipeline")
	ErrClosed            = errors.New("dispatch: dispatcher closed")
)

// Pipeline declares one named chain of strategy definitions. Priority orders
// pipelines within a tick; zero takes the highest stage priority.
type Pipeline struct {
	Name     string
	Merge    strategy.MergeFunc
	Priority strategy.Priority
	Stages   []registry.Definition
}

// Dispatcher maps pipeline names onto built Composers.
type Dispatcher struct {
	order  []string
	units  map[string]*strategy.Composer
	closed bool
}

// New builds every pipeline and orders them by descending priority, keeping
// declaration order on ties. When any pipeline fails to build, the units built so far are closed.
func New(reg *registry.Registry, pipelines []Pipeline) (d *Dispatcher, err error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}

	d = &Dispatcher{
		order: make([]string, 0, len(pipelines)),
		units: make(map[string]*strategy.Composer, len(pipelines)),
	}
	defer func() {
		if err != nil {
			if closeErr := d.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			d = nil
		}
	}()

	for _, p := range pipelines {
		name := strings.TrimSpace(p.Name)
		if err := registry.ValidateName(name); err != nil {
			return d, fmt.Errorf("dispatch: pipeline %q: %w", p.Name, err)
		}
		if _, ok := d.units[name]; ok {
			return d, fmt.Errorf("%w: %q", ErrDuplicatePipeline, name)
		}
		unit, err := buildPipeline(reg, name, p)
		if err != nil {
			return d, err
		}
		d.units[name] = unit
		d.order = append(d.order, name)
		log.Debug().Msgf("dispatch.New pipeline=%q stages=%d priority=%s", name, unit.Len(), unit.Priority())
	}
	slices.SortStableFunc(d.order, func(a, b string) int {
		return int(d.units[b].Priority()) - int(d.units[a].Priority())
	})
	return d, nil
}

func buildPipeline(reg *registry.Registry, name string, p Pipeline) (*strategy.Composer, error) {
	stages := make([]strategy.Strategy, 0, len(p.Stages))
	release := func() {
		for _, s := range stages {
			_ = s.Close()
		}
	}
	for i, def := range p.Stages {
		s, err := reg.Build(def)
		if err != nil {
			release()
			return nil, fmt.Errorf("dispatch: pipeline %q stage %d: %w", name, i, err)
		}
		stages = append(stages, s)
	}

	opts := []strategy.ComposerOption{strategy.WithMerge(p.Merge)}
	if p.Priority.Valid() {
		opts = append(opts, strategy.WithPriority(p.Priority))
	}
	unit, err := strategy.NewComposer(name, stages, opts...)
	if err != nil {
		release()
		return nil, err
	}
	return unit, nil
}

// Names returns pipeline names in execution order.
func (d *Dispatcher) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// StageInfo names one strategy of a built pipeline.
type StageInfo struct {
	Name     string
	Priority strategy.Priority
}

// PipelineInfo describes a built pipeline with its stages in execution order.
type PipelineInfo struct {
	Name     string
	Priority strategy.Priority
	Stages   []StageInfo
}

// Describe reports every pipeline in execution order.
func (d *Dispatcher) Describe() []PipelineInfo {
	out := make([]PipelineInfo, 0, len(d.order))
	for _, name := range d.order {
		unit := d.units[name]
		info := PipelineInfo{Name: name, Priority: unit.Priority()}
		for _, s := range unit.Strategies() {
			info.Stages = append(info.Stages, StageInfo{Name: s.Name(), Priority: s.Priority()})
		}
		out = append(out, info)
	}
	return out
}

// Resolve returns the unit registered under name.
func (d *Dispatcher) Resolve(name string) (strategy.Strategy, error) {
	unit, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (d *Dispatcher) lookup(name string) (*strategy.Composer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	unit, ok := d.units[strings.TrimSpace(name)]
	if !ok {
		return nil, &registry.UnknownStrategyError{Name: name}
	}
	return unit, nil
}

// Dispatch runs one tick of the named pipeline.
func (d *Dispatcher) Dispatch(name string, t time.Time, state strategy.State, acc float64) (float64, error) {
	unit, err := d.lookup(name)
	if err != nil {
		return acc, err
	}
	return unit.Next(t, state, acc)
}

// Update broadcasts a settled result to the named pipeline.
func (d *Dispatcher) Update(name string, result strategy.Result) error {
	unit, err := d.lookup(name)
	if err != nil {
		return err
	}
	return unit.Update(result)
}

// Clear resets the named pipeline.
func (d *Dispatcher) Clear(name string) error {
	unit, err := d.lookup(name)
	if err != nil {
		return err
	}
	unit.Clear()
	return nil
}

// ClearAll resets every pipeline in execution order.
func (d *Dispatcher) ClearAll() {
	if d.closed {
		return
	}
	for _, name := range d.order {
		d.units[name].Clear()
	}
}

// Close releases every pipeline once. Later calls are no-ops.
func (d *Dispatcher) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for _, name := range d.order {
		if err := d.units[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("pipeline %q: %w", name, err))
		}
	}
	log.Debug().Msgf("dispatch.Dispatcher.Close pipelines=%d failures=%d", len(d.order), len(errs))
	return errors.Join(errs...)
}
