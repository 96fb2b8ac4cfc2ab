package config

import (
	"context"
	"strings"
	"time"

	"github.com/danmuck/stratum/internal/clock"
	"github.com/danmuck/stratum/internal/dispatch"
	"github.com/danmuck/stratum/internal/engine"
	"github.com/danmuck/stratum/internal/logging"
	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/sink"
	"github.com/danmuck/stratum/internal/source"
	"github.com/danmuck/stratum/internal/strategy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DispatchPipelines converts pipeline entries into dispatcher declarations.
func (c Config) DispatchPipelines() ([]dispatch.Pipeline, error) {
	out := make([]dispatch.Pipeline, 0, len(c.Pipelines))
	for _, p := range c.Pipelines {
		merge, err := strategy.ParseMerge(p.Merge)
		if err != nil {
			return nil, err
		}
		var priority strategy.Priority
		if strings.TrimSpace(p.Priority) != "" {
			if priority, err = strategy.ParsePriority(p.Priority); err != nil {
				return nil, err
			}
		}

		stages := make([]registry.Definition, 0, len(p.Strategies))
		for _, s := range p.Strategies {
			def := registry.Definition{
				Name:     strings.TrimSpace(s.Name),
				Kind:     strings.TrimSpace(s.Kind),
				Priority: strategy.PriorityMedium,
				Params:   registry.Params(s.Params),
			}
			if strings.TrimSpace(s.Priority) != "" {
				if def.Priority, err = strategy.ParsePriority(s.Priority); err != nil {
					return nil, err
				}
			}
			stages = append(stages, def)
		}
		out = append(out, dispatch.Pipeline{
			Name:     strings.TrimSpace(p.Name),
			Merge:    merge,
			Priority: priority,
			Stages:   stages,
		})
	}
	return out, nil
}

// EngineOptions converts run settings.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		RunID:   strings.TrimSpace(c.RunID),
		Ticks:   c.Ticks,
		Initial: c.Initial,
		Carry:   c.Carry,
		OnError: engine.OnError(strings.TrimSpace(c.OnError)),
	}
}

// BuildClock constructs the configured clock.
func (c Config) BuildClock() (clock.Clock, error) {
	step, err := time.ParseDuration(strings.TrimSpace(c.Clock.Step))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Clock.Mode) == ClockRealtime {
		return clock.NewRealtime(step)
	}
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(c.Clock.Start); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, err
		}
	}
	return clock.NewStep(start, step)
}

// BuildSource constructs the configured input source. Profile files are read here, once.
func (c Config) BuildSource() (source.Source, error) {
	static := source.Static(c.Source.Static)
	if strings.TrimSpace(c.Source.Profile) == "" {
		return static, nil
	}
	profile, err := source.LoadProfile(c.Path(c.Source.Profile), c.Source.Loop)
	if err != nil {
		return nil, err
	}
	return source.Merge(static, profile), nil
}

// BuildSink constructs the configured sinks. With nothing enabled it falls back to the log sink.
func (c Config) BuildSink(ctx context.Context) (sink.Sink, error) {
	var sinks sink.Multi
	if strings.TrimSpace(c.Sink.SQLite) != "" {
		db, err := sink.OpenSQLite(ctx, c.Path(c.Sink.SQLite))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, db)
	}
	if c.Sink.Log || len(sinks) == 0 {
		level, ok := logging.ParseLevel(c.Sink.LogLevel)
		if !ok {
			level = zerolog.InfoLevel
		}
		sinks = append(sinks, sink.NewLog(log.Logger, level))
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// Check builds every pipeline against reg, describes them in execution order, and releases them again.
func (c Config) Check(reg *registry.Registry) ([]dispatch.PipelineInfo, error) {
	pipelines, err := c.DispatchPipelines()
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, ErrNoPipelines
	}
	d, err := dispatch.New(reg, pipelines)
	if err != nil {
		return nil, err
	}
	infos := d.Describe()
	return infos, d.Close()
}
