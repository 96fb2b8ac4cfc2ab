package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/danmuck/stratum/internal/clock"
	"github.com/danmuck/stratum/internal/config"
	"github.com/danmuck/stratum/internal/dispatch"
	"github.com/danmuck/stratum/internal/engine"
	"github.com/danmuck/stratum/internal/observability"
	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategies"
	"github.com/rs/zerolog/log"
)

// newRegistry returns a sealed registry holding the builtin kinds.
func newRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := strategies.RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// runConfig wires cfg into a runner and drives it to completion.
func runConfig(ctx context.Context, cfg config.Config) (engine.Summary, error) {
	reg, err := newRegistry()
	if err != nil {
		return engine.Summary{}, err
	}
	pipelines, err := cfg.DispatchPipelines()
	if err != nil {
		return engine.Summary{}, err
	}
	d, err := dispatch.New(reg, pipelines)
	if err != nil {
		return engine.Summary{}, err
	}

	clk, err := cfg.BuildClock()
	if err != nil {
		return engine.Summary{}, errors.Join(err, d.Close())
	}
	if rt, ok := clk.(*clock.Realtime); ok {
		defer rt.Stop()
	}
	src, err := cfg.BuildSource()
	if err != nil {
		return engine.Summary{}, errors.Join(err, d.Close())
	}
	snk, err := cfg.BuildSink(ctx)
	if err != nil {
		return engine.Summary{}, errors.Join(err, d.Close())
	}
	runner, err := engine.NewRunner(d, clk, src, snk, cfg.EngineOptions())
	if err != nil {
		return engine.Summary{}, errors.Join(err, d.Close(), snk.Close())
	}

	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := observability.ServeMetrics(metricsCtx, addr); err != nil {
				log.Error().Msgf("stratumctl.run metrics addr=%q err=%v", addr, err)
			}
		}()
	}

	log.Info().Msgf("stratumctl.run run=%q pipelines=%d ticks=%d", runner.RunID(), len(pipelines), cfg.Ticks)
	return runner.Run(ctx)
}

// describePipelines renders each pipeline and its strategies in execution order.
func describePipelines(cfg config.Config, reg *registry.Registry) ([]string, error) {
	infos, err := cfg.Check(reg)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("%s priority=%s", info.Name, info.Priority))
		for i, stage := range info.Stages {
			lines = append(lines, fmt.Sprintf("  %d. %s priority=%s", i+1, stage.Name, stage.Priority))
		}
	}
	return lines, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
