package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/stratum/internal/clock"
	"github.com/danmuck/stratum/internal/engine"
	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/sink"
	"github.com/danmuck/stratum/internal/strategies"
	"github.com/danmuck/stratum/internal/strategy"
	"github.com/danmuck/stratum/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := strategies.RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	reg.Seal()
	return reg
}

func TestLoadTemplatesTOMLAndYAMLAgree(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "run.toml")
	yamlPath := filepath.Join(dir, "run.yaml")
	if err := WriteTemplate(tomlPath, "toml", false); err != nil {
		t.Fatalf("write toml template: %v", err)
	}
	if err := WriteTemplate(yamlPath, "yaml", false); err != nil {
		t.Fatalf("write yaml template: %v", err)
	}

	fromTOML, err := Load(tomlPath)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	fromYAML, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}

	if fromTOML.Ticks != 96 || fromTOML.Clock.Step != "15m" || len(fromTOML.Pipelines) != 1 {
		t.Fatalf("unexpected toml config: %+v", fromTOML)
	}
	if diff := cmp.Diff(fromTOML.Source.Static, fromYAML.Source.Static); diff != "" {
		t.Fatalf("static inputs differ (-toml +yaml):\n%s", diff)
	}

	pt, err := fromTOML.DispatchPipelines()
	if err != nil {
		t.Fatalf("toml pipelines: %v", err)
	}
	py, err := fromYAML.DispatchPipelines()
	if err != nil {
		t.Fatalf("yaml pipelines: %v", err)
	}
	if len(pt[0].Stages) != 4 || len(py[0].Stages) != 4 {
		t.Fatalf("unexpected stage counts: toml=%d yaml=%d", len(pt[0].Stages), len(py[0].Stages))
	}
	for i := range pt[0].Stages {
		a, b := pt[0].Stages[i], py[0].Stages[i]
		if a.Name != b.Name || a.Kind != b.Kind || a.Priority != b.Priority {
			t.Fatalf("stage %d differs: toml=%+v yaml=%+v", i, a, b)
		}
	}
	if pt[0].Stages[0].Priority != strategy.PriorityVeryHigh {
		t.Fatalf("unexpected first stage priority: %s", pt[0].Stages[0].Priority)
	}

	infos, err := fromYAML.Check(builtinRegistry(t))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "grid" {
		t.Fatalf("unexpected checked pipelines: %+v", infos)
	}
	var stages []string
	for _, stage := range infos[0].Stages {
		stages = append(stages, stage.Name)
	}
	if diff := cmp.Diff([]string{"base-load", "pv-offset", "smooth", "grid-limit"}, stages); diff != "" {
		t.Fatalf("checked stages mismatch (-want +got):\n%s", diff)
	}

	if err := WriteTemplate(tomlPath, "toml", false); err == nil {
		t.Fatalf("expected existing template to be preserved")
	}
	if err := WriteTemplate(tomlPath, "toml", true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	if _, err := Template("ini"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, t.TempDir(), "run.toml", `
[[pipelines]]
name = "grid"

  [[pipelines.strategies]]
  kind = "offset"
  params = { value = 1 }
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ticks != 96 || cfg.Clock.Mode != ClockStep || !cfg.Sink.Log || cfg.OnError != "abort" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	opts := cfg.EngineOptions()
	if opts.OnError != engine.OnErrorAbort || opts.Ticks != 96 {
		t.Fatalf("unexpected engine options: %+v", opts)
	}
	pipelines, err := cfg.DispatchPipelines()
	if err != nil {
		t.Fatalf("pipelines: %v", err)
	}
	stage := pipelines[0].Stages[0]
	if stage.Priority != strategy.PriorityMedium {
		t.Fatalf("expected default stage priority, got %s", stage.Priority)
	}
	if v, err := stage.Params.Float("value", 0); err != nil || v != 1 {
		t.Fatalf("toml integer param not readable as float: %v %v", v, err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key": `
colour = "blue"
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"no pipelines": `ticks = 4`,
		"bad merge": `
[[pipelines]]
name = "grid"
merge = "average"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"bad priority": `
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
  priority = "urgent"
`,
		"empty pipeline": `
[[pipelines]]
name = "grid"
`,
		"bad name": `
[[pipelines]]
name = "Grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"duplicate": `
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"bad on_error": `
on_error = "retry"
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"bad clock": `
[clock]
mode = "step"
step = "-1s"
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
		"zero ticks": `
ticks = 0
[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "offset"
`,
	}
	dir := t.TempDir()
	for name, content := range cases {
		path := writeFile(t, dir, "case.toml", content)
		if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	yamlPath := writeFile(t, dir, "case.yaml", "colour: blue\n")
	if _, err := Load(yamlPath); err == nil {
		t.Fatalf("expected unknown yaml field error")
	}
	if _, err := Load(writeFile(t, dir, "case.json", "{}")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestBuildRuntimePieces(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFile(t, dir, "profile.csv", "load\n1\n2\n")
	path := writeFile(t, dir, "run.toml", `
ticks = 2

[clock]
start = "2024-06-01T12:00:00Z"
step = "1h"

[source]
static = { price = 0.25 }
profile = "profile.csv"

[sink]
log = false
sqlite = "results.db"

[[pipelines]]
name = "grid"
  [[pipelines.strategies]]
  kind = "input"
  params = { input = "load" }
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c, err := cfg.BuildClock()
	if err != nil {
		t.Fatalf("build clock: %v", err)
	}
	step, ok := c.(*clock.Step)
	if !ok {
		t.Fatalf("expected step clock, got %T", c)
	}
	if want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC); !step.Now().Equal(want) {
		t.Fatalf("unexpected start: %v", step.Now())
	}

	src, err := cfg.BuildSource()
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	inputs, err := src.Inputs(1, time.Time{})
	if err != nil {
		t.Fatalf("inputs: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"price": 0.25, "load": 2}, inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}

	snk, err := cfg.BuildSink(context.Background())
	if err != nil {
		t.Fatalf("build sink: %v", err)
	}
	if _, ok := snk.(*sink.SQLite); !ok {
		t.Fatalf("expected sqlite sink only, got %T", snk)
	}
	if err := snk.Close(); err != nil {
		t.Fatalf("close sink: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "results.db")); err != nil {
		t.Fatalf("expected sqlite file next to config: %v", err)
	}
}

func TestBuildSinkFallsBackToLog(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.Sink.Log = false
	snk, err := cfg.BuildSink(context.Background())
	if err != nil {
		t.Fatalf("build sink: %v", err)
	}
	if _, ok := snk.(*sink.Log); !ok {
		t.Fatalf("expected log sink fallback, got %T", snk)
	}
}

func TestCheckReportsUnknownKind(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.Pipelines = []PipelineConfig{{
		Name:       "grid",
		Strategies: []StrategyConfig{{Kind: "battery"}},
	}}
	if _, err := cfg.Check(builtinRegistry(t)); !errors.Is(err, registry.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	if _, err := (Config{}).Check(builtinRegistry(t)); !errors.Is(err, ErrNoPipelines) {
		t.Fatalf("expected ErrNoPipelines, got %v", err)
	}
}
