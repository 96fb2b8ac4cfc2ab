package strategies

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
	"github.com/danmuck/stratum/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	reg.Seal()
	return reg
}

func build(t *testing.T, reg *registry.Registry, kind string, params registry.Params) strategy.Strategy {
	t.Helper()
	s, err := reg.Build(registry.Definition{Kind: kind, Params: params})
	if err != nil {
		t.Fatalf("build %s: %v", kind, err)
	}
	return s
}

func next(t *testing.T, s strategy.Strategy, state strategy.State, acc float64) float64 {
	t.Helper()
	v, err := s.Next(time.Time{}, state, acc)
	if err != nil {
		t.Fatalf("next %s: %v", s.Name(), err)
	}
	return v
}

func TestRegisterBuiltinsKinds(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	want := []string{"clamp", "ema", "input", "offset", "peak", "ramp", "scale"}
	if diff := cmp.Diff(want, reg.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if err := RegisterBuiltins(registry.New()); err != nil {
		t.Fatalf("builtins must register into a fresh registry: %v", err)
	}
	for _, kind := range Builtins() {
		if kind.Description == "" {
			t.Fatalf("builtin %q missing description", kind.Name)
		}
	}
}

func TestOffsetScaleClamp(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)

	if got := next(t, build(t, reg, "offset", registry.Params{"value": 2.5}), strategy.State{}, 1); got != 3.5 {
		t.Fatalf("offset: got %v", got)
	}
	if got := next(t, build(t, reg, "scale", registry.Params{"factor": int64(3)}), strategy.State{}, 2); got != 6 {
		t.Fatalf("scale: got %v", got)
	}

	clamp := build(t, reg, "clamp", registry.Params{"min": 0.0, "max": 10.0})
	for in, want := range map[float64]float64{-4: 0, 5: 5, 12: 10} {
		if got := next(t, clamp, strategy.State{}, in); got != want {
			t.Fatalf("clamp(%v): got=%v want=%v", in, got, want)
		}
	}
	upper := build(t, reg, "clamp", registry.Params{"max": 1.0})
	if got := next(t, upper, strategy.State{}, -100); got != -100 {
		t.Fatalf("clamp without min should not bound below: %v", got)
	}
}

func TestBuiltinParamValidation(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	cases := []registry.Definition{
		{Kind: "offset"},
		{Kind: "scale", Params: registry.Params{"factor": "double"}},
		{Kind: "clamp", Params: registry.Params{"min": 5.0, "max": 1.0}},
		{Kind: "ema", Params: registry.Params{"alpha": 0.0}},
		{Kind: "ema", Params: registry.Params{"alpha": 1.5}},
		{Kind: "ramp", Params: registry.Params{"max_step": -1.0}},
		{Kind: "input"},
	}
	for _, def := range cases {
		if _, err := reg.Build(def); !errors.Is(err, registry.ErrInvalidParam) {
			t.Fatalf("expected ErrInvalidParam for %+v, got %v", def, err)
		}
	}
}

func TestInput(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	state := strategy.State{Tick: 3, Inputs: map[string]float64{"load": 4}}

	in := build(t, reg, "input", registry.Params{"input": "load", "scale": 0.5})
	if got := next(t, in, state, 99); got != 2 {
		t.Fatalf("input: got %v", got)
	}

	missing := build(t, reg, "input", registry.Params{"input": "pv"})
	if _, err := missing.Next(time.Time{}, state, 0); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}

	fallback := build(t, reg, "input", registry.Params{"input": "pv", "default": 1.25})
	if got := next(t, fallback, state, 0); got != 1.25 {
		t.Fatalf("input default: got %v", got)
	}
}

func TestEMACommitsOnUpdate(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	s := build(t, reg, "ema", registry.Params{"alpha": 0.5})
	ema := s.(*EMA)

	if got := next(t, s, strategy.State{}, 10); got != 10 {
		t.Fatalf("first sample should pass through: %v", got)
	}
	if _, ok := ema.Value(); ok {
		t.Fatalf("value must not be committed before update")
	}
	_ = s.Update(strategy.Result{Value: 10})

	// uncommitted proposal is replaced by the following Next
	_ = next(t, s, strategy.State{}, 1000)
	if got := next(t, s, strategy.State{}, 20); got != 15 {
		t.Fatalf("expected 0.5*20+0.5*10=15, got %v", got)
	}
	_ = s.Update(strategy.Result{Value: 15})
	if v, ok := ema.Value(); !ok || v != 15 {
		t.Fatalf("unexpected committed value: %v ok=%v", v, ok)
	}

	s.Clear()
	if got := next(t, s, strategy.State{}, 7); got != 7 {
		t.Fatalf("clear should reprime: %v", got)
	}
}

func TestRampLimitsChange(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	s := build(t, reg, "ramp", registry.Params{"max_step": 2.0})

	if got := next(t, s, strategy.State{}, 50); got != 50 {
		t.Fatalf("first tick should pass through: %v", got)
	}
	_ = s.Update(strategy.Result{Value: 10})
	if got := next(t, s, strategy.State{}, 50); got != 12 {
		t.Fatalf("expected ramp up to 12, got %v", got)
	}
	if got := next(t, s, strategy.State{}, -50); got != 8 {
		t.Fatalf("expected ramp down to 8, got %v", got)
	}
	s.Clear()
	if got := next(t, s, strategy.State{}, -50); got != -50 {
		t.Fatalf("clear should drop the anchor: %v", got)
	}
}

func TestPeakTracksSettledMax(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	s := build(t, reg, "peak", registry.Params{"limit": 5.0})
	p := s.(*Peak)

	if got := next(t, s, strategy.State{}, 9); got != 5 {
		t.Fatalf("expected cap at 5, got %v", got)
	}
	for _, v := range []float64{3, 4.5, 2} {
		_ = s.Update(strategy.Result{Value: v})
	}
	if peak, ok := p.Peak(); !ok || peak != 4.5 {
		t.Fatalf("unexpected peak: %v ok=%v", peak, ok)
	}
	s.Clear()
	if _, ok := p.Peak(); ok {
		t.Fatalf("clear should reset peak")
	}

	unbounded := build(t, reg, "peak", nil)
	if got := next(t, unbounded, strategy.State{}, math.MaxFloat64); got != math.MaxFloat64 {
		t.Fatalf("peak without limit should pass through: %v", got)
	}
}

func TestBuiltinsCompose(t *testing.T) {
	testlog.Start(t)
	reg := newRegistry(t)
	defs := []registry.Definition{
		{Name: "cap", Kind: "clamp", Priority: strategy.PriorityLow, Params: registry.Params{"max": 6.0}},
		{Name: "load", Kind: "input", Priority: strategy.PriorityVeryHigh, Params: registry.Params{"input": "load"}},
		{Name: "losses", Kind: "scale", Priority: strategy.PriorityHigh, Params: registry.Params{"factor": 1.1}},
		{Name: "reserve", Kind: "offset", Priority: strategy.PriorityHigh, Params: registry.Params{"value": 1.0}},
	}
	list := make([]strategy.Strategy, 0, len(defs))
	for _, def := range defs {
		s, err := reg.Build(def)
		if err != nil {
			t.Fatalf("build %s: %v", def.Name, err)
		}
		list = append(list, s)
	}
	c, err := strategy.NewComposer("grid", list)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	defer c.Close()

	state := strategy.State{Inputs: map[string]float64{"load": 4}}
	// load=4 -> *1.1=4.4 -> +1=5.4 -> clamp 6
	got, err := c.Next(time.Time{}, state, 0)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if math.Abs(got-5.4) > 1e-9 {
		t.Fatalf("expected 5.4, got %v", got)
	}
	state.Inputs["load"] = 10
	got, _ = c.Next(time.Time{}, state, 0)
	if got != 6 {
		t.Fatalf("expected clamp to 6, got %v", got)
	}
}
