// Package scheduler runs the per-frame systems in four fixed, strictly ordered phases.
package scheduler

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"go.uber.org/zap"
)

// Phase is one of the four per-frame schedules.
type Phase int

const (
	// PhaseSpawnOnce holds systems that run exactly one time, on the first frame.
	PhaseSpawnOnce Phase = iota
	// PhasePreUpdate drains input and window events and advances frame timing.
	PhasePreUpdate
	// PhaseUpdate advances the simulation.
	PhaseUpdate
	// PhaseRender draws and presents.
	PhaseRender

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseSpawnOnce:
		return "spawn-once"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseRender:
		return "render"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SystemFunc is a unit of per-frame logic. C is the frame context handed to every system.
// A returned error aborts the frame and is reported by RunFrame.
type SystemFunc[C any] func(ctx C) error

type system[C any] struct {
	name    string
	fn      SystemFunc[C]
	once    bool
	latched bool
}

type systemConfig struct {
	once  bool
	after []string
}

// SystemOption configures a system when it is added.
type SystemOption func(*systemConfig)

// RunOnce latches the system after its first successful run. Systems in PhaseSpawnOnce are
// always latched.
func RunOnce() SystemOption {
	return func(c *systemConfig) {
		c.once = true
	}
}

// After asserts that the named systems were added earlier in the same phase.
// Systems run in declared order, so this turns an ordering requirement into a startup panic
// instead of a frame that silently reads stale state.
//
// Parameters:
//   - names: the systems that must precede this one
//
// Returns:
//   - SystemOption: the option to pass to AddSystem
func After(names ...string) SystemOption {
	return func(c *systemConfig) {
		c.after = append(c.after, names...)
	}
}

// Scheduler owns the ordered system lists of every phase.
type Scheduler[C any] struct {
	phases [phaseCount][]*system[C]
	index  map[string]Phase
	frames uint64
}

// New creates an empty scheduler.
func New[C any]() *Scheduler[C] {
	return &Scheduler[C]{index: make(map[string]Phase)}
}

// AddSystem appends a system to a phase. Names must be unique across all phases.
// It panics on a duplicate name, an unknown phase, or an unsatisfied After constraint.
//
// Parameters:
//   - phase: the phase to run in
//   - name: a unique name used for ordering constraints and error reports
//   - fn: the system function
//   - options: RunOnce, After
//
// Returns:
//   - *Scheduler[C]: the scheduler, for chaining
func (s *Scheduler[C]) AddSystem(phase Phase, name string, fn SystemFunc[C], options ...SystemOption) *Scheduler[C] {
	if phase < 0 || phase >= phaseCount {
		panic(fmt.Sprintf("scheduler: unknown phase %d", int(phase)))
	}
	if _, ok := s.index[name]; ok {
		panic(fmt.Sprintf("scheduler: system %q already added", name))
	}

	cfg := systemConfig{once: phase == PhaseSpawnOnce}
	for _, opt := range options {
		opt(&cfg)
	}
	for _, dep := range cfg.after {
		depPhase, ok := s.index[dep]
		if !ok || depPhase != phase {
			panic(fmt.Sprintf("scheduler: system %q must be added after %q in phase %s", name, dep, phase))
		}
	}

	s.phases[phase] = append(s.phases[phase], &system[C]{name: name, fn: fn, once: cfg.once})
	s.index[name] = phase
	return s
}

// Systems returns the names of a phase's systems in execution order.
func (s *Scheduler[C]) Systems(phase Phase) []string {
	names := make([]string, 0, len(s.phases[phase]))
	for _, sys := range s.phases[phase] {
		names = append(names, sys.name)
	}
	return names
}

// Frames returns how many frames have completed.
func (s *Scheduler[C]) Frames() uint64 {
	return s.frames
}

// RunFrame runs every phase once, in order. Latched systems are skipped.
//
// Parameters:
//   - ctx: the frame context passed to every system
//
// Returns:
//   - error: the first system error, wrapped with the phase and system name
func (s *Scheduler[C]) RunFrame(ctx C) error {
	for phase := PhaseSpawnOnce; phase < phaseCount; phase++ {
		for _, sys := range s.phases[phase] {
			if sys.latched {
				continue
			}
			if err := sys.fn(ctx); err != nil {
				return fmt.Errorf("%s system %q: %w", phase, sys.name, err)
			}
			if sys.once {
				sys.latched = true
				logger.Log.Debug("system latched", zap.String("system", sys.name), zap.Stringer("phase", phase))
			}
		}
	}
	s.frames++
	return nil
}

// Run calls RunFrame until running reports false. running is checked once per frame, after the
// frame completes, so a frame is never cut short.
//
// Parameters:
//   - ctx: the frame context
//   - running: the loop condition
//
// Returns:
//   - error: the error that stopped the loop, or nil when running turned false
func (s *Scheduler[C]) Run(ctx C, running func() bool) error {
	for running() {
		if err := s.RunFrame(ctx); err != nil {
			return err
		}
	}
	return nil
}
