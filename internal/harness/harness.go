package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/network"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/testutil"
	"github.com/roach88/recordwire/internal/world"
)

// DefaultGeneration is the generation id used when a scenario sets none.
const DefaultGeneration = "scenario-generation"

// stepTimeout bounds how long a single step may wait on the engine.
const stepTimeout = 10 * time.Second

// namedErrors maps expect_error names to the errors they match.
var namedErrors = map[string]error{
	"occupied":          world.ErrOccupied,
	"empty":             world.ErrEmpty,
	"same_node":         world.ErrSameNode,
	"cable_too_long":    world.ErrCableTooLong,
	"no_home":           world.ErrNoHome,
	"two_homes":         world.ErrTwoHomes,
	"not_home":          world.ErrNotHome,
	"unloaded":          world.ErrUnloaded,
	"loaded":            world.ErrLoaded,
	"unknown_component": catalog.ErrUnknownComponent,
	"duplicate_edge":    network.ErrDuplicateEdge,
}

// errorName returns the expect_error name for err, or its message.
func errorName(err error) string {
	for name, target := range namedErrors {
		if errors.Is(err, target) {
			return name
		}
	}
	return err.Error()
}

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	registry *catalog.Registry
	store    *store.Store
	gen      *testutil.FixedGenerationGenerator
	logger   *slog.Logger

	engine *engine.Engine
	cancel context.CancelFunc
	done   chan error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A
// non-nil error means the scenario could not run at all; failed steps and
// assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine and world logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	reg, err := catalog.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	generation := scenario.Generation
	if generation == "" {
		generation = DefaultGeneration
	}

	h := &Harness{
		scenario: scenario,
		registry: reg,
		store:    st,
		gen:      testutil.NewFixedGenerationGenerator(generation),
		logger:   logger,
	}

	ctx := context.Background()
	if err := h.start(ctx, false); err != nil {
		return nil, err
	}
	defer h.stop()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	w := h.engine.World()
	result.Homes, err = homeStates(w)
	if err != nil {
		return nil, err
	}

	actx := &AssertionContext{Ctx: ctx, World: w, Store: st, Generation: generation}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// start creates a world and engine over the shared store. With restore
// set, placements and records are read back first.
func (h *Harness) start(ctx context.Context, restore bool) error {
	policy, err := home.ParseRadiusPolicy(h.scenario.RadiusSource)
	if err != nil {
		return err
	}

	opts := []world.Option{world.WithRadiusPolicy(policy), world.WithLogger(h.logger)}
	if h.scenario.MaxCableLength > 0 {
		opts = append(opts, world.WithMaxCableLength(h.scenario.MaxCableLength))
	}

	eng := engine.New(h.store, world.New(h.registry, opts...), h.gen, engine.WithLogger(h.logger))
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	if restore {
		if _, err := eng.Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore world: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.engine, h.cancel, h.done = eng, cancel, make(chan error, 1)
	go func() { h.done <- eng.Run(runCtx) }()
	return nil
}

// stop drains the engine and waits for Run to return.
func (h *Harness) stop() {
	if h.engine == nil {
		return
	}
	h.engine.Stop()
	<-h.done
	h.cancel()
	h.engine = nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	ev := TraceEvent{Step: index, Op: step.Op, Args: stepArgs(step), Outcome: "ok"}

	var stepErr error
	switch step.Op {
	case OpReload:
		h.stop()
		if err := h.start(ctx, true); err != nil {
			return err
		}

	case OpWriteRecord:
		if err := h.writeRecord(ctx, step); err != nil {
			return err
		}

	default:
		sctx, cancel := context.WithTimeout(ctx, stepTimeout)
		res, err := h.engine.Submit(sctx, toEvent(step))
		cancel()
		if err != nil && !engine.IsRejected(err) {
			return err
		}
		ev.Seq = res.Seq
		stepErr = err
	}

	if stepErr != nil {
		ev.Outcome = errorName(stepErr)
	}
	result.AddTrace(ev)

	switch {
	case step.ExpectError == "" && stepErr != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", index, step.Op, stepErr))
	case step.ExpectError != "" && stepErr == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %q, step succeeded", index, step.Op, step.ExpectError))
	case step.ExpectError != "" && ev.Outcome != step.ExpectError:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got %q", index, step.Op, step.ExpectError, ev.Outcome))
	}
	return nil
}

func (h *Harness) writeRecord(ctx context.Context, step Step) error {
	pos, _ := ir.ParsePos(step.Pos)
	rec := home.Record{
		Connections:    step.Record.Connections,
		WireSystemInfo: step.Record.WireSystemInfo,
		PlayRadius:     step.Record.PlayRadius,
	}

	hr, err := store.NewHomeRecord(pos, step.Component, rec, h.engine.Clock().Current(), h.engine.Generation())
	if err != nil {
		return err
	}
	return h.store.WriteRecord(ctx, hr)
}

// toEvent converts a validated engine step.
func toEvent(step Step) engine.Event {
	pos, _ := ir.ParsePos(step.Pos)
	a, _ := ir.ParsePos(step.A)
	b, _ := ir.ParsePos(step.B)

	switch step.Op {
	case OpPlace:
		return engine.Place(pos, step.Component)
	case OpBreak:
		return engine.Break(pos)
	case OpConnect:
		return engine.Connect(a, b)
	case OpDisconnect:
		return engine.Disconnect(a, b)
	case OpUnload:
		return engine.Unload(pos)
	case OpLoad:
		return engine.Load(pos)
	default:
		return engine.Save()
	}
}

// stepArgs renders a step's operands for the trace.
func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	if step.Pos != "" {
		args["pos"] = step.Pos
	}
	if step.A != "" {
		args["a"] = step.A
	}
	if step.B != "" {
		args["b"] = step.B
	}
	if step.Component != "" {
		args["component"] = step.Component
	}
	if step.Record != nil {
		args["connections"] = step.Record.Connections
		args["wire_system_info"] = step.Record.WireSystemInfo
	}
	return args
}

func homeStates(w *world.World) ([]HomeState, error) {
	states := []HomeState{}
	for _, node := range w.Homes() {
		rec, err := node.Save()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", node.Pos(), err)
		}
		states = append(states, HomeState{
			Pos:            node.Pos().String(),
			Connections:    rec.Connections,
			WireSystemInfo: rec.WireSystemInfo,
			SongRadius:     ir.FormatCapacity(node.SongRadius()),
		})
	}
	return states, nil
}
