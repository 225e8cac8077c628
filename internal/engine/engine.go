package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// Engine is the single-writer event loop over a world and its store.
//
// Thread-safety model:
//   - Enqueue, Submit: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Start, Restore: call before Run
//   - World: safe for readers; the world locks internally
type Engine struct {
	store      *store.Store
	world      *world.World
	clock      *Clock
	queue      *eventQueue
	gen        GenerationGenerator
	generation string
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets a pre-configured clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over a world and its store.
func New(s *store.Store, w *world.World, gen GenerationGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		world:  w,
		clock:  NewClock(),
		queue:  newEventQueue(),
		gen:    gen,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// World returns the world the engine writes to.
func (e *Engine) World() *world.World { return e.world }

// Store returns the engine's store.
func (e *Engine) Store() *store.Store { return e.store }

// Generation returns the id of the current generation, or "" before Start.
func (e *Engine) Generation() string { return e.generation }

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock { return e.clock }

// QueueLen returns the number of events waiting to be applied.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Start opens a new generation and records its session.
func (e *Engine) Start(ctx context.Context) error {
	generation := e.gen.Generate()

	last, err := e.store.LastSeq(ctx, generation)
	if err != nil {
		return fmt.Errorf("start generation %s: %w", generation, err)
	}
	if last > e.clock.Current() {
		e.clock = NewClockAt(last)
	}

	err = e.store.WriteSession(ctx, store.Session{
		Generation:    generation,
		EngineVersion: ir.EngineVersion,
		CatalogDigest: e.world.Registry().Digest(),
	})
	if err != nil {
		return fmt.Errorf("start generation %s: %w", generation, err)
	}

	e.generation = generation
	e.logger.Info("generation started", "generation", generation, "seq", e.clock.Current())
	return nil
}

// Restored is the outcome of loading one home during Restore.
type Restored struct {
	Pos ir.Pos `json:"pos"`

	// Stored is false when the home had no record and started empty.
	Stored bool `json:"stored"`

	// Intact is false when the record's digest did not match.
	Intact bool `json:"intact"`

	Report home.LoadReport `json:"report"`
}

// Restore rebuilds the world from the store: placements first, then every
// home, from its record when one exists. It must run before Run.
func (e *Engine) Restore(ctx context.Context) ([]Restored, error) {
	blocks, err := e.store.ListBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := e.world.Restore(blocks); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	byPos := make(map[ir.Pos]store.HomeRecord, len(records))
	for _, rec := range records {
		byPos[rec.Pos] = rec
	}

	reg := e.world.Registry()
	var out []Restored
	for _, b := range blocks {
		def, ok := reg.Lookup(b.Component)
		if !ok || !def.IsHome() {
			continue
		}

		rec, stored := byPos[b.Pos]
		r := Restored{Pos: b.Pos, Stored: stored, Intact: !stored || rec.Intact()}
		if !r.Intact {
			e.logger.Warn("home record digest mismatch",
				"pos", b.Pos.String(),
				"generation", rec.Generation,
				"seq", rec.Seq,
			)
		}

		r.Report, err = e.world.LoadHome(b.Pos, rec.Record)
		if err != nil {
			return out, fmt.Errorf("restore: %w", err)
		}
		out = append(out, r)
	}

	e.logger.Info("world restored", "blocks", len(blocks), "homes", len(out))
	return out, nil
}

// Enqueue submits an event for processing by the Run loop.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Submit enqueues ev and waits for its result. The returned error is
// Result.Err, or the context's error if ctx ends first.
func (e *Engine) Submit(ctx context.Context, ev Event) (Result, error) {
	ev.reply = make(chan Result, 1)
	if !e.queue.Enqueue(ev) {
		return Result{Err: errStopped}, errStopped
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ev.reply:
		return res, res.Err
	}
}

// Run starts the single-writer event loop.
// Blocks until ctx is cancelled or Stop is called and the queue drains.
//
// A failed event is logged and replied to; the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "generation", e.generation)

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			res := e.process(ctx, ev)
			if res.Err != nil {
				e.logger.Error("event failed",
					"event", ev.Type.String(),
					"pos", ev.Pos.String(),
					"error", res.Err,
				)
			}
			if ev.reply != nil {
				ev.reply <- res
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			for _, pending := range e.queue.Drain() {
				if pending.reply != nil {
					pending.reply <- Result{Err: errStopped}
				}
			}
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Done() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue. Run applies what is already queued and
// returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// process applies ev and journals it when accepted.
// Called only from the Run goroutine.
func (e *Engine) process(ctx context.Context, ev Event) Result {
	res := e.apply(ctx, ev)
	if res.Err != nil {
		return res
	}

	res.Seq = e.clock.Next()
	err := e.store.AppendEvent(ctx, store.Event{
		Generation: e.generation,
		Seq:        res.Seq,
		Kind:       ev.Type.String(),
		Args:       ev.args(),
	})
	if err != nil {
		res.Err = storageFailed(ev.Type, "journal", err)
		return res
	}

	e.logger.Debug("event applied", "event", ev.Type.String(), "seq", res.Seq)
	return res
}

// pendingSeq is the seq the event being applied will be journaled with.
// Run is the only writer, so no other event can take it first.
func (e *Engine) pendingSeq() int64 {
	return e.clock.Current() + 1
}

func (e *Engine) apply(ctx context.Context, ev Event) Result {
	switch ev.Type {
	case EventPlace:
		if err := e.world.Place(ev.Pos, ev.Component); err != nil {
			return Result{Err: rejected(ev.Type, err)}
		}
		return Result{}

	case EventBreak:
		def, err := e.world.Break(ev.Pos)
		if err != nil {
			return Result{Err: rejected(ev.Type, err)}
		}
		// A broken home's stored record is pruned by the next save.
		return Result{Broken: def}

	case EventConnect:
		conn, err := e.world.Connect(ev.Pos, ev.Other)
		if err != nil {
			return Result{Err: rejected(ev.Type, err)}
		}
		return Result{Connection: conn}

	case EventDisconnect:
		removed, err := e.world.Disconnect(ev.Pos, ev.Other)
		if err != nil {
			return Result{Err: rejected(ev.Type, err)}
		}
		return Result{Removed: removed}

	case EventUnload:
		return e.unload(ctx, ev)

	case EventLoad:
		return e.load(ctx, ev)

	case EventSave:
		return e.save(ctx, ev)

	default:
		return Result{Err: &RuntimeError{
			Code:    ErrCodeInvalidEvent,
			Event:   ev.Type,
			Message: "unknown event type",
		}}
	}
}

// unload writes the home's record before discarding its network, so a
// failed write leaves the home loaded.
func (e *Engine) unload(ctx context.Context, ev Event) Result {
	node, err := e.world.Home(ev.Pos)
	if err != nil {
		return Result{Err: rejected(ev.Type, err)}
	}

	rec, err := node.Save()
	if err != nil {
		return Result{Err: rejected(ev.Type, err)}
	}

	hr, err := store.NewHomeRecord(ev.Pos, node.Name(), rec, e.pendingSeq(), e.generation)
	if err != nil {
		return Result{Err: rejected(ev.Type, err)}
	}
	if err := e.store.WriteRecord(ctx, hr); err != nil {
		return Result{Err: storageFailed(ev.Type, "write record", err)}
	}

	if _, err := e.world.Unload(ev.Pos); err != nil {
		return Result{Err: rejected(ev.Type, err)}
	}
	return Result{Saved: 1}
}

func (e *Engine) load(ctx context.Context, ev Event) Result {
	var rec home.Record

	hr, err := e.store.ReadRecord(ctx, ev.Pos)
	switch {
	case store.IsNotFound(err):
		e.logger.Debug("no stored record, loading empty home", "pos", ev.Pos.String())
	case err != nil:
		return Result{Err: storageFailed(ev.Type, "read record", err)}
	default:
		if !hr.Intact() {
			e.logger.Warn("home record digest mismatch",
				"pos", ev.Pos.String(),
				"generation", hr.Generation,
				"seq", hr.Seq,
			)
		}
		rec = hr.Record
	}

	report, err := e.world.LoadHome(ev.Pos, rec)
	if err != nil {
		return Result{Err: rejected(ev.Type, err)}
	}
	return Result{Report: &report}
}

func (e *Engine) save(ctx context.Context, ev Event) Result {
	seq := e.pendingSeq()

	homes := e.world.Homes()
	records := make([]store.HomeRecord, 0, len(homes))
	for _, node := range homes {
		rec, err := node.Save()
		if err != nil {
			return Result{Err: rejected(ev.Type, fmt.Errorf("save %s: %w", node.Pos(), err))}
		}
		hr, err := store.NewHomeRecord(node.Pos(), node.Name(), rec, seq, e.generation)
		if err != nil {
			return Result{Err: rejected(ev.Type, err)}
		}
		records = append(records, hr)
	}

	if err := e.store.SaveWorld(ctx, e.world.Blocks(), records); err != nil {
		return Result{Err: storageFailed(ev.Type, "save world", err)}
	}

	e.logger.Info("world saved", "blocks", len(e.world.Blocks()), "homes", len(records), "seq", seq)
	return Result{Saved: len(records)}
}
