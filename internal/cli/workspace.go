package cli

import (
	"context"
	"fmt"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// workspace is an opened store with a world and engine over it.
type workspace struct {
	registry *catalog.Registry
	store    *store.Store
	world    *world.World
	engine   *engine.Engine
	restored []engine.Restored
}

// openWorkspace opens the configured store and catalog and restores the world.
// The engine is not started; commands that write call Start themselves.
func openWorkspace(ctx context.Context, opts *RootOptions) (*workspace, error) {
	cfg := opts.settings()
	logger := opts.log()

	reg, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	w := world.New(reg, worldOptions(opts)...)
	eng := engine.New(st, w, engine.UUIDv7Generator{}, engine.WithLogger(logger))

	restored, err := eng.Restore(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to restore world", err)
	}

	logger.Debug("environment ready",
		"db", cfg.Database.Path,
		"catalog_digest", reg.Digest(),
		"homes", len(restored))

	return &workspace{registry: reg, store: st, world: w, engine: eng, restored: restored}, nil
}

// worldOptions builds world options from the resolved config.
func worldOptions(opts *RootOptions) []world.Option {
	cfg := opts.settings()
	return []world.Option{
		world.WithMaxCableLength(cfg.Network.MaxCableLength),
		world.WithRadiusPolicy(cfg.RadiusPolicy()),
		world.WithLogger(opts.log()),
	}
}

// run starts a generation and the engine loop. The returned stop function
// drains the queue and waits for the loop to exit.
func (ws *workspace) run(ctx context.Context) (func() error, error) {
	if err := ws.engine.Start(ctx); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- ws.engine.Run(context.WithoutCancel(ctx)) }()

	return func() error {
		ws.engine.Stop()
		return <-done
	}, nil
}

func (ws *workspace) Close() error {
	return ws.store.Close()
}
