package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/server"
)

// saveTimeout bounds the final save on shutdown.
const saveTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Restore the world and serve it over HTTP",
		Long: `Restore placements and home records from the database, start a new engine
generation and serve a read-only HTTP view of the world.

On SIGINT or SIGTERM the server shuts down and the world is saved.

Examples:
  recordwire serve
  recordwire serve --addr :8080 --config ./recordwire.toml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Addr == "" {
				opts.Addr = opts.settings().Server.Addr
			}
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.log()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ws, err := openWorkspace(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	for _, r := range ws.restored {
		if r.Report.Changed() {
			logger.Warn("home healed on restore", "pos", r.Pos.String(), "source", r.Report.Source)
		}
	}

	stop, err := ws.run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	srv := server.New(ws.world, server.WithLogger(logger))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d home(s) on %s. Press Ctrl-C to stop.\n", len(ws.world.Homes()), opts.Addr)
	serveErr := srv.ListenAndServe(ctx, opts.Addr)

	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer saveCancel()
	res, saveErr := ws.engine.Submit(saveCtx, engine.Save())
	if saveErr == nil {
		logger.Info("world saved", "homes", res.Saved, "seq", res.Seq)
	}

	if err := stop(); err != nil {
		logger.Error("engine stopped with error", "error", err)
	}

	if err := errors.Join(serveErr, saveErr); err != nil {
		return WrapExitError(ExitFailure, "serve failed", err)
	}
	return nil
}
