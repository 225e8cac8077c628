package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/store"
)

// ReplayGeneration describes one replayed generation.
type ReplayGeneration struct {
	Generation     string `json:"generation"`
	EngineVersion  string `json:"engine_version"`
	Events         int    `json:"events"`
	CatalogMatches bool   `json:"catalog_matches"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Generations   []ReplayGeneration  `json:"generations"`
	Homes         int                 `json:"homes"`
	Deterministic bool                `json:"deterministic"`
	Compared      bool                `json:"compared"`
	Divergences   []engine.Divergence `json:"divergences"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [generation]",
		Short: "Replay the event journal and compare with the stored world",
		Long: `Re-apply journaled events to a fresh world, in generation order, and check
the result.

The journal is replayed twice to verify determinism. When every generation
is replayed, each home's topology digest is also compared with the world
restored from the database. With a generation argument, replay stops after
that generation and only an earlier generation skips the comparison.

Exit codes:
  0 - Replay is deterministic and matches the stored world
  1 - Non-deterministic replay or divergent homes
  2 - Command error (database not found, unknown generation, etc.)

Examples:
  recordwire replay
  recordwire replay 0190f5c2-7a3e-7b1c-9d4e-3f2a1b0c9d8e --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var until string
			if len(args) == 1 {
				until = args[0]
			}
			return runReplay(rootOpts, until, cmd)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, until string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ws, err := openWorkspace(ctx, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	sessions, err := ws.store.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list generations", err)
	}

	if len(sessions) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), ReplayResult{
				Generations:   []ReplayGeneration{},
				Deterministic: true,
				Divergences:   []engine.Divergence{},
			}, nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No generations found in database.")
		return nil
	}

	compared := true
	if until != "" {
		i := slices.IndexFunc(sessions, func(s store.Session) bool { return s.Generation == until })
		if i < 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown generation %q", until))
		}
		compared = i == len(sessions)-1
		sessions = sessions[:i+1]
	}

	result, err := replaySessions(ctx, opts, ws, sessions, compared)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	var failure error
	switch {
	case !result.Deterministic:
		failure = NewExitError(ExitFailure, "replay is not deterministic")
	case len(result.Divergences) > 0:
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d home(s) diverge from the stored world", len(result.Divergences)))
	}

	if opts.Format == "json" {
		var cliErr *CLIError
		if failure != nil {
			cliErr = &CLIError{Code: "E_REPLAY_DIVERGED", Message: failure.Error()}
		}
		if err := writeJSON(cmd.OutOrStdout(), result, cliErr); err != nil {
			return err
		}
		return failure
	}

	w := cmd.OutOrStdout()
	printTitle(w, fmt.Sprintf("Replayed %d generation(s)", len(result.Generations)))
	for _, g := range result.Generations {
		line := fmt.Sprintf("%s  %d event(s)", g.Generation, g.Events)
		if !g.CatalogMatches {
			line += "  " + styleWarning.Render("catalog changed since this generation")
		}
		fmt.Fprintln(w, line)
	}
	for _, d := range result.Divergences {
		printFailure(w, "%s diverges", d.Pos)
		printDetail(w, "live %s", d.Live)
		printDetail(w, "replayed %s", d.Replayed)
	}
	if failure != nil {
		return failure
	}
	if result.Compared {
		printSuccess(w, "%d home(s) match the stored world", result.Homes)
	} else {
		printSuccess(w, "Replay deterministic (%d home(s) loaded)", result.Homes)
	}
	return nil
}

func replaySessions(ctx context.Context, opts *RootOptions, ws *workspace, sessions []store.Session, compare bool) (ReplayResult, error) {
	result := ReplayResult{
		Generations: make([]ReplayGeneration, 0, len(sessions)),
		Compared:    compare,
		Divergences: []engine.Divergence{},
	}

	generations := make([]string, 0, len(sessions))
	for _, s := range sessions {
		events, err := ws.store.ReadEvents(ctx, s.Generation)
		if err != nil {
			return result, err
		}
		generations = append(generations, s.Generation)
		result.Generations = append(result.Generations, ReplayGeneration{
			Generation:     s.Generation,
			EngineVersion:  s.EngineVersion,
			Events:         len(events),
			CatalogMatches: s.CatalogDigest == ws.registry.Digest(),
		})
	}

	first, err := engine.Replay(ctx, ws.store, ws.registry, generations, worldOptions(opts)...)
	if err != nil {
		return result, err
	}
	second, err := engine.Replay(ctx, ws.store, ws.registry, generations, worldOptions(opts)...)
	if err != nil {
		return result, err
	}

	diffs, err := engine.Compare(first, second)
	if err != nil {
		return result, err
	}
	result.Deterministic = len(diffs) == 0
	result.Homes = len(first.Homes())

	if compare {
		diffs, err := engine.Compare(ws.world, first)
		if err != nil {
			return result, err
		}
		for _, d := range diffs {
			// Restore loads every home; the journal may end with one unloaded.
			if d.Replayed == "" && first.Exists(d.Pos) {
				continue
			}
			result.Divergences = append(result.Divergences, d)
		}
	}
	return result, nil
}
