package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordwire/internal/engine"
	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/world"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Fix bool
}

// VerifyResult holds the outcome of checking every restored home.
type VerifyResult struct {
	Checks       []world.Check     `json:"checks"`
	Restored     []engine.Restored `json:"restored"`
	Inconsistent int               `json:"inconsistent"`
	Fixed        bool              `json:"fixed"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every home's counts against its edges",
		Long: `Restore the world from the database and check that every home's component
counts and capacity match what its edges imply.

Restoring already heals stored records; the report lists what was healed.
With --fix, homes that still disagree are rebuilt from their edges and the
world is saved under a new generation.

Exit codes:
  0 - All homes consistent (or fixed)
  1 - One or more homes inconsistent
  2 - Command error (database not found, etc.)

Examples:
  recordwire verify
  recordwire verify --fix --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "rebuild inconsistent homes and save")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ws, err := openWorkspace(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	result := VerifyResult{Checks: ws.world.Verify(opts.Fix), Restored: ws.restored}
	for _, c := range result.Checks {
		if !c.OK() {
			result.Inconsistent++
		}
	}

	if opts.Fix && (result.Inconsistent > 0 || anyHealed(ws.restored)) {
		if err := saveWorld(ctx, ws); err != nil {
			return WrapExitError(ExitFailure, "failed to save fixed world", err)
		}
		result.Fixed = true
	}

	var failure error
	if result.Inconsistent > 0 && !result.Fixed {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d home(s) inconsistent", result.Inconsistent))
	}

	if opts.Format == "json" {
		var cliErr *CLIError
		if failure != nil {
			cliErr = &CLIError{Code: "E_INCONSISTENT", Message: failure.Error()}
		}
		if err := writeJSON(cmd.OutOrStdout(), result, cliErr); err != nil {
			return err
		}
		return failure
	}

	w := cmd.OutOrStdout()
	if len(result.Checks) == 0 {
		fmt.Fprintln(w, "No homes found.")
		return nil
	}
	reports := make(map[ir.Pos]home.LoadReport, len(result.Restored))
	for _, r := range result.Restored {
		reports[r.Pos] = r.Report
	}
	for _, c := range result.Checks {
		switch {
		case c.OK():
			printSuccess(w, "%s", c.Pos)
		case c.Rebuilt != nil:
			printSuccess(w, "%s rebuilt", c.Pos)
			printDetail(w, "%v", c.Problem)
		default:
			printFailure(w, "%s", c.Pos)
			printDetail(w, "%v", c.Problem)
		}
		if report := reports[c.Pos]; report.Changed() {
			printDetail(w, "healed on restore (source %s)", report.Source)
		}
	}
	if result.Fixed {
		printSuccess(w, "World saved")
	}
	return failure
}

func anyHealed(restored []engine.Restored) bool {
	for _, r := range restored {
		if r.Report.Changed() {
			return true
		}
	}
	return false
}

// saveWorld persists the restored world under a new generation.
func saveWorld(ctx context.Context, ws *workspace) error {
	stop, err := ws.run(ctx)
	if err != nil {
		return err
	}
	_, saveErr := ws.engine.Submit(ctx, engine.Save())
	stopErr := stop()
	if saveErr != nil {
		return saveErr
	}
	return stopErr
}
