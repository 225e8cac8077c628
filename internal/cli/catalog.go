package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/ir"
)

// CatalogResult is the output of the catalog command.
type CatalogResult struct {
	Digest     string        `json:"digest"`
	Components []catalog.Def `json:"components"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List component definitions",
		Long: `List every component in the catalog with its role, capacity and loudness.

The catalog is the embedded one unless catalog.path is configured or --file
is given.

Examples:
  recordwire catalog
  recordwire catalog --file ./parts.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rootOpts.settings().Catalog.Path
			}
			return runCatalog(rootOpts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "CUE catalog file to list instead of the configured one")

	return cmd
}

func runCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	reg, err := catalog.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	result := CatalogResult{Digest: reg.Digest(), Components: reg.Defs()}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result, nil)
	}

	w := cmd.OutOrStdout()
	printTitle(w, fmt.Sprintf("%d components", len(result.Components)))
	for _, def := range result.Components {
		line := fmt.Sprintf("%-20s %-5s capacity %s", def.Name(), def.Role, styleNumber.Render(ir.FormatCapacity(def.Capacity)))
		if def.Audible() {
			line += fmt.Sprintf("  loudness %s", ir.FormatCapacity(def.Loudness))
		}
		fmt.Fprintln(w, line)
		if opts.Verbose && def.Description != "" {
			printDetail(w, "%s", def.Description)
		}
	}
	printDetail(w, "digest %s", result.Digest)
	return nil
}
