package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/network"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	DOT bool   // print the network as Graphviz DOT
	SVG string // render the network to this SVG file
}

// InspectResult describes one home and its stored record.
type InspectResult struct {
	Pos        string           `json:"pos"`
	Component  string           `json:"component"`
	Network    network.Snapshot `json:"network"`
	Links      []InspectLink    `json:"links"`
	Record     *home.Record     `json:"record,omitempty"`
	Intact     bool             `json:"intact"`
	Generation string           `json:"generation,omitempty"`
	Seq        int64            `json:"seq,omitempty"`
}

// InspectLink is one wired component.
type InspectLink struct {
	Pos       string  `json:"pos"`
	Component string  `json:"component"`
	Length    float64 `json:"length"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <x,y,z>",
		Short: "Show a home's network and stored record",
		Long: `Restore the world from the database and show one home: its edges, counts,
capacity and song radius, and the record it was last saved with.

Examples:
  recordwire inspect 0,64,0
  recordwire inspect 0,64,0 --dot | dot -Tpng > home.png
  recordwire inspect 0,64,0 --svg home.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "print the network as Graphviz DOT")
	cmd.Flags().StringVar(&opts.SVG, "svg", "", "render the network to an SVG file")

	return cmd
}

func runInspect(opts *InspectOptions, arg string, cmd *cobra.Command) error {
	pos, err := ir.ParsePos(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid position", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ws, err := openWorkspace(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	node, err := ws.world.Home(pos)
	if err != nil {
		return WrapExitError(ExitCommandError, "no home to inspect", err)
	}

	result := inspectHome(ws.world, node)
	rec, err := ws.store.ReadRecord(ctx, pos)
	switch {
	case err == nil:
		result.Record = &rec.Record
		result.Intact = rec.Intact()
		result.Generation = rec.Generation
		result.Seq = rec.Seq
	case !store.IsNotFound(err):
		return WrapExitError(ExitCommandError, "failed to read record", err)
	}

	dot := networkDOT(result)
	if opts.SVG != "" {
		svg, err := renderSVG(ctx, dot)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render SVG", err)
		}
		if err := os.WriteFile(opts.SVG, svg, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write SVG", err)
		}
		opts.log().Info("rendered network", "file", opts.SVG, "bytes", len(svg))
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.DOT:
		_, err := fmt.Fprint(w, dot)
		return err
	case opts.Format == "json":
		return writeJSON(w, result, nil)
	}

	printTitle(w, fmt.Sprintf("%s at %s", result.Component, result.Pos))
	printField(w, "song radius", styleNumber.Render(ir.FormatCapacity(result.Network.SongRadius)))
	printField(w, "base", ir.FormatCapacity(result.Network.Base))
	printField(w, "capacity", ir.FormatCapacity(result.Network.Capacity))
	for _, link := range result.Links {
		printDetail(w, "%s at %s (%.2f)", link.Component, link.Pos, link.Length)
	}
	if result.Record == nil {
		printDetail(w, "no stored record")
		return nil
	}
	printField(w, "connections", result.Record.Connections)
	printField(w, "wireSystemInfo", result.Record.WireSystemInfo)
	printField(w, "saved", fmt.Sprintf("%s/%d", result.Generation, result.Seq))
	if !result.Intact {
		fmt.Fprintln(w, styleWarning.Render("record digest does not match its strings"))
	}
	return nil
}

func inspectHome(w *world.World, node *home.Node) InspectResult {
	snap := node.Network().Snapshot()
	links := make([]InspectLink, 0, len(snap.Edges))
	for _, conn := range snap.Edges {
		name := "?"
		if c, ok := w.ComponentAt(conn.To); ok {
			name = c.Name()
		}
		links = append(links, InspectLink{
			Pos:       conn.To.String(),
			Component: name,
			Length:    conn.Length(),
		})
	}
	return InspectResult{
		Pos:       node.Pos().String(),
		Component: node.Name(),
		Network:   snap,
		Links:     links,
		Intact:    true,
	}
}

// networkDOT renders a home and its links as an undirected DOT graph.
func networkDOT(r InspectResult) string {
	var buf strings.Builder
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n",
		r.Pos, fmt.Sprintf("%s\n%s\nradius %s", r.Component, r.Pos, ir.FormatCapacity(r.Network.SongRadius)))
	for _, link := range r.Links {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", link.Pos, fmt.Sprintf("%s\n%s", link.Component, link.Pos))
		fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", r.Pos, link.Pos, fmt.Sprintf("%.2f", link.Length))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// renderSVG renders a DOT graph to SVG using Graphviz.
func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
