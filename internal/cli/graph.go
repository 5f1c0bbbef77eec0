package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file; stdout when empty
	format   string // "dot" or "svg"
	detailed bool   // include offsets and space IDs in labels
}

// graphCommand creates the graph command for drawing the space graph.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the space graph as DOT or SVG",
		Long: `Draw the space graph of the rig as a node-link diagram.

The root space is at the top. Reference spaces are filled, device pose spaces
are drawn as ellipses and null spaces with a dashed outline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateGraphFormat(opts.format); err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show offsets and space IDs")

	return cmd
}

func validateGraphFormat(format string) error {
	switch format {
	case formatDOT, formatSVG:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want %s or %s)", format, formatSVG, formatDOT)
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	rig, err := c.openRig()
	if err != nil {
		return err
	}
	defer rig.Close()

	prog := newProgress(c.Logger)
	g := rig.Overseer.Snapshot()
	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed})

	out := []byte(dot)
	if opts.format == formatSVG {
		if out, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return fmt.Errorf("render graph: %w", err)
		}
	}
	prog.done(fmt.Sprintf("Drew %d spaces", len(g.Nodes)))

	if opts.output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Space graph written")
	printFile(opts.output)
	return nil
}
