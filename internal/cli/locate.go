package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/pkg/config"
)

const defaultBase = "local"

// locateOpts holds the command-line flags for the locate command.
type locateOpts struct {
	base string        // reference space the results are expressed in
	at   time.Duration // sample time, measured from the rig's start
}

// locateCommand creates the locate command for resolving spaces in a base.
func (c *CLI) locateCommand() *cobra.Command {
	opts := locateOpts{base: defaultBase}

	cmd := &cobra.Command{
		Use:   "locate [name...]",
		Short: "Locate devices or reference spaces in a base space",
		Long: `Locate devices or reference spaces in a base space.

Each name is a device from the rig, standing for the pose of the input it
reports on, or a reference space (view, local, local_floor, stage,
unbounded). Without names, every device in the rig is located. All names are
resolved in one batch so they share a single sample of the base.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLocate(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", opts.base, "reference space to express results in")
	cmd.Flags().DurationVar(&opts.at, "at", 0, "sample time since the rig started (e.g. 2s)")

	return cmd
}

func (c *CLI) runLocate(_ context.Context, names []string, opts locateOpts) error {
	rig, err := c.openRig()
	if err != nil {
		return err
	}
	defer rig.Close()

	if len(names) == 0 {
		names = rig.Names()
	}

	located, err := rig.Locate(opts.base, opts.at.Nanoseconds(), names)
	if err != nil {
		return err
	}

	printInfo("Located in %s at %s", StyleNumber.Render(opts.base), opts.at)
	fmt.Println(renderPoseTable(poseRows(located)))
	return nil
}

func poseRows(located []config.Located) []poseRow {
	rows := make([]poseRow, len(located))
	for i, l := range located {
		rows[i] = poseRow{name: l.Name, rel: l.Relation, err: l.Err}
	}
	return rows
}
