package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/session"
	"github.com/matzehuels/xrspace/pkg/space"
)

// recenterCommand creates the recenter command.
func (c *CLI) recenterCommand() *cobra.Command {
	var at time.Duration

	cmd := &cobra.Command{
		Use:   "recenter",
		Short: "Recenter the local spaces on the head",
		Long: `Recenter the local and local_floor spaces on the current head pose.

Both spaces move under the head, keep their height and turn to face the
head's heading. The view is printed in local before and after, followed by
the reference space change events the recenter emitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRecenter(cmd.Context(), at)
		},
	}

	cmd.Flags().DurationVar(&at, "at", 0, "time of the recenter since the rig started (e.g. 2s)")

	return cmd
}

func (c *CLI) runRecenter(_ context.Context, at time.Duration) error {
	events := session.NewQueue(session.DefaultQueueSize)
	atNS := at.Nanoseconds()

	rig, err := c.openRig(
		space.WithBroadcast(events),
		space.WithClock(func() int64 { return atNS }),
	)
	if err != nil {
		return err
	}
	defer rig.Close()
	o := rig.Overseer

	local, err := rig.Semantic(device.ReferenceSpaceLocal.String())
	if err != nil {
		return err
	}
	defer local.Release()
	view, err := rig.Semantic(device.ReferenceSpaceView.String())
	if err != nil {
		return err
	}
	defer view.Release()

	before := o.LocateSpace(local, pose.Identity(), atNS, view, pose.Identity())

	if err := o.RecenterLocalSpaces(); err != nil {
		if errors.IsCapabilityAbsent(err) {
			printWarning("Recenter skipped: %s", errors.UserMessage(err))
			return nil
		}
		return err
	}

	after := o.LocateSpace(local, pose.Identity(), atNS, view, pose.Identity())

	printSuccess("Recentered local spaces at %s", at)
	fmt.Println(renderPoseTable([]poseRow{
		{name: "view (before)", rel: before},
		{name: "view (after)", rel: after},
	}))

	printNewline()
	for {
		ev, ok := events.Poll()
		if !ok {
			break
		}
		printKeyValue(ev.Type.String(), ev.RefChange.Space.String())
	}
	offset, err := o.GetReferenceSpaceOffset(device.ReferenceSpaceLocal)
	if err == nil {
		printDetail("local now at %s facing %s", fmtPosition(offset.Position), fmtYaw(offset.Orientation))
	}
	return nil
}
