package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/xrspace/pkg/config"
	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/observability/prom"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/space"
)

const (
	defaultStressWorkers  = 4
	defaultStressDuration = 2 * time.Second
	recenterInterval      = 50 * time.Millisecond
)

// stressOpts holds the command-line flags for the stress command.
type stressOpts struct {
	workers  int
	duration time.Duration
	metrics  bool
}

// stressStats counts operations across all workers.
type stressStats struct {
	locates   atomic.Int64
	recenters atomic.Int64
	skipped   atomic.Int64
	churn     atomic.Int64
	usage     atomic.Int64
}

// stressCommand creates the stress command.
func (c *CLI) stressCommand() *cobra.Command {
	opts := stressOpts{workers: defaultStressWorkers, duration: defaultStressDuration}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Exercise the space graph from concurrent workers",
		Long: `Exercise the space graph from concurrent workers.

Locators resolve every device and reference space in a rotating base while
other workers recenter the local spaces, create and drop pose spaces and
count reference space usage up and down. Use --metrics to print the
Prometheus metrics collected during the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.workers < 1 {
				return errors.New(errors.ErrCodeInvalidInput, "need at least one worker, got %d", opts.workers)
			}
			if opts.duration <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "duration must be positive, got %s", opts.duration)
			}
			return c.runStress(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "number of locator workers")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", opts.duration, "how long to run")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print collected metrics")

	return cmd
}

func (c *CLI) runStress(ctx context.Context, opts stressOpts) error {
	reg := prometheus.NewRegistry()
	hooks := prom.NewHooks(reg)
	observability.SetLocateHooks(hooks)
	observability.SetGraphHooks(hooks)
	defer observability.Reset()

	rig, err := c.openRig()
	if err != nil {
		return err
	}
	defer rig.Close()

	stats, err := stress(withLogger(ctx, c.Logger), rig, opts)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Stress run finished")
	printKeyValue("locates", StyleNumber.Render(fmt.Sprint(stats.locates.Load())))
	printKeyValue("recenters", fmt.Sprintf("%d (%d skipped)", stats.recenters.Load(), stats.skipped.Load()))
	printKeyValue("pose spaces", fmt.Sprint(stats.churn.Load()))
	printKeyValue("usage flips", fmt.Sprint(stats.usage.Load()))

	if !opts.metrics {
		printNewline()
		printNextStep("Show metrics", appName+" stress --metrics")
		return nil
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	printNewline()
	for _, line := range metricLines(families) {
		printDetail("%s", line)
	}
	return nil
}

// stress runs the workers until opts.duration has passed or ctx is done.
func stress(ctx context.Context, rig *config.Rig, opts stressOpts) (*stressStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	stats := &stressStats{}
	prog := newProgress(loggerFromContext(ctx))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.workers; i++ {
		g.Go(func() error { return locateWorker(ctx, rig, i, stats) })
	}
	g.Go(func() error { return recenterWorker(ctx, rig, stats) })
	g.Go(func() error { return churnWorker(ctx, rig, stats) })
	g.Go(func() error { return usageWorker(ctx, rig, stats) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Ran %d locators", opts.workers))
	return stats, nil
}

// locateWorker resolves every device and provided reference space, cycling
// the base space each round.
func locateWorker(ctx context.Context, rig *config.Rig, id int, stats *stressStats) error {
	logger := loggerFromContext(ctx)

	names := rig.Names()
	var bases []string
	for k := device.ReferenceSpace(0); k < device.ReferenceSpaceCount; k++ {
		if sp := rig.Overseer.Semantic(k); sp != nil {
			sp.Release()
			bases = append(bases, k.String())
			names = append(names, k.String())
		}
	}
	if len(bases) == 0 {
		return errors.New(errors.ErrCodeUnsupported, "rig provides no reference spaces")
	}

	var n int64
	for round := id; ctx.Err() == nil; round++ {
		located, err := rig.Locate(bases[round%len(bases)], space.MonotonicNS(), names)
		if err != nil {
			return err
		}
		for _, l := range located {
			if l.Err != nil {
				return fmt.Errorf("locate %s: %w", l.Name, l.Err)
			}
		}
		n += int64(len(located))
	}

	stats.locates.Add(n)
	logger.Debug("Locator done", "worker", id, "locates", n)
	return nil
}

func recenterWorker(ctx context.Context, rig *config.Rig, stats *stressStats) error {
	ticker := time.NewTicker(recenterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		err := rig.Overseer.RecenterLocalSpaces()
		switch {
		case err == nil:
		case errors.IsCapabilityAbsent(err):
			stats.skipped.Add(1)
		default:
			return err
		}
		stats.recenters.Add(1)
	}
}

// churnWorker creates a pose space per device, locates it in the root and
// drops it again. A rig without devices has nothing to churn.
func churnWorker(ctx context.Context, rig *config.Rig, stats *stressStats) error {
	if len(rig.Devices) == 0 {
		loggerFromContext(ctx).Debug("No devices, skipping pose space churn")
		return nil
	}
	o := rig.Overseer
	for i := 0; ctx.Err() == nil; i++ {
		dev := rig.Devices[i%len(rig.Devices)]
		sp, err := o.CreatePoseSpace(dev, device.InputGripPose)
		if err != nil {
			return err
		}
		o.LocateSpace(o.Root(), pose.Identity(), space.MonotonicNS(), sp, pose.Identity())
		sp.Release()
		stats.churn.Add(1)
	}
	return nil
}

// usageWorker flips the local space in and out of use.
func usageWorker(ctx context.Context, rig *config.Rig, stats *stressStats) error {
	o := rig.Overseer
	for ctx.Err() == nil {
		if err := o.RefSpaceInc(device.ReferenceSpaceLocal); err != nil {
			return err
		}
		if err := o.RefSpaceDec(device.ReferenceSpaceLocal); err != nil {
			return err
		}
		stats.usage.Add(1)
	}
	return nil
}

// metricLines formats gathered metrics one sample per line, sorted.
// Histograms are shown as count and sum.
func metricLines(families []*dto.MetricFamily) []string {
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + fmtLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	return lines
}

func fmtLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
