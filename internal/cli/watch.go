package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/pkg/config"
	"github.com/matzehuels/xrspace/pkg/device"
	xerrors "github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/session"
	"github.com/matzehuels/xrspace/pkg/space"
)

const defaultWatchInterval = 100 * time.Millisecond

var watchHelpStyle = lipgloss.NewStyle().Foreground(colorDim)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	base     string
	interval time.Duration
}

// watchCommand creates the watch command for live pose display.
func (c *CLI) watchCommand() *cobra.Command {
	opts := watchOpts{base: defaultBase, interval: defaultWatchInterval}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show live poses of every device",
		Long: `Show live poses of every device and the view in a base space.

Keys:
  b  cycle through the reference spaces the rig provides
  r  recenter the local spaces on the head
  q  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interval <= 0 {
				return xerrors.New(xerrors.ErrCodeInvalidInput, "interval must be positive, got %s", opts.interval)
			}
			return c.runWatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", opts.base, "initial reference space")
	cmd.Flags().DurationVar(&opts.interval, "interval", opts.interval, "refresh interval")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts watchOpts) error {
	start := time.Now()
	events := session.NewQueue(session.DefaultQueueSize)

	rig, err := c.openRig(
		space.WithBroadcast(events),
		space.WithClock(func() int64 { return time.Since(start).Nanoseconds() }),
	)
	if err != nil {
		return err
	}
	defer rig.Close()

	m, err := newWatchModel(rig, events, opts, start)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// =============================================================================
// WatchModel - Live pose table
// =============================================================================

type tickMsg time.Time

// WatchModel is the bubbletea model for the live pose table.
type WatchModel struct {
	rig      *config.Rig
	events   *session.Queue
	start    time.Time
	interval time.Duration

	bases   []device.ReferenceSpace
	baseIdx int
	names   []string

	rows   []poseRow
	status string
}

func newWatchModel(rig *config.Rig, events *session.Queue, opts watchOpts, start time.Time) (WatchModel, error) {
	want, err := device.ParseReferenceSpace(opts.base)
	if err != nil {
		return WatchModel{}, xerrors.Wrap(xerrors.ErrCodeInvalidInput, err, "bad base %q", opts.base)
	}

	m := WatchModel{
		rig:      rig,
		events:   events,
		start:    start,
		interval: opts.interval,
		baseIdx:  -1,
	}
	for k := device.ReferenceSpace(0); k < device.ReferenceSpaceCount; k++ {
		sp := rig.Overseer.Semantic(k)
		if sp == nil {
			continue
		}
		sp.Release()
		if k == want {
			m.baseIdx = len(m.bases)
		}
		m.bases = append(m.bases, k)
	}
	if m.baseIdx < 0 {
		return WatchModel{}, xerrors.New(xerrors.ErrCodeUnsupported, "reference space %s is not provided by this rig", want)
	}

	m.names = append(m.names, device.ReferenceSpaceView.String())
	m.names = append(m.names, rig.Names()...)
	return m, nil
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd {
	return m.tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "b":
			m.baseIdx = (m.baseIdx + 1) % len(m.bases)
			m.status = "base: " + m.base().String()
		case "r":
			m.status = m.recenter()
		}
	case tickMsg:
		m.sample(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

func (m WatchModel) base() device.ReferenceSpace {
	return m.bases[m.baseIdx]
}

// sample locates every row at t and drains pending session events.
func (m *WatchModel) sample(t time.Time) {
	located, err := m.rig.Locate(m.base().String(), t.Sub(m.start).Nanoseconds(), m.names)
	if err != nil {
		m.rows = nil
		m.status = xerrors.UserMessage(err)
		return
	}
	m.rows = poseRows(located)

	for {
		ev, ok := m.events.Poll()
		if !ok {
			break
		}
		m.status = fmt.Sprintf("%s: %s", ev.Type, ev.RefChange.Space)
	}
}

func (m WatchModel) recenter() string {
	err := m.rig.Overseer.RecenterLocalSpaces()
	switch {
	case err == nil:
		return "recentered"
	case xerrors.IsCapabilityAbsent(err):
		return "recenter skipped: " + xerrors.UserMessage(err)
	}
	return "recenter failed: " + err.Error()
}

func (m WatchModel) View() string {
	var b strings.Builder

	elapsed := time.Since(m.start).Round(time.Second / 10)
	b.WriteString(StyleTitle.Render("Spaces in " + m.base().String()))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  t=%s", elapsed)))
	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("b base  r recenter  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) > 0 {
		b.WriteString(renderPoseTable(m.rows))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleSuccess.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}
