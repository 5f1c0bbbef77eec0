package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/pkg/buildinfo"
	"github.com/matzehuels/xrspace/pkg/config"
	"github.com/matzehuels/xrspace/pkg/space"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "spacectl"

	// builtinRig names the rig used when --rig is not given.
	builtinRig = "built-in"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	rigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "spacectl inspects XR reference space graphs",
		Long: `spacectl builds a space graph for a rig of simulated tracked devices and
lets you draw it, locate spaces and devices in each other, recenter the local
spaces and watch live poses.

Rigs are TOML files (see --rig). Without one, a built-in rig with a head
walking a circle and a controller held still is used.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.rigPath, "rig", "", "rig file (TOML); the built-in rig when empty")

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.locateCommand())
	root.AddCommand(c.recenterCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.stressCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Rig Factory
// =============================================================================

// loadConfig reads the rig file named by --rig, or the built-in rig.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.rigPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.rigPath)
}

// openRig builds the configured rig. The overseer logs through the CLI
// logger; opts are applied after that and may override it.
func (c *CLI) openRig(opts ...space.Option) (*config.Rig, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	all := append([]space.Option{space.WithLogger(c.Logger)}, opts...)
	rig, err := cfg.Build(all...)
	if err != nil {
		return nil, err
	}

	src := c.rigPath
	if src == "" {
		src = builtinRig
	}
	c.Logger.Debug("rig ready", "source", src, "devices", len(rig.Devices), "origins", len(rig.Origins))
	return rig, nil
}
