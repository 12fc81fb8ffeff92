// Package cli implements the deppatcher command-line interface.
//
// deppatcher rewrites the dependency declarations of every Cargo.toml below
// a directory using a rule, and keeps the original declarations in a ledger
// inside each manifest so they can be restored.
//
// # Commands
//
//   - patch: apply a rule to every manifest
//   - soft-patch: print a [patch] section computed from the resolved graph
//   - revert: restore every recorded declaration
//   - freeze: drop the ledgers, keeping the current declarations
//   - link: point dependencies at the members of another workspace
//   - graph: export or render the resolved graph
//   - status: list manifests with recorded declarations
//   - cache: manage the cargo metadata cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deppatcher/pkg/buildinfo"
	"github.com/matzehuels/deppatcher/pkg/cache"
	"github.com/matzehuels/deppatcher/pkg/config"
	"github.com/matzehuels/deppatcher/pkg/metadata"
	"github.com/matzehuels/deppatcher/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "deppatcher"

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

	// Out receives command output (diffs, generated tables); Err receives
	// the spinner; In is read for rules given as "-".
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Exec overrides how cargo is run. Nil runs the real binary.
	Exec metadata.ExecFunc

	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Err:    os.Stderr,
		In:     os.Stdin,
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "deppatcher rewrites dependency sources across Cargo manifests",
		Long: `deppatcher rewrites the dependency declarations of every Cargo.toml below a
directory using a rule, remembering the original declarations inside each
manifest so that they can be reverted later.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default: .deppatcher.toml, then the user config dir)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "do not read or write the cargo metadata cache")

	root.AddCommand(c.patchCommand())
	root.AddCommand(c.softPatchCommand())
	root.AddCommand(c.revertCommand())
	root.AddCommand(c.freezeCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	if c.noCache {
		cfg.NoCache = true
	}
	c.cfg = cfg
	observability.SetCacheHooks(&cacheLogHooks{logger: c.Logger})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a cargo metadata runner for CLI use.
func (c *CLI) newRunner() *metadata.Runner {
	return &metadata.Runner{
		Cargo:    c.cfg.Cargo,
		Cache:    c.newCache(),
		TTL:      c.cfg.CacheTTL.Duration,
		Exec:     c.Exec,
		Excludes: c.cfg.Exclude,
		Logger:   c.Logger,
	}
}

func (c *CLI) newCache() cache.Cache {
	if c.cfg.NoCache {
		return cache.NewNullCache()
	}
	dir, err := config.CacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}
