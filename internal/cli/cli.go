// Package cli implements the callchain command-line interface.
//
// The commands read an object description (sections and symbols) and one or
// more call-graph profiles, run them through the ordering pipeline and write
// the result in a form a linker or a human can consume.
//
// # Commands
//
//   - order: write a symbol ordering file, a section order, or a JSON report
//   - place: print the address every section would receive
//   - graph: render the clustered call graph as DOT, SVG, or PNG
//   - serve: expose ordering and rendering over HTTP with Prometheus metrics
//   - cache: inspect or clear the result cache
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/callchain/config.toml; flags override
// the file. Loggers are passed through context.Context so long-running
// commands can report progress at the level selected with --verbose.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/callchain/pkg/buildinfo"
	"github.com/matzehuels/callchain/pkg/cache"
	"github.com/matzehuels/callchain/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "callchain"

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
	Config *Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Callchain orders code sections by call-graph profile",
		Long: `Callchain reorders the input sections of a link so that functions that call
each other often end up on the same page. It reads an object description and
one or more call-graph profiles, clusters the sections with call-chain
clustering, and writes a symbol ordering file the linker can consume.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/callchain/config.toml)")

	root.AddCommand(c.orderCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool, keyer cache.Keyer) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// newCache opens the configured cache backend. A file cache whose directory
// cannot be determined degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case cacheBackendNone:
		return cache.NewNullCache(), nil
	case cacheBackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: c.Config.Cache.RedisAddr})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/callchain/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
