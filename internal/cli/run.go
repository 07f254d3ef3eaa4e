package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/callchain/pkg/observability"
	"github.com/matzehuels/callchain/pkg/pipeline"
)

// inputFlags are the flags shared by every command that runs the pipeline.
type inputFlags struct {
	pageSize   uint64
	imageBase  uint64
	headerSize uint64
	noCache    bool
	refresh    bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.pageSize, "page-size", pipeline.DefaultPageSize, "maximum cluster size in bytes (power of two)")
	cmd.Flags().Uint64Var(&f.imageBase, "image-base", pipeline.DefaultImageBase, "address of the first output segment")
	cmd.Flags().Uint64Var(&f.headerSize, "header-size", 0, "bytes reserved for the image header before the first section")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
}

// options builds pipeline options from the positional arguments, flags and
// config file. Flags set on the command line win over the config file.
func (f *inputFlags) options(cmd *cobra.Command, args []string, cfg *Config) pipeline.Options {
	opts := pipeline.Options{
		ObjectsPath:  args[0],
		ProfilePaths: args[1:],
		PageSize:     f.pageSize,
		ImageBase:    f.imageBase,
		HeaderSize:   f.headerSize,
		Refresh:      f.refresh,
	}
	if !cmd.Flags().Changed("page-size") && cfg.PageSize != 0 {
		opts.PageSize = cfg.PageSize
	}
	if !cmd.Flags().Changed("image-base") && cfg.ImageBase != 0 {
		opts.ImageBase = cfg.ImageBase
	}
	return opts
}

// runPipeline executes the pipeline behind a spinner and hands the result to
// fn while the runner is still open.
func (c *CLI) runPipeline(ctx context.Context, opts pipeline.Options, noCache bool, fn func(*pipeline.Runner, *pipeline.Result) error) error {
	runner, err := c.newRunner(ctx, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = loggerFromContext(ctx)
	prog := newProgress(opts.Logger)

	s := newSpinner(ctx, os.Stderr, "Loading inputs...")
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{s})
	defer observability.SetPipelineHooks(prev)

	s.Start()
	result, err := runner.Execute(ctx, opts)
	s.Stop()
	if err != nil {
		prog.failed("pipeline failed", err)
		return err
	}
	prog.done("ranked sections",
		"ranked", len(result.Cluster.Order),
		"sections", result.Stats.Sections,
		"clusters", len(result.Cluster.Clusters))

	return fn(runner, result)
}

// stageHooks follows the pipeline stages on a spinner.
type stageHooks struct {
	s *spinner
}

func (h stageHooks) OnLoadStart(_ context.Context, objectsPath string, shards int) {
	h.s.SetMessage(fmt.Sprintf("Loading %s and %d profile(s)...", filepath.Base(objectsPath), shards))
}

func (h stageHooks) OnLoadComplete(context.Context, int, int, time.Duration, error) {}

func (h stageHooks) OnClusterStart(_ context.Context, entries int, _ uint64) {
	h.s.SetMessage(fmt.Sprintf("Clustering %d call edges...", entries))
}

func (h stageHooks) OnClusterComplete(context.Context, int, int, time.Duration, error) {}

func (h stageHooks) OnPlaceComplete(context.Context, int, time.Duration, error) {}

func (h stageHooks) OnRenderStart(_ context.Context, format string) {
	h.s.SetMessage(fmt.Sprintf("Rendering %s...", format))
}

func (h stageHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}

// openOutput returns the command's stdout when path is empty, otherwise a
// newly created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
