package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/callchain/pkg/cache"
	"github.com/matzehuels/callchain/pkg/observability"
	"github.com/matzehuels/callchain/pkg/pipeline"
)

// serveCommand creates the serve command, which exposes the ordering
// pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		noCache  bool
		pageSize uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve section ordering over HTTP",
		Long: `Serve section ordering over HTTP.

Endpoints:
  POST /v1/order   object description and profile in, section order out
  POST /v1/graph   same input, DOT, SVG or PNG rendering out
  GET  /healthz    liveness and build information
  GET  /metrics    Prometheus metrics

The server shares the configured cache backend with the CLI but keeps its
entries under a separate key prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") && c.Config.Server.Addr != "" {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("page-size") && c.Config.PageSize != 0 {
				pageSize = c.Config.PageSize
			}
			return c.runServe(cmd.Context(), addr, pageSize, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().Uint64Var(&pageSize, "page-size", pipeline.DefaultPageSize, "default page size for requests that omit it")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, pageSize uint64, noCache bool) error {
	logger := loggerFromContext(ctx)

	m := newMetrics()
	m.register()
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "serve:"))
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(runner, logger, pageSize, m.handler()).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "page_size", pageSize)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
