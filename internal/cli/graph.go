package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/callchain/pkg/pipeline"
)

// graphCommand creates the graph command, which draws the clustered call
// graph with Graphviz.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags     inputFlags
		format    string
		output    string
		detailed  bool
		minWeight uint64
	)

	cmd := &cobra.Command{
		Use:   "graph OBJECTS PROFILE...",
		Short: "Render the clustered call graph",
		Long: `Render the clustered call graph.

Each final cluster is drawn as a box around its sections, labelled with the
section ranks. Edges carry the profiled call counts. DOT output can be
post-processed with the Graphviz tools; SVG and PNG are rendered in-process.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, args, c.Config)
			opts.Format = format
			opts.Detailed = detailed
			opts.MinWeight = minWeight
			if err := opts.ValidateForRender(); err != nil {
				return err
			}

			return c.runPipeline(cmd.Context(), opts, flags.noCache, func(runner *pipeline.Runner, res *pipeline.Result) error {
				data, hit, err := runner.RenderWithCacheInfo(cmd.Context(), res.Inputs, res.Cluster, opts)
				if err != nil {
					return err
				}
				w, closeOut, err := openOutput(cmd, output)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				if cerr := closeOut(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				if output != "" {
					printSuccess("Rendered %s", opts.Format)
					printFile(output)
					printStats(len(res.Cluster.Order), len(res.Cluster.Clusters), hit)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show sizes and weights in labels")
	cmd.Flags().Uint64Var(&minWeight, "min-weight", 0, "hide edges lighter than this call count")
	flags.register(cmd)

	return cmd
}
