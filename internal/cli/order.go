package cli

import (
	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
	pkgio "github.com/matzehuels/callchain/pkg/io"
	"github.com/matzehuels/callchain/pkg/pipeline"
)

// orderCommand creates the order command, the main entry point: it ranks the
// sections and writes an ordering file.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		flags  inputFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "order OBJECTS PROFILE...",
		Short: "Compute a section order from call-graph profiles",
		Long: `Compute a section order from call-graph profiles.

OBJECTS is a JSON or TOML object description listing the input sections and
the symbols they define. Each PROFILE is a text file with one
"caller callee count" edge per line; several profiles are merged.

The default output is a symbol ordering file: the symbols of every ranked
section, hottest cluster first. Use --format sections for "rank name" lines
or --format json for the full result with clusters and statistics.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pkgio.ValidOrderFormats[format] {
				return cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: symbols, sections, json)", format)
			}
			opts := flags.options(cmd, args, c.Config)
			return c.runOrder(cmd, opts, flags.noCache, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pkgio.OrderSymbols, "output format: symbols, sections, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runOrder(cmd *cobra.Command, opts pipeline.Options, noCache bool, format, output string) error {
	return c.runPipeline(cmd.Context(), opts, noCache, func(_ *pipeline.Runner, res *pipeline.Result) error {
		w, closeOut, err := openOutput(cmd, output)
		if err != nil {
			return err
		}

		tab := res.Inputs.Table
		if format == pkgio.OrderJSON {
			doc := pkgio.NewOrderDocument(res.Cluster, tab, opts.PageSize)
			doc.RunID = res.RunID.String()
			err = pkgio.WriteOrderJSON(w, doc)
		} else {
			err = pkgio.WriteOrder(w, format, res.Cluster, tab, opts.PageSize)
		}
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		if output != "" {
			printSuccess("Wrote section order")
			printFile(output)
			printStats(len(res.Cluster.Order), len(res.Cluster.Clusters), res.CacheHit)
		}
		return nil
	})
}
