package cli

import (
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/callchain/pkg/io"
	"github.com/matzehuels/callchain/pkg/pipeline"
)

// placeCommand creates the place command, which prints the address map that
// results from linking the sections in ranked order.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		flags  inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "place OBJECTS PROFILE...",
		Short: "Print the section address map for the computed order",
		Long: `Print the section address map for the computed order.

Ranked sections come first in rank order, the remaining sections follow in
their original order. Every segment starts on a page boundary and every
section is aligned to its own alignment.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, args, c.Config)
			return c.runPipeline(cmd.Context(), opts, flags.noCache, func(_ *pipeline.Runner, res *pipeline.Result) error {
				w, closeOut, err := openOutput(cmd, output)
				if err != nil {
					return err
				}
				err = pkgio.WritePlacement(w, res.Placement)
				if cerr := closeOut(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				if output != "" {
					printSuccess("Wrote placement map")
					printFile(output)
					printKeyValue("end", formatAddr(res.Placement.End))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	flags.register(cmd)

	return cmd
}
