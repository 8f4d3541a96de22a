package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInspectCmd(opts *globalOptions) *cobra.Command {
	var (
		modelPath string
		top       int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise a saved model and list its heaviest phrases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadModel(opts.cfg.Model, modelPath)
			if err != nil {
				return err
			}
			info := engine.Info()
			mc := info.Config

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "checksum\t%08x\n", info.Checksum)
			fmt.Fprintf(tw, "phrases\t%d\n", info.TableSize)
			fmt.Fprintf(tw, "dimensions\t%d\n", info.Dimensions)
			fmt.Fprintf(tw, "documents used\t%d\n", info.NumDocsUsed)
			fmt.Fprintf(tw, "n-gram range\t%d-%d\n", mc.SmallestNgram, mc.LargestNgram)
			fmt.Fprintf(tw, "min occurrence\t%g\n", mc.MinPhraseOccurrence)
			fmt.Fprintf(tw, "max phrases\t%d\n", mc.MaxNumPhrases)
			fmt.Fprintf(tw, "downsample to\t%d\n", mc.DownsampleTo)
			fmt.Fprintf(tw, "live evaluation step\t%d\n", mc.LiveEvaluationStep)

			if top > 0 {
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "RANK\tWEIGHT\tINDEX\tPHRASE")
				for i, p := range engine.TopPhrases(top) {
					fmt.Fprintf(tw, "%d\t%.6f\t%d\t%s\n", i+1, p.Weight, p.Index, p.Phrase)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "saved model file")
	cmd.Flags().IntVar(&top, "top", 20, "number of phrases to list (0 for none)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
