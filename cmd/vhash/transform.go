package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/corpus"
)

const transformBatch = 1024

func newTransformCmd(opts *globalOptions) *cobra.Command {
	var modelPath, input string
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Vectorize documents with a saved model",
		Long: `Transform writes one JSON array per input document to stdout, in input
order. The input holds one document per line, or is a .jsonl corpus whose
"text" fields are used. Without --input, documents are read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadModel(opts.cfg.Model, modelPath)
			if err != nil {
				return err
			}

			var docs []string
			if input == "" || input == "-" {
				docs, err = corpus.ReadDocuments(cmd.InOrStdin(), false)
			} else {
				docs, err = corpus.LoadDocuments(input)
			}
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			enc := json.NewEncoder(w)
			for batch := range slices.Chunk(docs, transformBatch) {
				vectors, err := engine.TransformContext(cmd.Context(), batch)
				if err != nil {
					return err
				}
				for _, v := range vectors {
					if err := enc.Encode(v); err != nil {
						return fmt.Errorf("writing vector: %w", err)
					}
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "saved model file")
	cmd.Flags().StringVar(&input, "input", "", "documents to vectorize (default stdin)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
