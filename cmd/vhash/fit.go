package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/postgres"
)

func newFitCmd(opts *globalOptions) *cobra.Command {
	var (
		corpusPath   string
		fromPostgres bool
		out          string
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Learn a model from a labeled corpus and save it",
		Long: `Fit reads a labeled corpus, learns the phrase table, weights and anchor
features, and writes the model to --out.

The corpus is a .jsonl file of {"text", "label"} objects, a .tsv file of
label<TAB>text lines, or, with --from-postgres, the rows returned by
corpus.query. Labels may be any strings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			var (
				c   *corpus.Corpus
				err error
			)
			if fromPostgres {
				client, err := postgres.New(cfg.Postgres)
				if err != nil {
					return err
				}
				defer client.Close()
				c, err = corpus.PostgresSource{Client: client, Query: cfg.Corpus.Query}.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading corpus from postgres: %w", err)
				}
			} else {
				if corpusPath == "" {
					corpusPath = cfg.Corpus.Path
				}
				if corpusPath == "" {
					return fmt.Errorf("one of --corpus or --from-postgres is required")
				}
				if c, err = corpus.LoadFile(corpusPath); err != nil {
					return err
				}
			}

			labels, classes := c.Encode()
			engine, err := vhash.New(cfg.Model)
			if err != nil {
				return err
			}
			if _, err := engine.Fit(c.Docs, labels); err != nil {
				return err
			}
			if err := engine.Save(out); err != nil {
				return err
			}

			info := engine.Info()
			slog.Info("fit complete",
				"documents", c.Len(),
				"classes", len(classes),
				"docs_used", info.NumDocsUsed,
				"phrases", info.TableSize,
				"dimensions", info.Dimensions,
				"checksum", fmt.Sprintf("%08x", info.Checksum),
				"out", out,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "labeled corpus file (.jsonl or .tsv); defaults to corpus.path")
	cmd.Flags().BoolVar(&fromPostgres, "from-postgres", false, "read the corpus from PostgreSQL with corpus.query")
	cmd.Flags().StringVar(&out, "out", "", "where to write the model")
	cmd.MarkFlagsMutuallyExclusive("corpus", "from-postgres")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
