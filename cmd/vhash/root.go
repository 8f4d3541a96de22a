package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
)

// globalOptions is filled by the persistent flags and the pre-run hook.
type globalOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "vhash",
		Short: "Phrase-table text vectorizer",
		Long: `vhash learns a weighted table of word n-grams from a labeled corpus and
projects documents onto a bank of anchor documents.

Examples:
  vhash fit --corpus train.jsonl --out model.vh
  vhash transform --model model.vh --input docs.txt
  vhash inspect --model model.vh --top 20
  vhash serve --model model.vh --config configs/vhash.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides the config)")

	cmd.AddCommand(
		newFitCmd(opts),
		newTransformCmd(opts),
		newInspectCmd(opts),
		newServeCmd(opts),
		newStreamCmd(opts),
	)
	return cmd
}

// loadModel restores a saved model under the configured runtime settings.
func loadModel(cfg config.ModelConfig, path string, opts ...vhash.Option) (*vhash.Engine, error) {
	if path == "" {
		return nil, fmt.Errorf("--model is required")
	}
	e, err := vhash.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Load(path); err != nil {
		return nil, err
	}
	return e, nil
}

func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg)
}
