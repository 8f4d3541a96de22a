package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vcache"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/resilience"
)

func newStreamCmd(opts *globalOptions) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Vectorize documents from Kafka",
		Long: `Stream consumes {"id", "text"} documents from kafka.topics.documents and
publishes {"id", "model", "vector"} events keyed by id to kafka.topics.vectors.
The model is fixed for the life of the process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			ctx := cmd.Context()
			reg, m := newRegistry()

			engine, err := loadModel(cfg.Model, modelPath, vhash.WithMetrics(m))
			if err != nil {
				return err
			}
			sum, err := engine.Checksum()
			if err != nil {
				return err
			}

			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Vectors)
			defer producer.Close()
			proc := stream.NewProcessor(engine, producer, vcache.Namespace(sum), resilience.RetryConfig{}, m)
			consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Documents, proc.Handle)
			defer consumer.Close()

			if cfg.Metrics.Enabled {
				stopMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
				defer stopMetrics(context.Background())
			}

			slog.Info("stream pipeline started",
				"documents_topic", cfg.Kafka.Topics.Documents,
				"vectors_topic", cfg.Kafka.Topics.Vectors,
				"group", cfg.Kafka.ConsumerGroup,
			)
			return consumer.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "saved model file")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
