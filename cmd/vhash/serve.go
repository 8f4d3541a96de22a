package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/server"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vcache"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vhash/pkg/redis"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		modelPath  string
		purgeCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a saved model over HTTP",
		Long: `Serve exposes POST /v1/transform, GET /v1/model and the health probes.
When redis.addr is set, vectors are cached in Redis under the model checksum.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, modelPath, purgeCache)
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "saved model file")
	cmd.Flags().BoolVar(&purgeCache, "purge-cache", false, "drop this model's cached vectors on startup")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, modelPath string, purgeCache bool) error {
	cfg := opts.cfg
	reg, m := newRegistry()

	engine, err := loadModel(cfg.Model, modelPath, vhash.WithMetrics(m))
	if err != nil {
		return err
	}
	sum, err := engine.Checksum()
	if err != nil {
		return err
	}
	namespace := vcache.Namespace(sum)
	slog.Info("starting transform service",
		"port", cfg.Server.Port,
		"model", modelPath,
		"dimensions", engine.Dimensions(),
		"checksum", namespace,
	)

	var (
		cache       *vcache.Cache
		redisPinger health.Pinger
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, vector caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			redisPinger = redisClient
			cache = vcache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("vector cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
			if purgeCache {
				if err := cache.Invalidate(ctx, namespace); err != nil {
					slog.Warn("cache purge failed", "error", err)
				}
			}
		}
	}

	checker := health.NewChecker()
	checker.Register("model", health.ConditionCheck(engine.Fitted, "model not fitted"))
	checker.Register("redis", health.PingCheck(redisPinger, true))

	h := server.New(engine, cache, namespace, cfg.Server.MaxDocuments)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(h, checker, m, cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stopMetrics := func(context.Context) error { return nil }
	if cfg.Metrics.Enabled {
		stopMetrics = metrics.StartServer(cfg.Metrics.Port, reg)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if err := stopMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}()

	slog.Info("transform service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("transform service stopped")
	return nil
}
