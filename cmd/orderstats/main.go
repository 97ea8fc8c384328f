package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tallyworks/orderstats/internal/aggregate"
	"github.com/tallyworks/orderstats/internal/config"
	"github.com/tallyworks/orderstats/internal/consumer"
	apihttp "github.com/tallyworks/orderstats/internal/interfaces/http"
	"github.com/tallyworks/orderstats/internal/interfaces/http/handlers"
	"github.com/tallyworks/orderstats/internal/publish"
	"github.com/tallyworks/orderstats/internal/queue"
	"github.com/tallyworks/orderstats/internal/store"

	"github.com/google/uuid"
)

const (
	appName = "orderstats"
	version = "v0.3.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Order event aggregation pipeline and stats API",
		Version: version,
		Long: `orderstats ingests order events from a durable queue, folds them into
per-user, global, per-day and leaderboard aggregate views, and serves a
read-only stats API over those views.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	consumeCmd := &cobra.Command{
		Use:   "consume",
		Short: "Run the queue consumer",
		Long:  "Drain the order queue: decode, validate, aggregate, acknowledge. Runs until interrupted.",
		RunE:  runConsume,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only stats API",
		RunE:  runServe,
	}

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish orders to the queue",
		Long:  "Publish synthetic orders (with optional poison/invalid ratios) or a JSON fixture file.",
		RunE:  runPublish,
	}
	publishCmd.Flags().Int("count", 100, "number of synthetic messages")
	publishCmd.Flags().Float64("rate", 0, "messages per second (0 = unpaced)")
	publishCmd.Flags().Int("users", 10, "distinct synthetic user IDs")
	publishCmd.Flags().Float64("poison-ratio", 0, "fraction of non-JSON bodies")
	publishCmd.Flags().Float64("invalid-ratio", 0, "fraction of orders with a mismatched order_value")
	publishCmd.Flags().Int64("seed", 0, "random seed (0 = time-based)")
	publishCmd.Flags().String("file", "", "publish orders from a JSON fixture instead")

	rootCmd.AddCommand(consumeCmd, serveCmd, publishCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// openRedis connects the store; the stream queue shares its pool.
func openRedis(ctx context.Context, cfg config.Config) (*store.RedisStore, *queue.RedisStream, error) {
	st, err := store.NewRedis(ctx, store.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, nil, err
	}

	hostname, _ := os.Hostname()
	q := queue.NewRedisStream(st.Client(), queue.StreamOptions{
		Stream:     cfg.Queue.Stream,
		Group:      cfg.Queue.Group,
		Consumer:   fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		Visibility: cfg.Queue.Visibility.Std(),
	})
	return st, q, nil
}

// startDebugListener exposes Prometheus metrics when configured.
func startDebugListener(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Info().Str("addr", addr).Msg("debug metrics listener started")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("debug listener failed")
		}
	}()
}

func runConsume(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, q, err := openRedis(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	startDebugListener(cfg.Debug.Addr, reg)

	c := consumer.New(q, aggregate.New(st), consumer.Config{
		BatchSize:   cfg.Consumer.BatchSize,
		WaitTime:    cfg.Consumer.WaitTime.Std(),
		IdleBackoff: cfg.Consumer.IdleBackoff.Std(),
	}, consumer.NewMetrics(reg))

	// A queue failure is fatal here: the supervisor restarts the process.
	if err := c.Run(ctx); err != nil {
		log.Error().Err(err).Msg("consumer terminated")
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, _, err := openRedis(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	startDebugListener(cfg.Debug.Addr, reg)

	server := apihttp.NewServer(apihttp.ServerConfig{
		Host:           cfg.HTTP.Host,
		Port:           cfg.HTTP.Port,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: cfg.HTTP.RequestTimeout.Std(),
	}, handlers.New(st), apihttp.NewMetrics(reg))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, q, err := openRedis(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer st.Close()

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		n, err := publish.FromFile(ctx, q, file)
		if err != nil {
			return err
		}
		log.Info().Int("count", n).Str("file", file).Msg("fixture published")
		return nil
	}

	count, _ := cmd.Flags().GetInt("count")
	rateLimit, _ := cmd.Flags().GetFloat64("rate")
	users, _ := cmd.Flags().GetInt("users")
	poison, _ := cmd.Flags().GetFloat64("poison-ratio")
	invalid, _ := cmd.Flags().GetFloat64("invalid-ratio")
	seed, _ := cmd.Flags().GetInt64("seed")

	return publish.New(q, publish.Options{
		Count:        count,
		Rate:         rateLimit,
		Users:        users,
		PoisonRatio:  poison,
		InvalidRatio: invalid,
		Seed:         seed,
	}).Run(ctx)
}
