// Command edge runs the STOMP-like WebSocket fan-out broker.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"github.com/pablitocbr/commenter-edge/internal/distribution"
	"github.com/pablitocbr/commenter-edge/internal/edge"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/platform"
	"github.com/pablitocbr/commenter-edge/internal/registry"
	"github.com/pablitocbr/commenter-edge/internal/resolver"
)

func main() {
	cfg, err := platform.Load()
	if err != nil {
		os.Stderr.WriteString("edge: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := platform.NewLogger(cfg, "edge")
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting edge")

	reg := registry.New()
	dist := distribution.New(reg)
	res := resolver.New(resolver.Config{BaseURL: cfg.ResolverBaseURL, Timeout: cfg.ResolverTimeout})

	producer, err := eventbus.NewProducer(eventbus.ProducerConfig{
		Brokers: cfg.Brokers(),
		Timeout: cfg.ProduceTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("constructing event bus producer")
	}
	defer producer.Close()

	consumer, err := eventbus.NewConsumer(eventbus.ConsumerConfig{
		Brokers:       cfg.Brokers(),
		ConsumerGroup: "commenter-edge",
		Topic:         cfg.Topic,
		Mode:          eventbus.AutoCommit,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("constructing event bus consumer")
	}
	defer consumer.Close()

	registerer := prometheus.NewRegistry()
	metrics := platform.NewMetrics(registerer)

	orch := edge.New(reg, dist, res, cfg.ResolverTimeout, producer, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.ConsumeLoop(ctx, consumer)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", orch.HandleUpgrade)
	mux.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))

	addr := cfg.WarpAddress + ":" + strconv.Itoa(cfg.WarpPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listener failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
