// Command hotstorage runs the log-to-store projector.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	_ "go.uber.org/automaxprocs"

	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/hotstorage"
	"github.com/pablitocbr/commenter-edge/internal/platform"
	"github.com/pablitocbr/commenter-edge/internal/store"
)

func main() {
	cfg, err := platform.Load()
	if err != nil {
		os.Stderr.WriteString("hotstorage: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := platform.NewLogger(cfg, "hotstorage")
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting hotstorage")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrating store")
	}

	consumer, err := eventbus.NewConsumer(eventbus.ConsumerConfig{
		Brokers:       cfg.Brokers(),
		ConsumerGroup: "commenter-hotstorage",
		Topic:         cfg.Topic,
		Mode:          eventbus.ManualCommit,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("constructing event bus consumer")
	}
	defer consumer.Close()

	metrics := platform.NewMetrics(prometheus.NewRegistry())
	projector := hotstorage.New(consumer, st, metrics, logger)

	done := make(chan struct{})
	go func() {
		projector.Run(ctx)
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()
	<-done
}
