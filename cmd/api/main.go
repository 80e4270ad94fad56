// Command api serves the prior-state lookup HTTP service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/pablitocbr/commenter-edge/internal/api"
	"github.com/pablitocbr/commenter-edge/internal/platform"
	"github.com/pablitocbr/commenter-edge/internal/store"
)

func main() {
	cfg, err := platform.Load()
	if err != nil {
		os.Stderr.WriteString("api: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := platform.NewLogger(cfg, "api")
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting api")

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrating store")
	}

	router := api.NewRouter(st)
	srv := &http.Server{Addr: cfg.APIAddress, Handler: router}

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
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
