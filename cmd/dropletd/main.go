// Command dropletd serves the droplet analysis API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"droplet-analyzer/internal/config"
	"droplet-analyzer/internal/serve"
	"droplet-analyzer/internal/version"
)

func main() {
	var (
		addr        = flag.String("addr", "", "listen address (overrides config)")
		configPath  = flag.String("config", "", "path to YAML config file")
		verbose     = flag.Bool("v", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}

	srv := &http.Server{
		Addr:         cfg.Serve.Addr,
		Handler:      serve.NewHandler(cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.Serve.RequestTimeoutSec+15) * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Serve.Addr).Str("version", version.Version).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
