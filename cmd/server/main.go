package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Ludo/internal/adapters/http"
	wssignal "github.com/dkeye/Ludo/internal/adapters/signal"
	"github.com/dkeye/Ludo/internal/adapters/tcp"
	"github.com/dkeye/Ludo/internal/app"
	"github.com/dkeye/Ludo/internal/app/orch"
	"github.com/dkeye/Ludo/internal/config"
	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	matches, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Store.Backend).Msg("store unavailable, keeping matches in memory")
		matches = store.NewMemoryStore()
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	reg := core.NewRegistry(
		core.WithRoomIDLength(cfg.RoomIDLength),
		core.WithAutoStart(cfg.AutoStart),
	)
	var policy app.Policy = app.SimplePolicy{}
	if cfg.SendPolicy == config.PolicyLostOnly {
		policy = app.LostOnlyPolicy{}
	}
	o := &orch.Orchestrator{
		Registry:     reg,
		Policy:       policy,
		Limiter:      app.NewRoomRateLimiter(cfg.RateLimit, cfg.RateInterval),
		Store:        matches,
		StoreTimeout: cfg.Store.Timeout,
	}

	var wg sync.WaitGroup

	tcpSrv := tcp.NewServer(o, cfg.ReadLimit, cfg.WriteTimeout)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.ListenAndServe(ctx, cfg.TCPAddr); err != nil {
			log.Error().Err(err).Msg("tcp server error")
			cancel()
		}
	}()

	ws := wssignal.NewSignalWSController(o, int64(cfg.ReadLimit), cfg.WriteTimeout)
	r := router.SetupRouter(ctx, cfg, o, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("tcp", cfg.TCPAddr).Msg("Ludo server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	wg.Wait()
	log.Info().Msg("Server exited gracefully")
}
