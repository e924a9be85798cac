package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/RexySaragih/beaver/internal/app"
	httpx "github.com/RexySaragih/beaver/internal/http"
	"github.com/RexySaragih/beaver/internal/store"
	"github.com/RexySaragih/beaver/internal/sweep"
	"github.com/RexySaragih/beaver/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Snapshot store: redis by default, in-memory for local dev
	var st store.Store
	if cfg.Store == "memory" {
		st = store.NewMemory(cfg.RoomTTL)
		logger.Warn("store.memory", "note", "rooms are lost on restart")
	} else {
		rs, err := store.NewRedis(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		st = rs
	}
	defer st.Close()

	// Room synchronization engine
	hub := ws.NewHub(logger, st)

	// Expired-room cleanup
	sweeper := sweep.New(logger, st, cfg.RoomTTL, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, hub, st)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
