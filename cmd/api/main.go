package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"trackit/internal/config"
	"trackit/internal/database"
	"trackit/internal/logging"
	"trackit/internal/routes"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "server configuration file (yaml, toml or env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logging.Setup(logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Prefix:    "trackit-api",
		Timestamp: true,
	})
	gin.SetMode(cfg.GinMode)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := database.Open(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatal("Failed to connect to database", "driver", cfg.StoreDriver, "err", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("failed to close store", "err", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.SetupRouter(store, routes.OptionsFromConfig(cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", server.Addr, "store", cfg.StoreDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
}
