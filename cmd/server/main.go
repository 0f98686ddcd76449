package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/api"
	"github.com/R0eii/Tucan/pkg/auth"
	"github.com/R0eii/Tucan/pkg/config"
	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "/etc/tucan/server.json", "Path to server config file")
	flag.Parse()

	var cfg config.ServerConfig
	if err := config.LoadAndValidate(*configFile, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "tucan-server")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(&cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.ServerConfig, zl *zap.Logger) error {
	store, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	deviceSvc := devices.NewService(store, rng, zl)
	authSvc := auth.NewService(store, []byte(cfg.JWTSecret), time.Duration(cfg.TokenTTL), zl)

	apiServer := api.NewAPIServer(deviceSvc, authSvc, zl)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		zl.Info("starting API server", zap.String("addr", cfg.ListenAddr))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(ctx)
}
