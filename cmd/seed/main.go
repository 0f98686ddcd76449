// Command seed replaces the device collection with a freshly generated fleet.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/config"
	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/logger"
)

func main() {
	configFile := flag.String("config", "/etc/tucan/server.json", "Path to server config file")
	count := flag.Int("count", 300, "Number of devices to generate")
	seed := flag.Int64("seed", 0, "RNG seed (0 uses the current time)")
	flag.Parse()

	var cfg config.ServerConfig
	if err := config.LoadAndValidate(*configFile, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "tucan-seed")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	store, err := db.New(cfg.DBPath)
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	src := *seed
	if src == 0 {
		src = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(src))

	svc := devices.NewService(store, rng, zl)

	fleet, err := svc.Seed(*count)
	if err != nil {
		zl.Fatal("seeding failed", zap.Error(err))
	}

	zl.Info("fleet seeded",
		zap.Int("devices", len(fleet)),
		zap.String("db_path", cfg.DBPath))
}
