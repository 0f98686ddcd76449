// Command dashboard runs a console view of the fleet, refreshed on the same
// cadence the controller fetches from the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/config"
	"github.com/R0eii/Tucan/pkg/dashboard"
	"github.com/R0eii/Tucan/pkg/logger"
	"github.com/R0eii/Tucan/pkg/models"
)

const renderInterval = 5 * time.Second

func main() {
	configFile := flag.String("config", "/etc/tucan/dashboard.json", "Path to dashboard config file")
	flag.Parse()

	var cfg config.DashboardConfig
	if err := config.LoadAndValidate(*configFile, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "tucan-dashboard")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	client := dashboard.NewClient(&cfg, zl)
	ctrl := dashboard.NewController(client, cfg.Company, time.Duration(cfg.RefreshInterval), zl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		zl.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	go ctrl.Run(ctx)

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			render(ctrl)
		}
	}
}

func render(ctrl *dashboard.Controller) {
	if ctrl.Loading() {
		fmt.Println("loading fleet...")
		return
	}

	stats := ctrl.Stats()

	fmt.Printf("\n=== Fleet (%s) @ %s ===\n",
		ctrl.Company(), ctrl.LastFetched().Format(time.Kitchen))
	fmt.Printf("total %d | online %d | warning %d | offline %d\n",
		stats.Total, stats.Online, stats.Warning, stats.Offline)

	alerts := ctrl.Alerts()
	if len(alerts) == 0 {
		fmt.Println("no active alerts")
		return
	}

	fmt.Printf("%d active alerts:\n", len(alerts))

	for _, d := range alerts {
		msg := ""
		if d.ErrorMessage != nil {
			msg = *d.ErrorMessage
		}

		fmt.Printf("  %-10s %-24s %-8s %s\n", d.ID, d.Name, badge(d.Status), msg)
	}
}

func badge(s models.DeviceStatus) string {
	switch s {
	case models.StatusError:
		return "OFFLINE"
	case models.StatusWarning:
		return "WARNING"
	default:
		return "OK"
	}
}
