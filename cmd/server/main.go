// Command server runs the aidledger API: a spending ledger with
// category-aware risk scoring for aid disbursement.
package main

import (
	"context"
	"os"

	"github.com/reliefnet/aidledger/internal/config"
	"github.com/reliefnet/aidledger/internal/logging"
	"github.com/reliefnet/aidledger/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")
	logger.Info("starting aidledger",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		"env", cfg.Env,
		"port", cfg.Port,
		"report_window_days", cfg.ReportWindowDays,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
