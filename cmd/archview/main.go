// Package main is the entry point for the ArchView dental arch viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/app"
	"github.com/Faultbox/archview/internal/config"
	"github.com/Faultbox/archview/internal/logger"
)

// viewerApp is the part of *app.App that main drives.
type viewerApp interface {
	Run() error
	Close()
}

var newApp = func(cfg *config.Config) (viewerApp, error) {
	return app.New(cfg)
}

func main() {
	os.Exit(run())
}

// run returns the process exit code. Deferred teardown runs before main exits.
func run() int {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== ArchView ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := newApp(cfg)
	if err != nil {
		logger.Error("failed to start viewer", zap.Error(err))
		return 1
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		return 1
	}

	logger.Info("viewer closed normally")
	return 0
}
