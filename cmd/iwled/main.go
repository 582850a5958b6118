package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"iwled/internal/config"
	"iwled/internal/logger"
	"iwled/internal/service"

	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "iwled: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. runtime settings
	cfg, err := config.LoadRuntime()
	if err != nil {
		return fmt.Errorf("failed to load runtime settings: %w", err)
	}

	// 2. logger
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "iwled")
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	configPath := configPathFromArgs(args)
	log.Info("Starting iwled", zap.String("config", configPath))

	// 3. service; config errors end the process before the first cycle
	monitor, err := service.NewMonitorService(cfg, configPath, log)
	if err != nil {
		log.Error("Failed to create monitor service", zap.Error(err))
		return err
	}
	defer monitor.Stop()

	// 4. cancel on SIGINT/SIGTERM, the loop exits between cycles
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor.Start(ctx); err != nil {
		log.Error("Monitor service error", zap.Error(err))
		return err
	}

	log.Info("iwled stopped")
	return nil
}

func configPathFromArgs(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return config.DefaultPath
}
