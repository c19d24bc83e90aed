package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/spotgrid/internal/api"
	"github.com/jonesrussell/spotgrid/internal/config"
	"github.com/jonesrussell/spotgrid/internal/logger"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assignment HTTP service",
	Long: `Serves the assignment API. Classification settings are reloaded from
the config file when it changes; invalid settings are rejected and the
previous ones stay in effect.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewHandler(a.assignments, a.runner, a.db, a.telemetry.Handler(), a.log)
	server := api.NewServer(handler, api.ServerConfig{
		Port:  a.cfg.Service.Port,
		Debug: a.cfg.Service.Debug,
	}, a.log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	path := configPath
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}
	watcher, err := config.NewWatcher(path, a.engine.UpdateSettings, a.log)
	if err != nil {
		a.log.Warn("config watcher disabled", logger.Error(err))
	} else {
		go watcher.Run(ctx)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		a.log.Info("shutdown signal received", logger.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.log.Info("server stopped gracefully")
	}
	return nil
}
