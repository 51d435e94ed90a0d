package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "github.com/nexconsult/pncp-vagas/docs"
	"github.com/nexconsult/pncp-vagas/internal/api"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

var (
	servePort       int
	serveNoSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start the HTTP server with the opportunities API, the snapshot maintenance endpoints and the scheduled snapshot rebuild.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "Disable the scheduled snapshot rebuild")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	logger.Info("Starting PNCP API Server...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := services.NewContainer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container.StartBackground(ctx)

	schedule := cfg.Snapshot.Schedule
	if serveNoSchedule {
		schedule = ""
	}
	scheduler, err := services.NewScheduler(schedule, cfg.Snapshot.BuildTimeout, container.SnapshotService, logger)
	if err != nil {
		return err
	}
	scheduler.Start()

	server := api.NewServer(cfg, logger, container)
	server.StartBackground(ctx)
	httpServer := server.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
			"schedule":    schedule,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)

	logger.Info("Server exited")
	return nil
}
