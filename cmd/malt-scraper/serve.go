package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"malt-scraper/internal/api/routes"
	"malt-scraper/internal/grpc/server"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/mux"
	"malt-scraper/internal/profiles"
	"malt-scraper/internal/scraper"
)

const shutdownTimeout = 30 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC API",
	Long:  `Serve GET /api/v1/profil?url=... over HTTP and malt.v1.ProfileService over gRPC on the same port.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides configuration)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Malt scraper")

	pipeline, err := scraper.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		pipeline.Close()
		return err
	}
	defer st.Close()

	service := profiles.NewService(st.repo, pipeline.Orchestrator, st.locker, logger)
	grpcServer := server.NewServer(service, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Profiles: service,
		Sessions: pipeline.Registry,
		RPC:      grpcServer,
		Checks:   st.checks,
	})

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	m := mux.NewMultiplexer(cfg.Server, grpcServer, e, logger)
	if err := m.Start(address); err != nil {
		pipeline.Close()
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := m.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	closed := pipeline.Close()
	logger.Info("Server shutdown complete", map[string]interface{}{"sessions_closed": closed})
	return nil
}
