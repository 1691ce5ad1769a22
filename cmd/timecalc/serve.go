package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/timecalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/timecalc/pkg/api/grpc"
	"github.com/lemonberrylabs/timecalc/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, web UI and gRPC API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env TIMECALC_PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env TIMECALC_GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env TIMECALC_HOST)")
	cmd.Flags().String("sheets-dir", "", "Directory of YAML/JSON sheets to serve (env TIMECALC_SHEETS_DIR)")
	cmd.Flags().Bool("no-ui", false, "Disable the web UI")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, engine, err := setup(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.Server.GRPCPort = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sheetsDir := envOrDefault("TIMECALC_SHEETS_DIR", "")
	if v, _ := cmd.Flags().GetString("sheets-dir"); v != "" {
		sheetsDir = v
	}
	noUI, _ := cmd.Flags().GetBool("no-ui")

	addr := cfg.HTTPAddr()
	grpcAddr := cfg.GRPCAddr()

	server := api.New(engine, api.Config{
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		Logger:       logger,
	})

	if sheetsDir != "" {
		n, err := server.LoadSheets(sheetsDir)
		if err != nil {
			return fmt.Errorf("loading sheets: %w", err)
		}
		logger.Info("sheets loaded", "dir", sheetsDir, "count", n)
	}

	if cfg.UIEnabled() && !noUI {
		web.New(engine).Register(server.App())
	}

	grpcServer := grpcapi.New(engine, logger)
	grpcErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", "addr", grpcAddr)
		grpcErr <- grpcServer.Serve(grpcAddr)
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	shutdownErr := make(chan error, 1)
	go func() {
		var cause error
		select {
		case <-ctx.Done():
		case err := <-grpcErr:
			cause = fmt.Errorf("gRPC server: %w", err)
			logger.Error("gRPC server stopped", "error", err)
		}
		logger.Info("shutting down")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			logger.Error("error during shutdown", "error", err)
		}
		shutdownErr <- cause
	}()

	logger.Info("timecalc listening", "addr", addr, "ui", cfg.UIEnabled() && !noUI,
		"history", engine.Store().Capacity())
	if err := server.Listen(addr); err != nil {
		return err
	}
	return <-shutdownErr
}
