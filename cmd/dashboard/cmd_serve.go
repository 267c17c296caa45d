package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

// serveCmd runs the web dashboard
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the table so a broken source fails at startup, not on first request.
	if _, err := container.Loader.Load(ctx); err != nil {
		logger.Error("Initial table load failed", zap.Error(err))
		return err
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, constants.LLMDefaults.PingTimeout)
	reachable := container.Models.PingAll(pingCtx)
	cancelPing()
	for name, ok := range reachable {
		if !ok {
			logger.Warn("Text generation provider unreachable", zap.String("provider", name))
		}
	}
	logger.Info("Text generation ready", zap.String("provider", container.Models.PrimaryName()))

	srv := server.NewServer(server.RouterConfig{
		Dashboard:   server.NewDashboardHandler(container.Analyzer, container.Models, logger),
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if err := srv.Run(ctx, addr); err != nil {
		logger.Error("Dashboard stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
