package main

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/shop-verification/internal/adapters/mcp"
	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
	"github.com/kirillkom/shop-verification/internal/infrastructure/verifyapi"
	"github.com/kirillkom/shop-verification/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	logger := logging.New(os.Stderr, "mcp", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(resilience.ClientConfig(cfg.RetryMaxAttempts))
	client := verifyapi.New(cfg.VerifyAPIURL, cfg.VerifyAPIToken, executor)

	logger.Info("mcp_server_starting", "api_url", cfg.VerifyAPIURL)
	if err := server.ServeStdio(mcpadapter.NewServer(client, version)); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
