package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
	"github.com/kirillkom/shop-verification/internal/infrastructure/verifyapi"
	"github.com/kirillkom/shop-verification/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, "verifyctl", cfg.LogLevel, "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "verifyctl",
		Usage: "Operate the shop verification API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the verification API",
				EnvVars: []string{"VERIFY_API_URL"},
				Value:   cfg.VerifyAPIURL,
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token sent with every request",
				EnvVars: []string{"VERIFY_API_TOKEN"},
				Value:   cfg.VerifyAPIToken,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Attempts for idempotent calls",
				Value: cfg.RetryMaxAttempts,
			},
		},
		Commands: []*cli.Command{
			catalogCommand,
			shopsCommand,
			docsCommand,
			reportCommand,
			statsCommand,
			tokenCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *verifyapi.Client {
	executor := resilience.NewExecutor(resilience.ClientConfig(c.Int("retries")))
	return verifyapi.New(c.String("api-url"), c.String("token"), executor)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// idArg parses the positional argument at index i as a positive id.
func idArg(c *cli.Context, i int, name string) (int64, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, cli.Exit(fmt.Sprintf("missing %s argument", name), 2)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("invalid %s %q", name, raw), 2)
	}
	return id, nil
}
