package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synca/py-mcp-server/internal/config"
	httpsvr "github.com/synca/py-mcp-server/internal/http"
	mcpsvr "github.com/synca/py-mcp-server/internal/mcp"
	"github.com/synca/py-mcp-server/internal/proc"
	"github.com/synca/py-mcp-server/internal/tools"
)

var (
	version   = ""
	gitCommit = ""
	buildTime = ""
)

func main() {
	// stdout carries the MCP stream, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(os.Getenv("PYMCP_CONFIG"))
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		"profile", cfg.Profile,
		"http_listen", cfg.HTTPListen,
		"call_timeout_seconds", cfg.CallTimeoutSeconds,
	)

	runner := proc.NewRunner(proc.Config{MaxOutputBytes: cfg.MaxOutputBytes})
	set := tools.NewSet(tools.Executables{
		Pytest: cfg.Tools.Pytest,
		Mypy:   cfg.Tools.Mypy,
		Flake8: cfg.Tools.Flake8,
	})
	callTimeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second

	mcpServer := mcpsvr.NewServer(runner, set, logger, mcpsvr.Config{
		Version:     version,
		CallTimeout: callTimeout,
	})
	httpServer := httpsvr.NewServer(cfg.HTTPListen, runner, set, logger, httpsvr.Config{
		CallTimeout: callTimeout,
		Build: httpsvr.BuildInfo{
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
		},
	})

	errCh := make(chan error, 2)
	go func() { errCh <- mcpServer.ServeStdio() }()
	go func() { errCh <- httpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	httpServer.Shutdown(ctx)
	logger.Info("shutdown complete")
}
