// Package main provides the agent daemon: the job worker and its command API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iskisraell/obsidian-ai-agent/internal/config"
	"github.com/iskisraell/obsidian-ai-agent/internal/gemini"
	"github.com/iskisraell/obsidian-ai-agent/internal/obsidian"
	"github.com/iskisraell/obsidian-ai-agent/internal/secrets"
	"github.com/iskisraell/obsidian-ai-agent/internal/server"
	"github.com/iskisraell/obsidian-ai-agent/internal/service"
	"github.com/iskisraell/obsidian-ai-agent/internal/store"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("starting obsidian-agentd", "addr", cfg.ListenAddr, "home", cfg.AgentHome)

	st, err := store.Open(filepath.Join(cfg.AgentHome, "state.json"))
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}

	keys := secrets.NewKeystore(filepath.Join(cfg.AgentHome, "credentials"))
	publisher := obsidian.NewPublisher(logger)
	summarizer := gemini.NewClient()
	bus := service.NewEventBus(0)

	svc := service.New(st, keys, publisher, summarizer, bus, logger)
	srv := server.New(cfg.ListenAddr, svc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop the worker and the server on interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	go svc.Run(ctx)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("daemon stopped")
}
