package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todolist/internal/api"
	"todolist/internal/config"
	"todolist/internal/db"
	"todolist/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("TODO_CONFIG"))
	if err != nil {
		return err
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	store, err := db.OpenStore(ctx, cfg, logger.WithPrefix("store"))
	if err != nil {
		logger.Error("open task store", "backend", cfg.Backend, "err", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close task store", "err", err)
		}
	}()

	// Signal handling
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	logger.Info("todolist server starting", "backend", cfg.Backend)
	return api.New(store, logger.WithPrefix("api")).Run(ctx, cfg.Addr)
}
