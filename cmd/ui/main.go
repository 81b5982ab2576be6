package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"todolist/internal/config"
	"todolist/internal/db"
	"todolist/internal/desktop"
	"todolist/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Finalize()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	store, err := db.OpenStore(context.Background(), cfg, logger.WithPrefix("store"))
	if err != nil {
		logger.Fatal("open task store", "backend", cfg.Backend, "err", err)
	}
	desktop.Run(store, cfg, logger.WithPrefix("desktop"))
}
