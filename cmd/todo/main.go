package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todolist/internal/config"
	"todolist/internal/db"
	"todolist/internal/logging"
	"todolist/pkg/task"
)

var Version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	backend    string
	file       string
	dsn        string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
	store  *task.Store
}

func main() {
	a := &app{}
	err := a.rootCmd().ExecuteContext(context.Background())
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "todo",
		Short:             "A persistent to-do list",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./todolist.toml or user config dir)")
	pf.StringVar(&a.backend, "backend", "", "storage backend: file, sqlite, mysql, postgres")
	pf.StringVarP(&a.file, "file", "f", "", "tasks document for the file backend")
	pf.StringVar(&a.dsn, "dsn", "", "database DSN or sqlite path")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.toggleCmd(),
		a.rmCmd(),
		a.clearCmd(),
		a.setAllCmd("all", "Mark every task completed", true),
		a.setAllCmd("none", "Clear every completion flag", false),
		a.statsCmd(),
		a.uiCmd(),
		a.tuiCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = a.backend
	}
	if flags.Changed("file") {
		cfg.File = a.file
	}
	if flags.Changed("dsn") {
		cfg.DSN = a.dsn
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	a.logger = logger

	store, err := db.OpenStore(cmd.Context(), cfg, logger.WithPrefix("store"))
	if err != nil {
		logger.Error("open task store", "backend", cfg.Backend, "err", err)
		return err
	}
	a.store = store
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("close task store", "err", err)
	}
	a.store = nil
}
