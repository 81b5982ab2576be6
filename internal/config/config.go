// Package config loads todolist settings from defaults, a TOML file and
// the environment. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backends understood by db.Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

const (
	DefaultFile     = "tasks.json"
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
	FileName        = "todolist.toml"
)

// Config holds all settings.
type Config struct {
	Backend   string `toml:"backend"`
	File      string `toml:"file"` // tasks document, FileStore only
	DSN       string `toml:"dsn"`  // sqlite path or server DSN
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // text, json, logfmt
	Addr      string `toml:"addr"`

	Window Window `toml:"window"`

	// Source is the config file that was read, if any.
	Source string `toml:"-"`
}

// Window sizes the desktop window in dp.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:   BackendFile,
		File:      DefaultFile,
		LogLevel:  DefaultLogLevel,
		LogFormat: "text",
		Addr:      DefaultAddr,
		Window: Window{
			Title:  "Enhanced To-Do List",
			Width:  500,
			Height: 600,
		},
	}
}

// Load merges defaults, the config file and the environment. If path is
// empty, todolist.toml in the working directory and then in the user
// config directory are tried; a missing file there is not an error. An
// explicit path must exist. The result is not validated: apply any flag
// overrides, then call Finalize.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.Source = path
	}

	loadFromEnv(cfg)
	return cfg, nil
}

// Finalize normalizes the backend name, expands paths and validates the
// result. Call it once, after every override has been applied.
func (c *Config) Finalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.File = expandPath(c.File)
	if c.Backend == BackendSQLite {
		c.DSN = expandPath(c.DSN)
	}
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.File == "" {
			return errors.New("config: file must be set for the file backend")
		}
	case BackendSQLite, BackendMySQL, BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("config: dsn must be set for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want file, sqlite, mysql or postgres)", c.Backend)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODO_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TODO_FILE"); v != "" {
		cfg.File = v
	}
	if v := os.Getenv("TODO_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("TODO_ADDR"); v != "" {
		cfg.Addr = v
	}
}

func findConfigFile() string {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "todolist", FileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// expandPath expands ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
	}
	return expanded
}
