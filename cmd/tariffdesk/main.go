package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/config"
	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/secrets"
	"github.com/jask/tariffdesk/internal/tui"
)

func main() {
	year := flag.Int("year", 0, "year to open (default: current year)")
	cfgPath := flag.String("config", "", "config file (default ~/.config/tariffdesk/config.toml)")
	saveToken := flag.String("save-token", "", "store an API token for the configured server and exit")
	forgetToken := flag.Bool("forget-token", false, "remove the stored API token and exit")
	writeConfig := flag.Bool("write-config", false, "write the effective config to the config file and exit")
	flag.Parse()

	if *cfgPath != "" {
		_ = os.Setenv("TARIFFDESK_CONFIG", *cfgPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fatal("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config: %v", err)
	}

	switch {
	case *writeConfig:
		if err := config.Save(cfg); err != nil {
			fatal("write config: %v", err)
		}
		fmt.Println("config written to", config.Path())
		return
	case *saveToken != "":
		if err := secrets.StoreToken(cfg.API.BaseURL, *saveToken); err != nil {
			fatal("store token: %v", err)
		}
		fmt.Println("token saved for", cfg.API.BaseURL)
		return
	case *forgetToken:
		if err := secrets.DeleteToken(cfg.API.BaseURL); err != nil {
			fatal("delete token: %v", err)
		}
		fmt.Println("token removed for", cfg.API.BaseURL)
		return
	}

	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		fatal("log: %v", err)
	}
	defer closeLog()

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout,
		api.WithToken(resolveToken(cfg, logger)),
		api.WithLogger(logger),
	)

	app := tui.New(context.Background(), cfg, client, tui.Options{Year: *year, Logger: logger})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		logger.Error("tui exited", log.FieldError, err)
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

// fileLogger sends logs to the configured file; the terminal belongs to the UI.
func fileLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.File == "" {
		return log.Discard(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Config{Level: level, Component: log.ComponentApp, Output: f})
	return logger, func() { _ = f.Close() }, nil
}

func resolveToken(cfg config.Config, logger *log.Logger) string {
	if t := cfg.API.Token(); t != "" {
		return t
	}
	t, err := secrets.FetchToken(cfg.API.BaseURL)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			logger.Warn("read stored token", log.FieldError, err)
		}
		return ""
	}
	return t
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
