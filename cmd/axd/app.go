package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/Zuo-Peng/axel-dashboard/internal/config"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/logging"
	"github.com/Zuo-Peng/axel-dashboard/internal/logstore"
	"github.com/Zuo-Peng/axel-dashboard/internal/render"
	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
)

// loadConfig reads the config named by --config (or the default path) and
// installs the logger it describes. Logs go to stderr.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return cfg, logger, nil
}

func newLogStore(cfg *config.Config) *logstore.Store {
	return logstore.New(logstore.Config{
		ActivityFile:    cfg.ActivityFile(),
		ConversationDir: cfg.ConversationDir,
	})
}

func newKnowledgeStore(cfg *config.Config) *knowledge.Store {
	return knowledge.New(knowledge.Config{
		MemoryDir:     cfg.MemoryDir,
		AdvisorsDir:   cfg.AdvisorsDir,
		InventoryFile: cfg.InventoryFile,
	})
}

func noteRoots(cfg *config.Config) scan.Roots {
	return scan.Roots{
		MemoryDir:     cfg.MemoryDir,
		Categories:    knowledge.Categories,
		AdvisorsDir:   cfg.AdvisorsDir,
		InventoryFile: cfg.InventoryFile,
	}
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// renderOptions wraps to the terminal width and drops colour when stdout is
// not a terminal.
func renderOptions(query string) render.Options {
	opts := render.Options{Query: query, NoColor: !stdoutIsTerminal()}
	if !opts.NoColor {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			opts.Width = w
		}
	}
	return opts
}
