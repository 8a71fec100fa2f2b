package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	LogsDir         string `toml:"logs_dir"`
	ConversationDir string `toml:"conversation_dir"` // defaults to <logs_dir>/conversations
	MemoryDir       string `toml:"memory_dir"`
	InventoryFile   string `toml:"inventory_file"` // defaults to <memory_dir>/INVENTORY.md
	AdvisorsDir     string `toml:"advisors_dir"`
	PublicDir       string `toml:"public_dir"` // static assets, empty = none

	DBPath string `toml:"db_path"` // note index, empty = search disabled

	StatusURL   string `toml:"status_url"`
	StatusMatch string `toml:"status_match"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // console or json
}

// ActivityFile is the pipe-delimited tool activity log.
func (c *Config) ActivityFile() string {
	return filepath.Join(c.LogsDir, "activity.log")
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultPath returns ~/.config/axd/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "axd", "config.toml"), nil
}

func Load() (*Config, error) {
	cfgPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cfgPath)
}

// LoadFrom reads cfgPath over the defaults. A missing file is not an error.
func LoadFrom(cfgPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:        "0.0.0.0",
		Port:        3847,
		LogsDir:     filepath.Join(home, ".axd", "logs"),
		MemoryDir:   filepath.Join(home, ".claude", "projects", projectSlug(home), "memory"),
		AdvisorsDir: filepath.Join(home, "advisors"),
		DBPath:      filepath.Join(home, ".config", "axd", "notes.db"),
		StatusURL:   "http://localhost:8317/v1/models",
		StatusMatch: "claude",
		LogLevel:    "info",
		LogFormat:   "console",
	}

	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
			}
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	// expand ~ in paths
	cfg.LogsDir = expandHome(cfg.LogsDir, home)
	cfg.ConversationDir = expandHome(cfg.ConversationDir, home)
	cfg.MemoryDir = expandHome(cfg.MemoryDir, home)
	cfg.InventoryFile = expandHome(cfg.InventoryFile, home)
	cfg.AdvisorsDir = expandHome(cfg.AdvisorsDir, home)
	cfg.PublicDir = expandHome(cfg.PublicDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if cfg.ConversationDir == "" {
		cfg.ConversationDir = filepath.Join(cfg.LogsDir, "conversations")
	}
	if cfg.InventoryFile == "" {
		cfg.InventoryFile = filepath.Join(cfg.MemoryDir, "INVENTORY.md")
	}

	return cfg, nil
}

// projectSlug mirrors how Claude names per-directory project folders:
// /home/ubuntu -> -home-ubuntu.
func projectSlug(dir string) string {
	return strings.ReplaceAll(filepath.ToSlash(dir), "/", "-")
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
