// Package config loads agent configuration from the environment and an
// optional YAML file in the agent home directory.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values shared by the CLI and the daemon.
type Config struct {
	// Command API endpoint used by the control surface.
	ServerURL string

	// Daemon listen address.
	ListenAddr string

	// AgentHome is the directory holding persisted state, credentials, and logs.
	AgentHome string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the optional YAML overlay at <home>/config.yaml.
type fileConfig struct {
	ServerURL  string `yaml:"server_url"`
	ListenAddr string `yaml:"listen_addr"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
}

// Load reads configuration with precedence: defaults < config.yaml < environment.
func Load() Config {
	home := os.Getenv("OBSIDIAN_AGENT_HOME")
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".obsidian-agent")
		} else {
			home = ".obsidian-agent"
		}
	}

	cfg := Config{
		ServerURL:  "http://localhost:8675",
		ListenAddr: ":8675",
		AgentHome:  home,
		LogFile:    filepath.Join(home, "agent.log"),
		LogLevel:   slog.LevelInfo,
	}

	if fc, ok := loadFile(filepath.Join(home, "config.yaml")); ok {
		if fc.ServerURL != "" {
			cfg.ServerURL = fc.ServerURL
		}
		if fc.ListenAddr != "" {
			cfg.ListenAddr = fc.ListenAddr
		}
		if fc.LogFile != "" {
			cfg.LogFile = fc.LogFile
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = parseLogLevel(fc.LogLevel)
		}
	}

	cfg.ServerURL = getEnv("OBSIDIAN_AGENT_URL", cfg.ServerURL)
	cfg.ListenAddr = getEnv("OBSIDIAN_AGENT_ADDR", cfg.ListenAddr)
	cfg.LogFile = getEnv("OBSIDIAN_AGENT_LOG_FILE", cfg.LogFile)
	if level := os.Getenv("OBSIDIAN_AGENT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = parseLogLevel(level)
	}

	return cfg
}

// loadFile parses the YAML overlay, ignoring a missing file.
func loadFile(path string) (fileConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return fileConfig{}, false
	}
	return fc, true
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
