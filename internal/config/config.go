package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations used by the daemon.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	SpoolDir  string `toml:"spool_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	Database  string `toml:"database"`
}

// Scheduler contains capture-card scheduling settings.
type Scheduler struct {
	CardCount        int `toml:"card_count"`
	MaxQueueEntries  int `toml:"max_queue_entries"`
	PollInterval     int `toml:"poll_interval"`
	AutosaveInterval int `toml:"autosave_interval"`
}

// Transcode contains worker-pool and encoder settings.
type Transcode struct {
	Workers       int    `toml:"workers"`
	EncoderBinary string `toml:"encoder_binary"`
	HistoryDB     string `toml:"history_db"`
}

// Profiles contains transcoding-profile registry settings.
type Profiles struct {
	File        string `toml:"file"`
	Default     string `toml:"default"`
	AutoRefresh bool   `toml:"auto_refresh"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tapedeck.
//
// Sections by subsystem:
//   - Paths: data, spool, output and log directories plus the database file
//   - Scheduler: card count, queue bounds and timer intervals
//   - Transcode: worker pool size and the external encoder binary
//   - Profiles: transcoding profile file, default profile, auto refresh
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Scheduler Scheduler `toml:"scheduler"`
	Transcode Transcode `toml:"transcode"`
	Profiles  Profiles  `toml:"profiles"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tapedeck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tapedeck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.SpoolDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the absolute path of the recording database file.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Paths.Database) {
		return c.Paths.Database
	}
	return filepath.Join(c.Paths.DataDir, c.Paths.Database)
}

// HistoryDBPath returns the absolute path of the transcode history database.
func (c *Config) HistoryDBPath() string {
	if filepath.IsAbs(c.Transcode.HistoryDB) {
		return c.Transcode.HistoryDB
	}
	return filepath.Join(c.Paths.DataDir, c.Transcode.HistoryDB)
}

// ProfilesPath returns the absolute path of the profile definitions file.
func (c *Config) ProfilesPath() string {
	if filepath.IsAbs(c.Profiles.File) {
		return c.Profiles.File
	}
	return filepath.Join(c.Paths.DataDir, c.Profiles.File)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
