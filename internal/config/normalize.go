package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScheduler()
	c.normalizeTranscode()
	c.normalizeProfiles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Database = strings.TrimSpace(c.Paths.Database)
	if c.Paths.Database == "" {
		c.Paths.Database = defaultDatabase
	}
	return nil
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.CardCount <= 0 {
		c.Scheduler.CardCount = defaultCardCount
	}
	if c.Scheduler.MaxQueueEntries <= 0 {
		c.Scheduler.MaxQueueEntries = defaultMaxQueueEntries
	}
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = defaultPollInterval
	}
	if c.Scheduler.AutosaveInterval <= 0 {
		c.Scheduler.AutosaveInterval = defaultAutosaveInterval
	}
}

func (c *Config) normalizeTranscode() {
	if c.Transcode.Workers <= 0 {
		c.Transcode.Workers = defaultWorkers
	}
	c.Transcode.EncoderBinary = strings.TrimSpace(c.Transcode.EncoderBinary)
	if c.Transcode.EncoderBinary == "" {
		c.Transcode.EncoderBinary = defaultEncoderBinary
	}
	c.Transcode.HistoryDB = strings.TrimSpace(c.Transcode.HistoryDB)
	if c.Transcode.HistoryDB == "" {
		c.Transcode.HistoryDB = defaultHistoryDB
	}
}

func (c *Config) normalizeProfiles() {
	c.Profiles.File = strings.TrimSpace(c.Profiles.File)
	if c.Profiles.File == "" {
		c.Profiles.File = defaultProfilesFile
	}
	c.Profiles.Default = strings.TrimSpace(c.Profiles.Default)
	if c.Profiles.Default == "" {
		c.Profiles.Default = defaultProfile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
