package config

import (
	"errors"
	"fmt"
)

// Limits enforced on configuration values. Card and worker counts cap the
// fixed resources the daemon allocates at startup.
const (
	MaxCards   = 8
	MaxWorkers = 16
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.CardCount > MaxCards {
		return fmt.Errorf("scheduler.card_count must not exceed %d", MaxCards)
	}
	if c.Scheduler.MaxQueueEntries > 1024 {
		return errors.New("scheduler.max_queue_entries must not exceed 1024")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Workers > MaxWorkers {
		return fmt.Errorf("transcode.workers must not exceed %d", MaxWorkers)
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if c.Profiles.Default == "" {
		return errors.New("profiles.default must be set")
	}
	return nil
}
