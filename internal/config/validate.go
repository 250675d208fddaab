package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateEditing(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.SocketPath == "" {
		return errors.New("paths.socket_path must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.EnginePath == "" {
		return errors.New("engine.engine_path must be set")
	}
	if c.Engine.ProbePath == "" {
		return errors.New("engine.probe_path must be set")
	}
	if c.Engine.InvocationTimeoutSeconds < 0 {
		return errors.New("engine.invocation_timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateEditing() error {
	switch c.Editing.RangePolicy {
	case RangePolicyPassthrough, RangePolicyReject, RangePolicyClamp:
		return nil
	default:
		return fmt.Errorf("editing.range_policy: unsupported value %q (use passthrough, reject, or clamp)", c.Editing.RangePolicy)
	}
}

func (c *Config) validateCleanup() error {
	if c.Cleanup.TempMaxAgeMinutes < MinTempMaxAgeMinutes {
		return fmt.Errorf("cleanup.temp_max_age_minutes must be at least %d", MinTempMaxAgeMinutes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
