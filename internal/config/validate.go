package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateRuntime(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		return errors.New("paths.assets_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		return errors.New("paths.socket_path must be set")
	}
	return nil
}

func (c *Config) validateCapture() error {
	switch c.Capture.DefaultFacing {
	case "front", "back":
	default:
		return fmt.Errorf("capture.default_facing must be front or back, got %q", c.Capture.DefaultFacing)
	}
	if c.Capture.DefaultAspect != "" {
		if err := validateAspect(c.Capture.DefaultAspect); err != nil {
			return err
		}
	}
	return nil
}

func validateAspect(raw string) error {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("capture.default_aspect must be W:H, got %q", raw)
	}
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return fmt.Errorf("capture.default_aspect must use positive integers, got %q", raw)
		}
	}
	return nil
}

func (c *Config) validateRuntime() error {
	if c.Runtime.SessionIdleTimeout <= 0 {
		return errors.New("runtime.session_idle_timeout must be positive (seconds)")
	}
	if c.Runtime.ReclaimInterval <= 0 {
		return errors.New("runtime.reclaim_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
