// Package cliconfig holds CLI configuration for cuffstream with the usual
// precedence: flags override environment variables, which override the
// config file, which overrides defaults.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

// Config holds CLI configuration for cuffstream.
type Config struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string

	Mode      string
	Threshold float64

	BufferSize    int
	HistoryCap    int
	FlushInterval time.Duration

	LogPath     string
	MetricsAddr string
	WatchConfig bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BaudRate:      9600,
		DataBits:      8,
		StopBits:      1,
		Parity:        "N",
		Mode:          "measure",
		BufferSize:    4096,
		HistoryCap:    3600,
		FlushInterval: 33 * time.Millisecond,
		Port:          os.Getenv("CUFFSTREAM_PORT"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", domain.ErrInvalidConfig)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate must be positive", domain.ErrInvalidConfig)
	}
	if _, err := c.OperatingMode(); err != nil {
		return err
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative", domain.ErrInvalidConfig)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", domain.ErrInvalidConfig)
	}
	if c.HistoryCap < 0 {
		return fmt.Errorf("%w: history cap must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// OperatingMode maps the configured mode name to a domain.OperatingMode.
func (c *Config) OperatingMode() (domain.OperatingMode, error) {
	switch c.Mode {
	case "", "measure":
		return domain.ModeMeasure, nil
	case "deflate", "linear-deflate":
		return domain.ModeLinearDeflate, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfig, c.Mode)
	}
}

// Logger returns the CLI's console logger.
func Logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag has not been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from an optional pointer if flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration value if flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses and sets an int value if flag not changed.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %w", flag, err)
	}
	*dst = n
	return nil
}

// setFloatFromString parses and sets a float value if flag not changed.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses and sets a bool value if flag not changed.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	if b, err := strconv.ParseBool(value); err == nil {
		*dst = b
	}
}
