package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.
type FileConfig struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud_rate"`
	DataBits int    `toml:"data_bits"`
	StopBits int    `toml:"stop_bits"`
	Parity   string `toml:"parity"`

	Mode      string  `toml:"mode"`
	Threshold float64 `toml:"threshold"`

	BufferSize    int    `toml:"buffer_size"`
	HistoryCap    int    `toml:"history_cap"`
	FlushInterval string `toml:"flush_interval"`

	LogPath     string `toml:"log_path"`
	MetricsAddr string `toml:"metrics_addr"`
	WatchConfig *bool  `toml:"watch_config"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.cuffstream/config.toml if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cuffstream", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port", fc.Port, &cfg.Port)
	s.setString("parity", fc.Parity, &cfg.Parity)
	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setString("log", fc.LogPath, &cfg.LogPath)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	s.setInt("baud", fc.BaudRate, &cfg.BaudRate)
	s.setInt("data-bits", fc.DataBits, &cfg.DataBits)
	s.setInt("stop-bits", fc.StopBits, &cfg.StopBits)
	s.setInt("buffer-size", fc.BufferSize, &cfg.BufferSize)
	s.setInt("history-cap", fc.HistoryCap, &cfg.HistoryCap)

	s.setFloat("threshold", fc.Threshold, &cfg.Threshold)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval)
}
