package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (CUFFSTREAM_*). It respects flags that have been explicitly set (changed
// map). Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port", os.Getenv("CUFFSTREAM_PORT"), &cfg.Port)
	s.setString("parity", os.Getenv("CUFFSTREAM_PARITY"), &cfg.Parity)
	s.setString("mode", os.Getenv("CUFFSTREAM_MODE"), &cfg.Mode)
	s.setString("log", os.Getenv("CUFFSTREAM_LOG_PATH"), &cfg.LogPath)
	s.setString("metrics-addr", os.Getenv("CUFFSTREAM_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setIntFromString("baud", os.Getenv("CUFFSTREAM_BAUD_RATE"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setIntFromString("buffer-size", os.Getenv("CUFFSTREAM_BUFFER_SIZE"), &cfg.BufferSize); err != nil {
		return err
	}
	if err := s.setIntFromString("history-cap", os.Getenv("CUFFSTREAM_HISTORY_CAP"), &cfg.HistoryCap); err != nil {
		return err
	}
	if err := s.setFloatFromString("threshold", os.Getenv("CUFFSTREAM_THRESHOLD"), &cfg.Threshold); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", os.Getenv("CUFFSTREAM_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}

	s.setBoolFromString("watch-config", os.Getenv("CUFFSTREAM_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
