package configwatcher

import "github.com/nibp-labs/cuffstream/pkg/cuffstream"

// WithConfigWatcher returns a cuffstream Option that enables config file
// watching. When enabled, the plugin monitors the TOML config file and
// applies trigger threshold changes to the running monitor.
//
// Usage:
//
//	m, err := cuffstream.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path: "/etc/cuffstream/config.toml",
//	    }),
//	)
func WithConfigWatcher(cfg Config) cuffstream.Option {
	plugin := New(cfg)
	return cuffstream.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a cuffstream Option that enables config
// watching with default settings.
func WithDefaultConfigWatcher() cuffstream.Option {
	return WithConfigWatcher(DefaultConfig())
}
