package config

import "fmt"

// DefaultPriority is the priority used when a declaration carries none.
const DefaultPriority = 10

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied. Paths left
// empty are filled from Paths by Resolve.
func Defaults() Config {
	return Config{
		Hooks: HooksConfig{
			DefaultPriority: DefaultPriority,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Store: StoreConfig{
			RecordFirings: true,
		},
	}
}

// Resolve fills empty path settings from p.
func (c *Config) Resolve(p Paths) {
	if c.Hooks.Manifest == "" {
		c.Hooks.Manifest = p.Manifest
	}
	if c.Hooks.ScriptsDir == "" {
		c.Hooks.ScriptsDir = p.Scripts
	}
	if c.Store.Path == "" {
		c.Store.Path = p.Database
	}
}
