package config

// Config is the root configuration for hookmount.
type Config struct {
	Hooks   HooksConfig   `yaml:"hooks,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
}

// HooksConfig controls how hooks are mounted.
type HooksConfig struct {
	DefaultPriority int    `yaml:"defaultPriority"`
	Manifest        string `yaml:"manifest,omitempty"`   // HCL manifest mounted by "fire" and "hooks" when no file is given
	ScriptsDir      string `yaml:"scriptsDir,omitempty"` // base for relative Lua script paths
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// StoreConfig configures the SQLite firing journal.
type StoreConfig struct {
	Path          string `yaml:"path,omitempty"`
	TablePrefix   string `yaml:"tablePrefix,omitempty"`
	RecordFirings bool   `yaml:"recordFirings"`
}
