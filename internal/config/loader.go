package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandPathFields processes environment variable references in path
// settings, so a manifest can live under ${XDG_CONFIG_HOME} and the like.
func expandPathFields(cfg *Config) {
	cfg.Hooks.Manifest = expandEnvVars(cfg.Hooks.Manifest)
	cfg.Hooks.ScriptsDir = expandEnvVars(cfg.Hooks.ScriptsDir)
	cfg.Store.Path = expandEnvVars(cfg.Store.Path)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only. Keys absent from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandPathFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file, creating its
// directory if needed.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ParseValue converts a command-line value to the YAML scalar it spells,
// so "config set hooks.defaultPriority 5" stores a number.
func ParseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case int, bool, float64:
		return v
	}
	return s
}

// applyDefaults fills empty fields an explicit but blank YAML key left behind.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads HOOKMOUNT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOOKMOUNT_DEFAULT_PRIORITY"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Hooks.DefaultPriority = p
		}
	}
	if v := os.Getenv("HOOKMOUNT_MANIFEST"); v != "" {
		cfg.Hooks.Manifest = v
	}
	if v := os.Getenv("HOOKMOUNT_SCRIPTS_DIR"); v != "" {
		cfg.Hooks.ScriptsDir = v
	}
	if v := os.Getenv("HOOKMOUNT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HOOKMOUNT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("HOOKMOUNT_TABLE_PREFIX"); v != "" {
		cfg.Store.TablePrefix = v
	}
	if v := os.Getenv("HOOKMOUNT_RECORD_FIRINGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Store.RecordFirings = b
		}
	}
}
