package config

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Hooks.DefaultPriority < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "hooks.defaultPriority",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Hooks.DefaultPriority),
		})
	}

	if m := cfg.Hooks.Manifest; m != "" && filepath.Ext(m) != ".hcl" {
		issues = append(issues, ValidationIssue{
			Path:    "hooks.manifest",
			Message: fmt.Sprintf("must be an .hcl file, got %q", m),
		})
	}

	validLogLevels := []string{"silent", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	for _, r := range cfg.Store.TablePrefix {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			issues = append(issues, ValidationIssue{
				Path:    "store.tablePrefix",
				Message: fmt.Sprintf("may contain only letters, digits and underscores, got %q", cfg.Store.TablePrefix),
			})
			break
		}
	}

	return issues
}
