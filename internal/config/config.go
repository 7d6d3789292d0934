// Package config loads ctrlshell settings.
//
// Settings are layered: built-in defaults, then the TOML config file, then
// CTRLSHELL_* environment variables. Command line flags are applied last by
// the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CTRLSHELL_"

// Config is the complete settings tree.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Shell   ShellConfig   `toml:"shell"`
	Fetch   FetchConfig   `toml:"fetch"`
	Eval    EvalConfig    `toml:"eval"`
	Project ProjectConfig `toml:"project"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File receives log output. When empty, debug logs go to
	// DefaultLogPath and logs at other levels are discarded.
	File string `toml:"file"`
	// SlowCommand logs a warning for commands that take longer. Zero
	// disables the warning.
	SlowCommand Duration `toml:"slow_command"`
}

// ShellConfig configures shell commands.
type ShellConfig struct {
	// Program is invoked as `Program -c <line>`.
	Program string `toml:"program"`
	// Timeout kills commands that run longer. Zero means no limit.
	Timeout Duration `toml:"timeout"`
	// MaxOutput caps the captured output of one command, in bytes.
	MaxOutput int `toml:"max_output"`
}

// FetchConfig configures URL fetching.
type FetchConfig struct {
	// Timeout bounds the whole request. Zero means no limit.
	Timeout Duration `toml:"timeout"`
	// MaxBytes caps the displayed body.
	MaxBytes int64 `toml:"max_bytes"`
	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent"`
	// AllowedHosts restricts fetches to these hosts and their subdomains.
	// Empty allows every host.
	AllowedHosts []string `toml:"allowed_hosts"`
}

// EvalConfig configures expression evaluation.
type EvalConfig struct {
	// Timeout bounds one evaluation. Zero means no limit.
	Timeout Duration `toml:"timeout"`
}

// ProjectConfig configures the project folder list.
type ProjectConfig struct {
	// File is the project file to attach at startup.
	File string `toml:"file"`
	// Watch reloads the project when the file changes on disk.
	Watch bool `toml:"watch"`
}

// Default returns the built-in settings.
func Default() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Config{
		Log: LogConfig{
			Level:       "info",
			SlowCommand: Duration{2 * time.Second},
		},
		Shell: ShellConfig{
			Program:   shell,
			Timeout:   Duration{30 * time.Second},
			MaxOutput: 1 << 20,
		},
		Fetch: FetchConfig{
			Timeout:   Duration{15 * time.Second},
			MaxBytes:  1 << 20,
			UserAgent: "ctrlshell",
		},
		Eval: EvalConfig{
			Timeout: Duration{2 * time.Second},
		},
		Project: ProjectConfig{Watch: true},
	}
}

// Validate checks the settings for values that cannot work.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	if c.Shell.Program == "" {
		return fmt.Errorf("%w: shell.program is empty", ErrInvalidValue)
	}
	if c.Shell.Timeout.Duration < 0 || c.Fetch.Timeout.Duration < 0 || c.Eval.Timeout.Duration < 0 ||
		c.Log.SlowCommand.Duration < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidValue)
	}
	if c.Shell.MaxOutput <= 0 {
		return fmt.Errorf("%w: shell.max_output must be positive", ErrInvalidValue)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("%w: fetch.max_bytes must be positive", ErrInvalidValue)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/ctrlshell/config.toml, falling back to
// the OS user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "ctrlshell", "config.toml")
}

// DefaultLogPath returns $XDG_STATE_HOME/ctrlshell/ctrlshell.log, falling
// back to the OS cache directory.
func DefaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserCacheDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "ctrlshell", "ctrlshell.log")
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
