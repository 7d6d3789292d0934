package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Load builds the configuration from defaults, the TOML file at path and
// the environment. An empty path or a missing file leaves the defaults.
//
// The result is not validated: callers apply their own overrides, such as
// command line flags, and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // File doesn't exist, not an error
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parse(cfg, path, data)
}

// parse decodes TOML data over cfg. Unknown keys are rejected so typos are
// not silently ignored.
func parse(cfg *Config, source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			perr.Message = serr.String()
		}
		return perr
	}
	return nil
}

// envSetter applies one environment value.
type envSetter func(cfg *Config, value string) error

// envMapping maps environment variable names to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	},
	EnvPrefix + "LOG_FILE": func(c *Config, v string) error {
		c.Log.File = v
		return nil
	},
	EnvPrefix + "LOG_SLOW_COMMAND": durationSetter(func(c *Config) *Duration { return &c.Log.SlowCommand }),
	EnvPrefix + "SHELL": func(c *Config, v string) error {
		c.Shell.Program = v
		return nil
	},
	EnvPrefix + "SHELL_TIMEOUT": durationSetter(func(c *Config) *Duration { return &c.Shell.Timeout }),
	EnvPrefix + "FETCH_TIMEOUT": durationSetter(func(c *Config) *Duration { return &c.Fetch.Timeout }),
	EnvPrefix + "EVAL_TIMEOUT":  durationSetter(func(c *Config) *Duration { return &c.Eval.Timeout }),
	EnvPrefix + "SHELL_MAX_OUTPUT": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Shell.MaxOutput = n
		return nil
	},
	EnvPrefix + "FETCH_MAX_BYTES": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Fetch.MaxBytes = n
		return nil
	},
	EnvPrefix + "FETCH_USER_AGENT": func(c *Config, v string) error {
		c.Fetch.UserAgent = v
		return nil
	},
	EnvPrefix + "FETCH_ALLOWED_HOSTS": func(c *Config, v string) error {
		c.Fetch.AllowedHosts = nil
		for _, host := range strings.Split(v, ",") {
			if host = strings.TrimSpace(host); host != "" {
				c.Fetch.AllowedHosts = append(c.Fetch.AllowedHosts, host)
			}
		}
		return nil
	},
	EnvPrefix + "PROJECT": func(c *Config, v string) error {
		c.Project.File = v
		return nil
	},
	EnvPrefix + "PROJECT_WATCH": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Project.Watch = b
		return nil
	},
}

func durationSetter(field func(*Config) *Duration) envSetter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		field(c).Duration = d
		return nil
	}
}

// applyEnv applies overrides found by lookup.
// Empty values are treated as set, not as unset.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			return &EnvError{Name: name, Value: value, Err: err}
		}
	}
	return nil
}
