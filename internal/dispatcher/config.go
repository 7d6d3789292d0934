package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic wraps handler execution in panic recovery. A recovered
	// panic is reported like any other error. Hooks are always recovered.
	RecoverFromPanic bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics:    false,
		RecoverFromPanic: true,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}
