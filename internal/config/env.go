// This file contains environment variable overrides.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// envOverride maps an env key (without the FIBITER_ prefix) to the flag it
// shadows and a function that applies the value.
type envOverride struct {
	envKey string
	flag   string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides.
// Unparsable values leave the configuration untouched.
var envOverrides = []envOverride{
	// Numeric
	{"COUNT", "count", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Count = parsed
		}
	}},
	{"START", "start", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Start = parsed
		}
	}},
	{"LAST_DIGITS", "last-digits", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.LastDigits = parsed
		}
	}},
	{"BUFFER", "buffer", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Buffer = parsed
		}
	}},

	// Durations
	{"TIMEOUT", "timeout", func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},
	{"INTERVAL", "interval", func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Interval = parsed
		}
	}},

	// Strings
	{"NUMERIC", "numeric", func(c *AppConfig, v string) { c.Numeric = v }},
	{"OVERFLOW", "overflow", func(c *AppConfig, v string) { c.Overflow = v }},
	{"FORMAT", "format", func(c *AppConfig, v string) { c.Format = v }},
	{"OUTPUT", "output", func(c *AppConfig, v string) { c.OutputFile = v }},
	{"SERVE", "serve", func(c *AppConfig, v string) { c.Serve = v }},
	{"LOG_LEVEL", "log-level", func(c *AppConfig, v string) { c.LogLevel = v }},

	// Booleans
	{"QUIET", "quiet", func(c *AppConfig, v string) { c.Quiet = parseBoolEnv(v, c.Quiet) }},
	{"VERBOSE", "verbose", func(c *AppConfig, v string) { c.Verbose = parseBoolEnv(v, c.Verbose) }},
	{"NO_COLOR", "no-color", func(c *AppConfig, v string) { c.NoColor = parseBoolEnv(v, c.NoColor) }},
	{"TUI", "tui", func(c *AppConfig, v string) { c.TUI = parseBoolEnv(v, c.TUI) }},
}

// parseBoolEnv accepts "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive). Anything else returns defaultVal.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies FIBITER_* values for every flag that was not set
// explicitly on the command line.
func applyEnvOverrides(config *AppConfig, fs *pflag.FlagSet) {
	for _, o := range envOverrides {
		if fs.Changed(o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
