// This file contains the environment variable overrides.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the FRACTAL_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

func intOverride(dst func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst(c) = parsed
		}
	}
}

func durationOverride(dst func(*AppConfig) *time.Duration) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst(c) = parsed
		}
	}
}

func boolOverride(dst func(*AppConfig) *bool) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		p := dst(c)
		*p = parseBoolEnv(v, *p)
	}
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"WIDTH", []string{"width"}, intOverride(func(c *AppConfig) *int { return &c.Width })},
	{"HEIGHT", []string{"height"}, intOverride(func(c *AppConfig) *int { return &c.Height })},
	{"MAX_ITERATIONS", []string{"max-iterations"}, intOverride(func(c *AppConfig) *int { return &c.MaxIterations })},
	{"WORKERS", []string{"workers"}, intOverride(func(c *AppConfig) *int { return &c.Workers })},
	{"QUEUE", []string{"queue"}, intOverride(func(c *AppConfig) *int { return &c.QueueCapacity })},
	{"MIN_PRECISION", []string{"min-precision"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.MinPrecision = uint(parsed)
		}
	}},
	{"BIAS", []string{"bias"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 0, 32); err == nil {
			c.Bias = uint32(parsed)
		}
	}},

	// Duration overrides
	{"ADMISSION_TIMEOUT", []string{"admission-timeout"}, durationOverride(func(c *AppConfig) *time.Duration { return &c.AdmissionTimeout })},
	{"TIMEOUT", []string{"timeout"}, durationOverride(func(c *AppConfig) *time.Duration { return &c.Timeout })},

	// String overrides
	{"BACKEND", []string{"backend"}, func(c *AppConfig, v string) { c.Backend = v }},
	{"PALETTE", []string{"palette"}, func(c *AppConfig, v string) { c.Palette = v }},
	{"OUTPUT", []string{"output", "o"}, func(c *AppConfig, v string) { c.OutputFile = v }},
	{"METRICS_ADDR", []string{"metrics-addr"}, func(c *AppConfig, v string) { c.MetricsAddr = v }},
	{"GC_MODE", []string{"gc-mode"}, func(c *AppConfig, v string) { c.GCMode = v }},
	{"CALIBRATION_PROFILE", []string{"calibration-profile"}, func(c *AppConfig, v string) { c.CalibrationProfile = v }},

	// Boolean overrides
	{"SHADE", []string{"shade"}, boolOverride(func(c *AppConfig) *bool { return &c.Shade })},
	{"TUI", []string{"tui"}, boolOverride(func(c *AppConfig) *bool { return &c.TUI })},
	{"QUIET", []string{"quiet", "q"}, boolOverride(func(c *AppConfig) *bool { return &c.Quiet })},
	{"VERBOSE", []string{"verbose", "v"}, boolOverride(func(c *AppConfig) *bool { return &c.Verbose })},
	{"DETAILS", []string{"details", "d"}, boolOverride(func(c *AppConfig) *bool { return &c.Details })},
	{"CALIBRATE", []string{"calibrate"}, boolOverride(func(c *AppConfig) *bool { return &c.Calibrate })},
	{"AUTO_CALIBRATE", []string{"auto-calibrate"}, boolOverride(func(c *AppConfig) *bool { return &c.AutoCalibrate })},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
