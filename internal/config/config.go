// Package config defines the renderer's command-line configuration: flag
// parsing, FRACTAL_* environment overrides, adaptive defaults and
// validation.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/view"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRACTAL_"

// Static defaults. Workers and queue capacity left at zero are resolved by
// ApplyAdaptiveDefaults.
const (
	DefaultWidth         = 800
	DefaultHeight        = 600
	DefaultMaxIterations = 1000
	DefaultMinPrecision  = 64
	DefaultBackend       = "bigfloat"
	DefaultBias          = 0xFF000000
	DefaultPalette       = "classic"
	DefaultOutputFile    = "fractal.png"
	DefaultTimeout       = 5 * time.Minute
	DefaultGCMode        = "auto"
)

// AllBackends selects every registered backend for a comparison run.
const AllBackends = "all"

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Width and Height are the device size in pixels.
	Width, Height int
	// MaxIterations caps the orbit length of each pixel.
	MaxIterations int
	// Workers is the worker pool size. Zero selects 2 × NumCPU.
	Workers int
	// QueueCapacity bounds the row tasks waiting for a worker.
	QueueCapacity int
	// AdmissionTimeout bounds each row submission; zero blocks.
	AdmissionTimeout time.Duration
	// MinPrecision is the precision floor for view arithmetic, in bits.
	MinPrecision uint
	// Backend names the numeric backend, or "all" to compare them.
	Backend string
	// Bias is added to the iteration count of escaped points.
	Bias uint32
	// Palette maps scores to colours in the output image.
	Palette string
	// Shade adds the faint background gradient to escaped points.
	Shade bool
	// Zooms are drag selections applied in order to the reset view.
	Zooms []view.Selection
	// OutputFile is the image path; its extension picks the format.
	OutputFile string
	// Timeout bounds the whole run.
	Timeout time.Duration
	// TUI starts the interactive explorer.
	TUI bool
	// Interactive starts the line-oriented explorer.
	Interactive bool
	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string
	// GCMode controls the garbage collector during renders: auto, aggressive
	// or disabled.
	GCMode string
	// Quiet prints only the output path.
	Quiet bool
	// Verbose enables debug logging.
	Verbose bool
	// Details prints memory statistics after the render.
	Details bool
	// Calibrate times reference renders to pick a worker count.
	Calibrate bool
	// AutoCalibrate runs a quick calibration before the run and saves it.
	AutoCalibrate bool
	// CalibrationProfile is the profile path; empty selects the default.
	CalibrationProfile string
	// Completion prints a shell completion script for the named shell.
	Completion string
	// NoColor disables coloured output.
	NoColor bool
}

// zoomList collects repeated -zoom flags.
type zoomList struct{ sels *[]view.Selection }

func (z zoomList) String() string {
	if z.sels == nil {
		return ""
	}
	parts := make([]string, len(*z.sels))
	for i, s := range *z.sels {
		parts[i] = fmt.Sprintf("%d,%d,%d,%d", s.X1, s.Y1, s.X2, s.Y2)
	}
	return strings.Join(parts, " ")
}

func (z zoomList) Set(v string) error {
	sel, err := ParseSelection(v)
	if err != nil {
		return err
	}
	*z.sels = append(*z.sels, sel)
	return nil
}

// ParseSelection parses "x1,y1,x2,y2" in device pixels.
func ParseSelection(s string) (view.Selection, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return view.Selection{}, fmt.Errorf("zoom %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return view.Selection{}, fmt.Errorf("zoom %q: %w", s, err)
		}
		v[i] = n
	}
	return view.Selection{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// biasValue parses decimal or 0x-prefixed 32-bit values.
type biasValue struct{ p *uint32 }

func (b biasValue) String() string {
	if b.p == nil {
		return ""
	}
	return fmt.Sprintf("0x%08X", *b.p)
}

func (b biasValue) Set(v string) error {
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return fmt.Errorf("bias %q: %w", v, err)
	}
	*b.p = uint32(n)
	return nil
}

// ParseConfig parses args into an AppConfig, applies FRACTAL_* overrides
// for flags not given on the command line, and validates the result.
//
// Parameters:
//   - programName: The name used in usage output.
//   - args: The command-line arguments without the program name.
//   - errorWriter: Receives usage and parse errors.
//   - backends: The registered numeric backends.
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp for -h, a parse error, or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, backends []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	cfg := AppConfig{Bias: DefaultBias}
	fs.IntVar(&cfg.Width, "width", DefaultWidth, "Image width in pixels.")
	fs.IntVar(&cfg.Height, "height", DefaultHeight, "Image height in pixels.")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", DefaultMaxIterations, "Iteration cap for points that never escape.")
	fs.IntVar(&cfg.Workers, "workers", 0, "Worker pool size (0 = 2 x CPUs).")
	fs.IntVar(&cfg.QueueCapacity, "queue", 0, "Pending row queue capacity (0 = 500).")
	fs.DurationVar(&cfg.AdmissionTimeout, "admission-timeout", 0, "Longest wait for queue space per row (0 = wait).")
	fs.UintVar(&cfg.MinPrecision, "min-precision", DefaultMinPrecision, "Precision floor in bits.")
	fs.StringVar(&cfg.Backend, "backend", DefaultBackend, fmt.Sprintf("Numeric backend: %s, or %q to compare.", strings.Join(backends, ", "), AllBackends))
	fs.Var(biasValue{&cfg.Bias}, "bias", "Value added to escaped iteration counts (default 0xFF000000).")
	fs.StringVar(&cfg.Palette, "palette", DefaultPalette, "Output palette: argb, classic, fire, gray.")
	fs.BoolVar(&cfg.Shade, "shade", false, "Add a faint background gradient to escaped points.")
	fs.Var(zoomList{&cfg.Zooms}, "zoom", "Drag selection x1,y1,x2,y2 applied to the reset view (repeatable).")
	fs.StringVar(&cfg.OutputFile, "output", DefaultOutputFile, "Output image (.png, .bmp, .tiff).")
	fs.StringVar(&cfg.OutputFile, "o", DefaultOutputFile, "Output image (shorthand).")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Maximum run time.")
	fs.BoolVar(&cfg.TUI, "tui", false, "Start the interactive terminal explorer.")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Start the line-oriented explorer.")
	fs.BoolVar(&cfg.Interactive, "i", false, "Start the line-oriented explorer (shorthand).")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090).")
	fs.StringVar(&cfg.GCMode, "gc-mode", DefaultGCMode, "Garbage collector control: auto, aggressive, disabled.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the output path.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose mode (shorthand).")
	fs.BoolVar(&cfg.Details, "details", false, "Print memory statistics after rendering.")
	fs.BoolVar(&cfg.Details, "d", false, "Details mode (shorthand).")
	fs.BoolVar(&cfg.Calibrate, "calibrate", false, "Time reference renders at several worker counts.")
	fs.BoolVar(&cfg.AutoCalibrate, "auto-calibrate", false, "Run a quick calibration first and use its worker count.")
	fs.StringVar(&cfg.CalibrationProfile, "calibration-profile", "", "Calibration profile path.")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script: bash, zsh, fish, powershell.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable coloured output.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(backends); err != nil {
		fmt.Fprintln(errorWriter, "Error:", err)
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the semantic consistency of the configuration.
//
// Parameters:
//   - backends: The registered numeric backends.
//
// Returns:
//   - error: A ConfigError describing the first problem found, or nil.
func (c AppConfig) Validate(backends []string) error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return apperrors.NewConfigError("image size must be positive, got %dx%d", c.Width, c.Height)
	case c.MaxIterations <= 0:
		return apperrors.NewConfigError("max-iterations must be positive, got %d", c.MaxIterations)
	case uint64(c.Bias)+uint64(c.MaxIterations) > math.MaxUint32:
		return apperrors.NewConfigError("bias %#x plus max-iterations %d overflows the 32-bit score (max-iterations at most %d)",
			c.Bias, c.MaxIterations, math.MaxUint32-uint64(c.Bias))
	case c.Workers < 0:
		return apperrors.NewConfigError("workers cannot be negative, got %d", c.Workers)
	case c.QueueCapacity < 0:
		return apperrors.NewConfigError("queue capacity cannot be negative, got %d", c.QueueCapacity)
	case c.AdmissionTimeout < 0:
		return apperrors.NewConfigError("admission-timeout cannot be negative")
	case c.Timeout <= 0:
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	case c.MinPrecision < 53:
		return apperrors.NewConfigError("min-precision must be at least 53 bits, got %d", c.MinPrecision)
	case c.TUI && c.Interactive:
		return apperrors.NewConfigError("-tui and -interactive are mutually exclusive")
	}
	if c.Backend != AllBackends && !slices.Contains(backends, c.Backend) {
		return apperrors.NewConfigError("unknown backend %q (available: %s, %s)", c.Backend, strings.Join(backends, ", "), AllBackends)
	}
	switch c.GCMode {
	case "auto", "aggressive", "disabled":
	default:
		return apperrors.NewConfigError("unknown gc-mode %q (auto, aggressive, disabled)", c.GCMode)
	}
	return nil
}

// Device returns the configured output size.
func (c AppConfig) Device() view.Device {
	return view.Device{Width: c.Width, Height: c.Height}
}
