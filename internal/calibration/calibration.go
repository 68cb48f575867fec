// Package calibration measures the worker pool size that renders fastest on
// the current machine and persists it in a profile reused by later runs.
package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

// Reference render sizes. The full calibration uses a larger field so that
// per-row overhead does not dominate the measurement.
var (
	ReferenceDevice = view.Device{Width: 320, Height: 240}
	QuickDevice     = view.Device{Width: 160, Height: 120}
)

// MaxProfileAge is how long a saved profile is trusted.
const MaxProfileAge = 30 * 24 * time.Hour

// Options configures a calibration run.
type Options struct {
	Backend       string
	Device        view.Device
	MaxIterations int
	MinPrecision  uint
	ProfilePath   string
	Logger        zerolog.Logger
}

// OptionsFromConfig derives calibration options from the application
// configuration. Comparison mode calibrates on float64.
func OptionsFromConfig(cfg config.AppConfig) Options {
	backend := cfg.Backend
	if backend == "" || backend == config.AllBackends {
		backend = numeric.Float64Backend
	}
	path := cfg.CalibrationProfile
	if path == "" {
		path = GetDefaultProfilePath()
	}
	return Options{
		Backend:       backend,
		Device:        ReferenceDevice,
		MaxIterations: cfg.MaxIterations,
		MinPrecision:  cfg.MinPrecision,
		ProfilePath:   path,
		Logger:        zerolog.Nop(),
	}
}

type calibrationResult struct {
	Workers  int
	Duration time.Duration
	Err      error
}

// measure renders the full view once on a fresh engine of the given size.
func measure(ctx context.Context, opts Options, workers int, reporter orchestration.ProgressReporter, out io.Writer) calibrationResult {
	eng, err := render.NewEngine(render.Config{
		Workers:       workers,
		QueueCapacity: config.DefaultQueueCapacity,
		Backend:       opts.Backend,
		MinPrecision:  opts.MinPrecision,
		Kernel:        fractal.Options{MaxIterations: opts.MaxIterations, Bias: fractal.DefaultBias},
		Logger:        opts.Logger,
	})
	if err != nil {
		return calibrationResult{Workers: workers, Err: err}
	}
	defer eng.Close()

	jobs := []orchestration.RenderJob{{Name: fmt.Sprintf("workers=%d", workers), Renderer: eng}}
	results := orchestration.ExecuteRenders(ctx, jobs, view.Full(opts.Device), opts.Device, reporter, out)
	return calibrationResult{Workers: workers, Duration: results[0].Duration, Err: results[0].Err}
}

func measureAll(ctx context.Context, opts Options, counts []int, reporter orchestration.ProgressReporter, out io.Writer) []calibrationResult {
	results := make([]calibrationResult, 0, len(counts))
	for _, n := range counts {
		if ctx.Err() != nil {
			break
		}
		results = append(results, measure(ctx, opts, n, reporter, out))
	}
	return results
}

// bestResult returns the fastest successful measurement. Ties go to the
// smaller pool.
func bestResult(results []calibrationResult) (calibrationResult, bool) {
	var best calibrationResult
	found := false
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if !found || r.Duration < best.Duration {
			best, found = r, true
		}
	}
	return best, found
}

// RunCalibration measures every worker count from GenerateWorkerCounts,
// prints the comparison table, and saves the best count to the profile.
func RunCalibration(ctx context.Context, out io.Writer, opts Options, reporter orchestration.ProgressReporter, colors apperrors.ColorProvider) int {
	fmt.Fprintf(out, "--- Calibration mode: finding the optimal worker count (%s, %s) ---\n", opts.Backend, opts.Device)
	start := time.Now()
	results := measureAll(ctx, opts, GenerateWorkerCounts(), reporter, out)
	if err := ctx.Err(); err != nil {
		return apperrors.HandleRenderError(err, time.Since(start), out, colors)
	}

	best, ok := bestResult(results)
	printCalibrationResults(out, results, best.Workers)
	if !ok {
		fmt.Fprintln(out, "Calibration failed: no worker count completed the reference render.")
		return apperrors.ExitErrorGeneric
	}

	profile := NewProfile()
	profile.OptimalWorkers = best.Workers
	profile.CalibrationBackend = opts.Backend
	profile.CalibrationDevice = opts.Device.String()
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
	printCalibrationProfile(out, profile)
	if err := profile.SaveProfile(opts.ProfilePath); err != nil {
		warn(out, colors, "could not save calibration profile: %v", err)
	} else {
		fmt.Fprintf(out, "Profile saved to %s\n", opts.ProfilePath)
	}
	return apperrors.ExitSuccess
}

// AutoCalibrate runs a quick, silent calibration at startup and returns cfg
// with the measured worker count in place of the configured one.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer, opts Options) (config.AppConfig, bool) {
	opts.Device = QuickDevice
	results := measureAll(ctx, opts, GenerateQuickWorkerCounts(), orchestration.NullProgressReporter{}, io.Discard)
	best, ok := bestResult(results)
	if !ok || ctx.Err() != nil {
		return cfg, false
	}
	cfg.Workers = best.Workers

	profile := NewProfile()
	profile.OptimalWorkers = best.Workers
	profile.CalibrationBackend = opts.Backend
	profile.CalibrationDevice = opts.Device.String()
	if err := profile.SaveProfile(opts.ProfilePath); err != nil {
		opts.Logger.Warn().Err(err).Str("path", opts.ProfilePath).Msg("could not save calibration profile")
	}

	printCalibrationOutput(cfg, out)
	return cfg, true
}

// LoadCachedCalibration applies a saved, valid, fresh profile to cfg. The
// pool settings still at zero afterwards receive the adaptive defaults.
func LoadCachedCalibration(cfg config.AppConfig, path string) (config.AppConfig, bool) {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	profile, loaded := LoadOrCreateProfile(path)
	if !loaded || profile.IsStale(MaxProfileAge) || profile.OptimalWorkers <= 0 {
		return cfg, false
	}
	if cfg.Workers == 0 {
		cfg.Workers = profile.OptimalWorkers
	}
	return config.ApplyAdaptiveDefaults(cfg), true
}

func warn(out io.Writer, colors apperrors.ColorProvider, format string, args ...any) {
	yellow, reset := "", ""
	if colors != nil {
		yellow, reset = colors.Yellow(), colors.Reset()
	}
	fmt.Fprintf(out, "%sWarning: %s%s\n", yellow, fmt.Sprintf(format, args...), reset)
}
