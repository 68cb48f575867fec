// Package app wires configuration, rendering engines and the presentation
// layers into the fractal command.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/agbru/fractalcalc/internal/calibration"
	"github.com/agbru/fractalcalc/internal/cli"
	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/tui"
	"github.com/agbru/fractalcalc/internal/ui"
)

// Application represents the fractal application instance.
type Application struct {
	Config    config.AppConfig
	Backends  []string
	ErrWriter io.Writer

	logger *logging.ZerologAdapter
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithBackends restricts the numeric backends the application may use.
func WithBackends(backends ...string) AppOption {
	return func(a *Application) { a.Backends = backends }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if len(app.Backends) == 0 {
		app.Backends = numeric.Backends()
	}

	programName := "fractal"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, app.Backends)
	if err != nil {
		return nil, err
	}

	if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = cfgWithProfile
	} else {
		cfg = config.ApplyAdaptiveDefaults(cfg)
	}

	app.Config = cfg
	app.logger = logging.Nop()
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	level := zerolog.InfoLevel
	if a.Config.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	a.logger = logging.NewConsoleLogger(a.ErrWriter, "fractal", a.Config.Verbose)
	ui.InitTheme(a.Config.NoColor, a.Config.Palette)

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)

	switch {
	case a.Config.TUI:
		return a.runTUI(ctx, out)
	case a.Config.Interactive:
		return a.runREPL(out)
	}
	return a.runRender(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Backends); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) calibrationOptions() calibration.Options {
	opts := calibration.OptionsFromConfig(a.Config)
	opts.Logger = a.logger.Zerolog()
	return opts
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	return calibration.RunCalibration(ctx, out, a.calibrationOptions(), cli.CLIProgressReporter{}, cli.CLIColorProvider{})
}

// runAutoCalibrationIfEnabled runs auto-calibration if enabled.
func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if a.Config.AutoCalibrate {
		if a.Config.Quiet {
			out = io.Discard
		}
		if updated, ok := calibration.AutoCalibrate(ctx, a.Config, out, a.calibrationOptions()); ok {
			return updated
		}
	}
	return a.Config
}

// runTUI launches the interactive explorer on every available backend.
func (a *Application) runTUI(ctx context.Context, _ io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	collectors := metrics.NewCollectors()
	// The explorer owns the terminal, so engine logs are dropped.
	engines, err := a.newEngines(a.Backends, collectors, zerolog.Nop())
	if err != nil {
		return apperrors.HandleRenderError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	defer closeEngines(engines)

	stopServer := a.startMetricsServer(ctx, collectors)
	defer stopServer()

	tuiEngines := make(map[string]tui.Engine, len(engines))
	for name, e := range engines {
		tuiEngines[name] = e
	}
	return tui.Run(ctx, tuiEngines, a.Config, Version, logging.Nop())
}

// runREPL starts the line-oriented explorer on stdin.
func (a *Application) runREPL(out io.Writer) int {
	collectors := metrics.NewCollectors()
	engines, err := a.newEngines(a.Backends, collectors, a.logger.Zerolog())
	if err != nil {
		return apperrors.HandleRenderError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	defer closeEngines(engines)

	renderers := make(map[string]orchestration.Renderer, len(engines))
	for name, e := range engines {
		renderers[name] = e
	}
	repl := cli.NewREPL(renderers, cli.REPLConfig{
		Device:         a.Config.Device(),
		DefaultBackend: a.Config.Backend,
		Timeout:        a.Config.Timeout,
		Bias:           a.Config.Bias,
		MaxIterations:  a.Config.MaxIterations,
		Palette:        a.Config.Palette,
		Logger:         a.logger,
	})
	repl.SetOutput(out)
	repl.Start()
	return apperrors.ExitSuccess
}

// newEngines starts one engine per backend. All engines report into c.
func (a *Application) newEngines(backends []string, c *metrics.Collectors, logger zerolog.Logger) (map[string]*render.Engine, error) {
	engines := make(map[string]*render.Engine, len(backends))
	for _, b := range backends {
		e, err := render.NewEngine(render.Config{
			Workers:          a.Config.Workers,
			QueueCapacity:    a.Config.QueueCapacity,
			AdmissionTimeout: a.Config.AdmissionTimeout,
			Backend:          b,
			MinPrecision:     a.Config.MinPrecision,
			Kernel: fractal.Options{
				MaxIterations: a.Config.MaxIterations,
				Bias:          a.Config.Bias,
				Shade:         a.Config.Shade,
			},
			Logger:  logger,
			Metrics: c,
		})
		if err != nil {
			closeEngines(engines)
			return nil, err
		}
		engines[b] = e
	}
	return engines, nil
}

func closeEngines(engines map[string]*render.Engine) {
	for _, e := range engines {
		_ = e.Close()
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
