package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fractalcalc/internal/cli"
	"github.com/agbru/fractalcalc/internal/display"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/memory"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/server"
)

// runRender orchestrates a one-shot render: every selected backend renders
// the resolved view, the results are compared and the reference field is
// written to the output image.
func (a *Application) runRender(ctx context.Context, out io.Writer) int {
	colors := cli.CLIColorProvider{}

	// Setup lifecycle (timeout + signals)
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	backends := orchestration.GetBackendsToRun(a.Config.Backend, a.Backends)
	if len(backends) == 0 {
		return apperrors.HandleRenderError(apperrors.NewConfigError("no backend matches %q", a.Config.Backend), 0, a.ErrWriter, colors)
	}

	// Fail on a bad palette or output format before spending time rendering.
	palette, err := display.NewPalette(a.Config.Palette, a.Config.Bias, a.Config.MaxIterations)
	if err != nil {
		return apperrors.HandleRenderError(apperrors.NewConfigError("%v", err), 0, a.ErrWriter, colors)
	}
	imageOut := out
	if a.Config.Quiet {
		imageOut = nil
	}
	writer, err := display.NewImageWriter(a.Config.OutputFile, palette, imageOut, a.logger)
	if err != nil {
		return apperrors.HandleRenderError(apperrors.NewConfigError("%v", err), 0, a.ErrWriter, colors)
	}

	collectors := metrics.NewCollectors()
	engines, err := a.newEngines(backends, collectors, a.logger.Zerolog())
	if err != nil {
		return apperrors.HandleRenderError(err, 0, a.ErrWriter, colors)
	}
	defer closeEngines(engines)

	stopServer := a.startMetricsServer(ctx, collectors)
	defer stopServer()

	// Skip verbose output in quiet mode
	if !a.Config.Quiet {
		cli.PrintRenderConfig(a.Config, out)
		cli.PrintExecutionMode(backends, out)
	}

	// Choose progress reporter based on quiet mode
	var progressReporter orchestration.ProgressReporter
	progressOut := out
	if a.Config.Quiet {
		progressOut = io.Discard
		progressReporter = orchestration.NullProgressReporter{}
	} else {
		progressReporter = cli.CLIProgressReporter{}
	}

	d := a.Config.Device()
	v := orchestration.ResolveView(d, a.Config.Zooms, progressOut)

	jobs := make([]orchestration.RenderJob, 0, len(backends))
	for _, name := range backends {
		jobs = append(jobs, orchestration.RenderJob{Name: name, Renderer: engines[name]})
	}

	gc := memory.NewGCController(a.Config.GCMode, d.Pixels()*len(jobs))
	gc.SetLogger(a.logger.Zerolog())
	mem := metrics.NewMemoryCollector()
	before := mem.Snapshot()

	gc.Begin()
	results := orchestration.ExecuteRenders(ctx, jobs, v, d, progressReporter, progressOut)
	gc.End()

	delta := gc.Stats()
	if !gc.Active() {
		delta = mem.Snapshot().Since(before)
	}

	presOpts := orchestration.PresentationOptions{
		View:    v,
		Device:  d,
		Bias:    a.Config.Bias,
		Verbose: a.Config.Verbose,
		Details: a.Config.Details,
	}
	presenter := cli.CLIResultPresenter{}
	analysisOut := out
	if a.Config.Quiet {
		analysisOut = io.Discard
	}
	exitCode := orchestration.AnalyzeRenderResults(results, presOpts, presenter, presenter, analysisOut)
	if exitCode != apperrors.ExitSuccess {
		if a.Config.Quiet {
			// Failures are reported even in quiet mode.
			presenter.HandleError(results[0].Err, 0, a.ErrWriter)
		}
		writer.PresentError(results[0].Err)
		return exitCode
	}

	reference, _ := orchestration.FirstSuccessful(results)
	if err := writer.Present(reference.Field); err != nil {
		fmt.Fprintf(a.ErrWriter, "%sError saving image: %v%s\n", colors.Red(), err, colors.Reset())
		return apperrors.ExitErrorGeneric
	}

	if a.Config.Quiet {
		cli.DisplayQuietResult(out, a.Config.OutputFile)
		return apperrors.ExitSuccess
	}
	if a.Config.Details {
		cli.DisplayMemoryStats(delta, out)
	}
	return apperrors.ExitSuccess
}

// startMetricsServer serves c on the configured address until the returned
// stop function is called. Without an address it does nothing.
func (a *Application) startMetricsServer(ctx context.Context, c *metrics.Collectors) (stop func()) {
	if a.Config.MetricsAddr == "" {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	srv := server.New(a.Config.MetricsAddr, c, a.logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	return func() {
		cancel()
		if err := g.Wait(); err != nil {
			a.logger.Error("metrics server failed", err, logging.String("addr", a.Config.MetricsAddr))
		}
	}
}
