package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/numeric"
)

// newTestApp builds an application that never touches the user's
// calibration profile and renders a tiny float64 image into a temp dir.
func newTestApp(t *testing.T, args ...string) (*Application, string) {
	t.Helper()
	dir := t.TempDir()
	output := filepath.Join(dir, "out.png")
	base := []string{
		"fractal",
		"-width", "24", "-height", "16",
		"-max-iterations", "32",
		"-backend", numeric.Float64Backend,
		"-o", output,
		"-calibration-profile", filepath.Join(dir, "profile.json"),
		"-no-color",
	}
	var errBuf bytes.Buffer
	a, err := New(append(base, args...), &errBuf)
	if err != nil {
		t.Fatalf("New: %v (stderr: %s)", err, errBuf.String())
	}
	return a, output
}

func TestNew_AppliesAdaptiveDefaults(t *testing.T) {
	a, _ := newTestApp(t)
	if a.Config.Workers != config.EstimateOptimalWorkers() {
		t.Errorf("Workers = %d, want %d", a.Config.Workers, config.EstimateOptimalWorkers())
	}
	if a.Config.QueueCapacity != config.DefaultQueueCapacity {
		t.Errorf("QueueCapacity = %d, want %d", a.Config.QueueCapacity, config.DefaultQueueCapacity)
	}
	if len(a.Backends) == 0 {
		t.Error("expected the registered backends")
	}
}

func TestNew_ExplicitWorkersKept(t *testing.T) {
	a, _ := newTestApp(t, "-workers", "3")
	if a.Config.Workers != 3 {
		t.Errorf("Workers = %d, want 3", a.Config.Workers)
	}
}

func TestNew_Errors(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := New([]string{"fractal", "-h"}, &errBuf)
	if !IsHelpError(err) {
		t.Errorf("expected help error, got %v", err)
	}

	_, err = New([]string{"fractal", "-backend", "abacus"}, &errBuf)
	if err == nil || IsHelpError(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestNew_WithBackends(t *testing.T) {
	var errBuf bytes.Buffer
	a, err := New([]string{"fractal", "-backend", numeric.Float64Backend}, &errBuf, WithBackends(numeric.Float64Backend))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(a.Backends) != 1 || a.Backends[0] != numeric.Float64Backend {
		t.Errorf("Backends = %v", a.Backends)
	}

	_, err = New([]string{"fractal", "-backend", numeric.BigFloatBackend}, &errBuf, WithBackends(numeric.Float64Backend))
	if err == nil {
		t.Error("a backend outside the allowed set must be rejected")
	}
}

func TestRun_Render(t *testing.T) {
	a, output := newTestApp(t, "-details")
	var out bytes.Buffer

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected the image on disk: %v", err)
	}
	for _, want := range []string{"Render Configuration", "Image saved to", "Memory Stats"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_RenderQuiet(t *testing.T) {
	a, output := newTestApp(t, "-quiet")
	var out bytes.Buffer

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if got := strings.TrimSpace(out.String()); got != output {
		t.Errorf("quiet output = %q, want only %q", got, output)
	}
}

func TestRun_CompareAllBackends(t *testing.T) {
	a, output := newTestApp(t, "-backend", config.AllBackends, "-max-iterations", "16")
	var out bytes.Buffer

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "Parallel comparison") {
		t.Errorf("expected a comparison run:\n%s", out.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected the image on disk: %v", err)
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown palette", []string{"-palette", "sepia"}},
		{"unknown image format", []string{"-o", filepath.Join(t.TempDir(), "out.xyz")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, output := newTestApp(t, tt.args...)
			var errBuf bytes.Buffer
			a.ErrWriter = &errBuf

			if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
				t.Errorf("exit code %d, want %d (stderr: %s)", code, apperrors.ExitErrorConfig, errBuf.String())
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Error("no image should be written")
			}
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	a, output := newTestApp(t, "-width", "400", "-height", "300", "-timeout", "1ns", "-quiet")
	var errBuf bytes.Buffer
	a.ErrWriter = &errBuf

	code := a.Run(context.Background(), &bytes.Buffer{})
	if code != apperrors.ExitErrorTimeout {
		t.Errorf("exit code %d, want %d (stderr: %s)", code, apperrors.ExitErrorTimeout, errBuf.String())
	}
	if !strings.Contains(errBuf.String(), "timed out") {
		t.Errorf("quiet mode must still report the failure, stderr: %s", errBuf.String())
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("no image should be written")
	}
}

func TestRun_MetricsServer(t *testing.T) {
	a, _ := newTestApp(t, "-metrics-addr", "127.0.0.1:0", "-quiet")
	if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitSuccess {
		t.Errorf("exit code %d", code)
	}
}

func TestRun_Completion(t *testing.T) {
	a, _ := newTestApp(t, "-completion", "bash")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), numeric.Float64Backend) {
		t.Errorf("completion should list backends:\n%s", out.String())
	}

	a, _ = newTestApp(t, "-completion", "tcsh")
	a.ErrWriter = &bytes.Buffer{}
	if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
		t.Errorf("exit code %d, want %d", code, apperrors.ExitErrorConfig)
	}
}

func TestRun_Calibrate(t *testing.T) {
	a, _ := newTestApp(t, "-calibrate", "-max-iterations", "16")
	var out bytes.Buffer

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if _, err := os.Stat(a.Config.CalibrationProfile); err != nil {
		t.Errorf("expected a saved profile: %v", err)
	}

	// The saved profile now feeds the worker count of the next run.
	var errBuf bytes.Buffer
	next, err := New([]string{"fractal", "-backend", numeric.Float64Backend, "-calibration-profile", a.Config.CalibrationProfile}, &errBuf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if next.Config.Workers <= 0 {
		t.Errorf("Workers = %d, want the calibrated count", next.Config.Workers)
	}
}

func TestRun_AutoCalibrate(t *testing.T) {
	a, output := newTestApp(t, "-auto-calibrate", "-max-iterations", "16")
	var out bytes.Buffer

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "Auto-calibration") {
		t.Errorf("expected the auto-calibration summary:\n%s", out.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected the image on disk: %v", err)
	}
}

func TestRun_Interactive(t *testing.T) {
	a, _ := newTestApp(t, "-interactive")
	var out bytes.Buffer
	// No stdin in tests: the REPL sees EOF and exits.
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Skip("no null device")
	}
	defer devNull.Close()
	oldStdin := os.Stdin
	os.Stdin = devNull
	defer func() { os.Stdin = oldStdin }()

	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "Goodbye") {
		t.Errorf("expected the REPL to exit on EOF:\n%s", out.String())
	}
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"--version"}, {"-width", "3", "-V"}, {"-version"}} {
		if !HasVersionFlag(args) {
			t.Errorf("HasVersionFlag(%v) = false", args)
		}
	}
	if HasVersionFlag([]string{"-v"}) {
		t.Error("-v is verbose, not version")
	}

	var out bytes.Buffer
	PrintVersion(&out)
	if !strings.HasPrefix(out.String(), "fractal "+Version) {
		t.Errorf("unexpected version output %q", out.String())
	}
}
