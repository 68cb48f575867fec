package calibration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/view"
)

func tinyOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Backend:       numeric.Float64Backend,
		Device:        view.Device{Width: 8, Height: 6},
		MaxIterations: 16,
		MinPrecision:  64,
		ProfilePath:   filepath.Join(t.TempDir(), "profile.json"),
		Logger:        zerolog.Nop(),
	}
}

func TestBestResult(t *testing.T) {
	t.Parallel()
	results := []calibrationResult{
		{Workers: 1, Duration: 40 * time.Millisecond},
		{Workers: 2, Duration: 10 * time.Millisecond},
		{Workers: 4, Duration: 5 * time.Millisecond, Err: errors.New("boom")},
		{Workers: 8, Duration: 10 * time.Millisecond},
	}
	best, ok := bestResult(results)
	if !ok {
		t.Fatal("expected a best result")
	}
	if best.Workers != 2 {
		t.Errorf("best.Workers = %d, want 2 (failures skipped, ties to smaller pool)", best.Workers)
	}

	if _, ok := bestResult([]calibrationResult{{Workers: 1, Err: errors.New("x")}}); ok {
		t.Error("expected no best result when every measurement failed")
	}
}

func TestRunCalibration_SavesProfile(t *testing.T) {
	t.Parallel()
	opts := tinyOptions(t)
	var out bytes.Buffer

	code := RunCalibration(context.Background(), &out, opts, orchestration.NullProgressReporter{}, nil)
	if code != apperrors.ExitSuccess {
		t.Fatalf("RunCalibration exit code = %d, output:\n%s", code, out.String())
	}

	output := out.String()
	for _, want := range []string{"Calibration Summary", "(Optimal)", "Optimal worker count", "Profile saved to"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	profile, err := loadProfile(opts.ProfilePath)
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if !slices.Contains(GenerateWorkerCounts(), profile.OptimalWorkers) {
		t.Errorf("OptimalWorkers %d not among measured counts %v", profile.OptimalWorkers, GenerateWorkerCounts())
	}
	if profile.CalibrationDevice != "8x6" || profile.CalibrationBackend != numeric.Float64Backend {
		t.Errorf("unexpected calibration metadata: %s", profile)
	}
}

func TestRunCalibration_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	code := RunCalibration(ctx, &out, tinyOptions(t), orchestration.NullProgressReporter{}, nil)
	if code != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
}

func TestRunCalibration_UnknownBackend(t *testing.T) {
	t.Parallel()
	opts := tinyOptions(t)
	opts.Backend = "abacus"
	var out bytes.Buffer

	code := RunCalibration(context.Background(), &out, opts, orchestration.NullProgressReporter{}, nil)
	if code != apperrors.ExitErrorGeneric {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorGeneric)
	}
	if !strings.Contains(out.String(), "Calibration failed") {
		t.Errorf("expected failure message, got:\n%s", out.String())
	}
	if _, err := os.Stat(opts.ProfilePath); !os.IsNotExist(err) {
		t.Error("no profile should be written when calibration fails")
	}
}

func TestAutoCalibrate(t *testing.T) {
	t.Parallel()
	opts := tinyOptions(t)
	cfg := config.AppConfig{Workers: 3}
	var out bytes.Buffer

	updated, ok := AutoCalibrate(context.Background(), cfg, &out, opts)
	if !ok {
		t.Fatal("AutoCalibrate should succeed")
	}
	if !slices.Contains(GenerateQuickWorkerCounts(), updated.Workers) {
		t.Errorf("Workers = %d, not among quick counts %v", updated.Workers, GenerateQuickWorkerCounts())
	}
	if !strings.Contains(out.String(), "Auto-calibration") {
		t.Errorf("expected auto-calibration summary, got %q", out.String())
	}
	if _, err := os.Stat(opts.ProfilePath); err != nil {
		t.Errorf("profile should be saved: %v", err)
	}
}

func TestAutoCalibrate_LogsSaveFailure(t *testing.T) {
	t.Parallel()
	opts := tinyOptions(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	opts.ProfilePath = filepath.Join(blocker, "profile.json")
	var logs bytes.Buffer
	opts.Logger = zerolog.New(&logs)

	if _, ok := AutoCalibrate(context.Background(), config.AppConfig{}, io.Discard, opts); !ok {
		t.Fatal("a profile that cannot be saved should not fail auto-calibration")
	}
	for _, want := range []string{"could not save calibration profile", `"level":"warn"`, "not-a-dir"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log should contain %q, got %s", want, logs.String())
		}
	}
}

func TestLoadCachedCalibration(t *testing.T) {
	t.Parallel()

	t.Run("missing profile", func(t *testing.T) {
		t.Parallel()
		cfg := config.AppConfig{}
		got, ok := LoadCachedCalibration(cfg, filepath.Join(t.TempDir(), "none.json"))
		if ok {
			t.Error("expected no cached calibration")
		}
		if got.Workers != 0 {
			t.Errorf("config should be untouched, got Workers=%d", got.Workers)
		}
	})

	t.Run("fresh profile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "p.json")
		p := NewProfile()
		p.OptimalWorkers = 7
		if err := p.SaveProfile(path); err != nil {
			t.Fatal(err)
		}
		got, ok := LoadCachedCalibration(config.AppConfig{}, path)
		if !ok {
			t.Fatal("expected cached calibration")
		}
		if got.Workers != 7 {
			t.Errorf("Workers = %d, want 7", got.Workers)
		}
		if got.QueueCapacity != config.DefaultQueueCapacity {
			t.Errorf("QueueCapacity = %d, want default", got.QueueCapacity)
		}
	})

	t.Run("explicit workers win", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "p.json")
		p := NewProfile()
		p.OptimalWorkers = 7
		if err := p.SaveProfile(path); err != nil {
			t.Fatal(err)
		}
		got, _ := LoadCachedCalibration(config.AppConfig{Workers: 2}, path)
		if got.Workers != 2 {
			t.Errorf("Workers = %d, want 2", got.Workers)
		}
	})

	t.Run("stale profile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "p.json")
		p := NewProfile()
		p.OptimalWorkers = 7
		p.CalibratedAt = time.Now().Add(-2 * MaxProfileAge)
		if err := p.SaveProfile(path); err != nil {
			t.Fatal(err)
		}
		if _, ok := LoadCachedCalibration(config.AppConfig{}, path); ok {
			t.Error("stale profile should be ignored")
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()
	opts := OptionsFromConfig(config.AppConfig{Backend: config.AllBackends, MaxIterations: 50, MinPrecision: 80})
	if opts.Backend != numeric.Float64Backend {
		t.Errorf("Backend = %q, want float64 for comparison mode", opts.Backend)
	}
	if opts.Device != ReferenceDevice {
		t.Errorf("Device = %v, want %v", opts.Device, ReferenceDevice)
	}
	if filepath.Base(opts.ProfilePath) != DefaultProfileFileName {
		t.Errorf("ProfilePath = %q, want default file", opts.ProfilePath)
	}

	opts = OptionsFromConfig(config.AppConfig{Backend: "fixed", CalibrationProfile: "/tmp/x.json"})
	if opts.Backend != "fixed" || opts.ProfilePath != "/tmp/x.json" {
		t.Errorf("unexpected options: %+v", opts)
	}
}
