package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sys/cpu"
)

// DefaultProfileFileName is the file created in the user's home directory.
const DefaultProfileFileName = ".fractal_calibration.json"

// CurrentProfileVersion is bumped whenever the measured quantities change
// meaning; older profiles are then ignored.
const CurrentProfileVersion = 1

// CalibrationProfile records the outcome of a calibration run together
// with the hardware it was measured on.
type CalibrationProfile struct {
	ProfileVersion int       `json:"profile_version"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"`
	// CPUFeatures lists the SIMD extensions the float kernels may use.
	CPUFeatures []string `json:"cpu_features,omitempty"`

	OptimalWorkers int `json:"optimal_workers"`

	CalibrationBackend string `json:"calibration_backend,omitempty"`
	CalibrationDevice  string `json:"calibration_device,omitempty"`
	CalibrationTime    string `json:"calibration_time,omitempty"`
}

// NewProfile returns an empty profile stamped with the current hardware.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		ProfileVersion: CurrentProfileVersion,
		CalibratedAt:   time.Now(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		CPUFeatures:    cpuFeatures(),
	}
}

func cpuFeatures() []string {
	var fs []string
	add := func(name string, ok bool) {
		if ok {
			fs = append(fs, name)
		}
	}
	add("sse4.1", cpu.X86.HasSSE41)
	add("avx2", cpu.X86.HasAVX2)
	add("fma", cpu.X86.HasFMA)
	add("avx512f", cpu.X86.HasAVX512F)
	add("asimd", cpu.ARM64.HasASIMD)
	add("sve", cpu.ARM64.HasSVE)
	return fs
}

// IsValid reports whether the profile was measured on hardware matching
// the current process.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	current := NewProfile()
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == current.NumCPU &&
		p.GOARCH == current.GOARCH &&
		p.WordSize == current.WordSize &&
		slices.Equal(p.CPUFeatures, current.CPUFeatures)
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	return fmt.Sprintf("CalibrationProfile{version=%d, cpu=%d, arch=%s/%s, go=%s, workers=%d, backend=%s, device=%s, calibrated=%s}",
		p.ProfileVersion, p.NumCPU, p.GOOS, p.GOARCH, p.GoVersion,
		p.OptimalWorkers, p.CalibrationBackend, p.CalibrationDevice,
		p.CalibratedAt.Format(time.RFC3339))
}

// SaveProfile writes the profile as indented JSON, creating parent
// directories as needed.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

func loadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p CalibrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", path, err)
	}
	return &p, nil
}

// LoadOrCreateProfile loads the profile at path. When the file is missing,
// unreadable, or was measured on other hardware, a fresh profile is
// returned with loaded set to false.
func LoadOrCreateProfile(path string) (profile *CalibrationProfile, loaded bool) {
	p, err := loadProfile(path)
	if err != nil || !p.IsValid() {
		return NewProfile(), false
	}
	return p, true
}

// GetDefaultProfilePath returns ~/.fractal_calibration.json, or the file
// name alone when the home directory is unknown.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}
