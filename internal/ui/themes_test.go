package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// Theme state is global, so these tests do not run in parallel.

func TestSetTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	tests := []struct {
		name string
		want string
	}{
		{"classic", "classic"},
		{"fire", "fire"},
		{"gray", "gray"},
		{"argb", "argb"},
		{"none", "none"},
		{"sepia", "classic"},
		{"", "classic"},
	}
	for _, tt := range tests {
		SetTheme(tt.name)
		if got := GetCurrentTheme().Name; got != tt.want {
			t.Errorf("SetTheme(%q) -> %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNewTheme_PrimaryFollowsPalette(t *testing.T) {
	seen := map[string]string{}
	for _, name := range ThemeNames() {
		th := NewTheme(name)
		if !strings.HasPrefix(th.Primary, "\033[38;5;") {
			t.Errorf("%s: primary %q is not a 256-colour code", name, th.Primary)
		}
		if other, dup := seen[th.Primary]; dup {
			t.Errorf("%s and %s share the primary colour", name, other)
		}
		seen[th.Primary] = name
	}
	if NewTheme("fire").Primary != "\033[38;5;208m" {
		t.Errorf("fire primary = %q, want orange", NewTheme("fire").Primary)
	}
}

func TestNewTUITheme(t *testing.T) {
	fire := NewTUITheme("fire")
	if fire.Accent != lipgloss.Color("#FF8C00") || fire.Border != lipgloss.Color("#FF6600") {
		t.Errorf("fire chrome = %v/%v, want orange", fire.Accent, fire.Border)
	}
	if NewTUITheme("sepia") != NewTUITheme(DefaultThemeName) {
		t.Error("unknown palette should fall back to the classic chrome")
	}
	if NewTUITheme("gray").Accent == NewTUITheme("classic").Accent {
		t.Error("gray and classic should not share an accent")
	}
}

func TestGetCurrentTUITheme_FollowsActiveTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	SetTheme("gray")
	if GetCurrentTUITheme() != NewTUITheme("gray") {
		t.Error("explorer chrome should follow the active palette")
	}
	SetTheme(NoColorThemeName)
	if GetCurrentTUITheme() != NoColorTUITheme {
		t.Error("no-color theme should select the plain explorer palette")
	}
}

func TestInitTheme_NoColor(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	InitTheme(true, "fire")
	if ColorRed() != "" || ColorReset() != "" {
		t.Error("no-color theme should produce empty escape codes")
	}
}

func TestInitTheme_NOCOLOREnv(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	t.Setenv("NO_COLOR", "1")
	InitTheme(false, "fire")
	if GetCurrentTheme().Name != NoColorThemeName {
		t.Errorf("NO_COLOR should disable colors, got theme %q", GetCurrentTheme().Name)
	}
}

func TestInitTheme_Palette(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	if _, set := os.LookupEnv("NO_COLOR"); set {
		t.Skip("NO_COLOR is set in the environment")
	}
	InitTheme(false, "fire")
	if GetCurrentTheme().Name != "fire" {
		t.Errorf("theme = %q, want fire", GetCurrentTheme().Name)
	}
}

func TestColorAccessorsFollowTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	th := NewTheme("classic")
	SetCurrentTheme(th)
	if ColorRed() != th.Error || ColorGreen() != th.Success || ColorCyan() != th.Primary {
		t.Error("color accessors should read the active theme")
	}
}
