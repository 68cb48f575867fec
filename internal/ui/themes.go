package ui

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of ANSI escape codes used by the CLI output. A theme is
// named after the image palette it accompanies, so the terminal chrome of a
// render matches the colours of the image it produces.
type Theme struct {
	// Name is the palette the theme follows, or "none".
	Name string
	// Primary colours banners, headings and the spinner.
	Primary string
	// Secondary is used for labels and less prominent text.
	Secondary string
	// Success marks completed passes.
	Success string
	// Warning marks cancelled or partial runs.
	Warning string
	// Error marks failed passes.
	Error string
	// Info marks backend names and values in tables.
	Info string
	// Bold is the escape code for bold text.
	Bold string
	// Underline is the escape code for underlined text.
	Underline string
	// Reset clears all formatting.
	Reset string
}

// accent is the signature colour of one image palette, in the two forms the
// CLI and the explorer need.
type accent struct {
	ansi   int    // xterm-256 index
	hex    string // explorer chrome
	border string // explorer panel borders
}

// DefaultThemeName is the palette whose theme is used when none is named.
const DefaultThemeName = "classic"

// NoColorThemeName selects plain output.
const NoColorThemeName = "none"

// Accents keyed by palette name. Classic renders blue to gold, fire renders
// black through red to yellow, gray is monochrome, argb shows raw scores.
var accents = map[string]accent{
	"classic": {ansi: 39, hex: "#2A9DF4", border: "#1B5E91"},
	"fire":    {ansi: 208, hex: "#FF8C00", border: "#FF6600"},
	"gray":    {ansi: 250, hex: "#BBBBBB", border: "#6E6E6E"},
	"argb":    {ansi: 141, hex: "#A078FF", border: "#5E3FB0"},
}

// ThemeNames lists the palettes that have a theme, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(accents))
	for name := range accents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewTheme returns the ANSI theme of the named palette. Unknown names get
// the classic theme.
func NewTheme(palette string) Theme {
	a, ok := accents[palette]
	if !ok {
		palette, a = DefaultThemeName, accents[DefaultThemeName]
	}
	return Theme{
		Name:      palette,
		Primary:   fmt.Sprintf("\033[38;5;%dm", a.ansi),
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}
}

// NoColorTheme disables all escape codes. It is selected by -no-color or
// the NO_COLOR environment variable.
var NoColorTheme = Theme{Name: NoColorThemeName}

var (
	currentTheme = NewTheme(DefaultThemeName)
	themeMutex   sync.RWMutex
)

// TUITheme holds the lipgloss colours of the explorer.
type TUITheme struct {
	Bg      lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
}

// NewTUITheme returns the explorer colours for the named palette: its accent
// on the header, keys and sparklines, its border colour around the panels.
func NewTUITheme(palette string) TUITheme {
	a, ok := accents[palette]
	if !ok {
		a = accents[DefaultThemeName]
	}
	return TUITheme{
		Bg:      lipgloss.Color("#000000"),
		Text:    lipgloss.Color("#E0E0E0"),
		Border:  lipgloss.Color(a.border),
		Accent:  lipgloss.Color(a.hex),
		Success: lipgloss.Color("#9ece6a"),
		Warning: lipgloss.Color("#FFB347"),
		Error:   lipgloss.Color("#FF4444"),
		Dim:     lipgloss.Color("#666666"),
		Info:    lipgloss.Color("#4488FF"),
	}
}

// NoColorTUITheme renders the explorer in the terminal's default colours.
var NoColorTUITheme = TUITheme{
	Bg:      lipgloss.NoColor{},
	Text:    lipgloss.NoColor{},
	Border:  lipgloss.NoColor{},
	Accent:  lipgloss.NoColor{},
	Success: lipgloss.NoColor{},
	Warning: lipgloss.NoColor{},
	Error:   lipgloss.NoColor{},
	Dim:     lipgloss.NoColor{},
	Info:    lipgloss.NoColor{},
}

// GetCurrentTUITheme returns the explorer colours matching the active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	if currentTheme.Name == NoColorThemeName {
		return NoColorTUITheme
	}
	return NewTUITheme(currentTheme.Name)
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme of the named palette, or plain output for
// "none". Unknown names select the classic theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	if name == NoColorThemeName {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = NewTheme(name)
}

// InitTheme selects the theme for a run. Colours are disabled when noColor
// is set or NO_COLOR is present in the environment (https://no-color.org/);
// otherwise the theme follows the image palette.
func InitTheme(noColor bool, palette string) {
	if _, exists := os.LookupEnv("NO_COLOR"); exists || noColor {
		SetTheme(NoColorThemeName)
		return
	}
	SetTheme(palette)
}
