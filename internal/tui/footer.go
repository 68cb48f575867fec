package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/format"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

// FooterModel renders the render state, the last status message and the
// key hints.
type FooterModel struct {
	keymap    KeyMap
	rendering bool
	progress  float64
	eta       time.Duration
	paused    bool
	status    string
	kind      statusKind
	width     int
}

// NewFooterModel creates a new footer.
func NewFooterModel(km KeyMap) FooterModel {
	return FooterModel{keymap: km}
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) { f.width = w }

// SetRendering switches between the progress and ready indicators.
func (f *FooterModel) SetRendering(r bool) {
	f.rendering = r
	if r {
		f.progress, f.eta = 0, 0
	}
}

// SetProgress updates the progress indicator.
func (f *FooterModel) SetProgress(p float64, eta time.Duration) {
	f.progress, f.eta = p, eta
}

// SetPaused updates the paused indicator.
func (f *FooterModel) SetPaused(p bool) { f.paused = p }

// SetStatus shows a message until the next one.
func (f *FooterModel) SetStatus(msg string, kind statusKind) {
	f.status, f.kind = msg, kind
}

// Status returns the current message.
func (f FooterModel) Status() string { return f.status }

// View renders the footer.
func (f FooterModel) View() string {
	var state string
	switch {
	case f.rendering:
		state = statusRunningStyle.Render("● " + format.FormatProgressBarWithETA(f.progress, f.eta, 10))
	case f.paused:
		state = statusWarnStyle.Render("● PAUSED")
	default:
		state = statusDoneStyle.Render("● READY")
	}

	if f.status != "" {
		style := versionStyle
		switch f.kind {
		case statusWarn:
			style = statusWarnStyle
		case statusError:
			style = statusErrorStyle
		}
		state += "  " + style.Render(f.status)
	}

	hints := make([]string, 0, 9)
	for _, b := range f.keymap.footerBindings() {
		h := b.Help()
		hints = append(hints, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	line := state + "  " + strings.Join(hints, footerDescStyle.Render(" · "))
	return lipgloss.NewStyle().MaxWidth(max(f.width, 1)).Render(line)
}
