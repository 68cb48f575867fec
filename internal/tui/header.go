package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/format"
)

// HeaderModel renders the top bar: title, version, current view and the
// duration of the last render.
type HeaderModel struct {
	version   string
	location  string
	lastPass  time.Duration
	startTime time.Time
	rendering bool
	width     int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{version: version}
}

// StartPass starts the live timer.
func (h *HeaderModel) StartPass() {
	h.startTime = time.Now()
	h.rendering = true
}

// EndPass freezes the timer.
func (h *HeaderModel) EndPass() {
	if h.rendering {
		h.lastPass = time.Since(h.startTime)
	}
	h.rendering = false
}

// SetLocation sets the view description shown in the header.
func (h *HeaderModel) SetLocation(s string) { h.location = s }

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "Fractal Explorer"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := versionStyle.Render(" | ")

	elapsed := h.lastPass
	if h.rendering {
		elapsed = time.Since(h.startTime)
	}
	left := titleStyle.Render(titleText) + pipe +
		elapsedStyle.Render(fmt.Sprintf("Render: %s", format.FormatRenderDuration(elapsed)))
	if h.location != "" {
		left += pipe + versionStyle.Render(h.location)
	}

	innerWidth := max(h.width-2, 0)
	gap := max(innerWidth-lipgloss.Width(left), 0)
	return headerStyle.Width(h.width).MaxHeight(1).Render(left + strings.Repeat(" ", gap))
}
