package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/ui"
)

// Style variables for the explorer.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle          lipgloss.Style
	headerStyle         lipgloss.Style
	titleStyle          lipgloss.Style
	versionStyle        lipgloss.Style
	elapsedStyle        lipgloss.Style
	metricLabelStyle    lipgloss.Style
	metricValueStyle    lipgloss.Style
	placeholderStyle    lipgloss.Style
	footerKeyStyle      lipgloss.Style
	footerDescStyle     lipgloss.Style
	statusRunningStyle  lipgloss.Style
	statusWarnStyle     lipgloss.Style
	statusDoneStyle     lipgloss.Style
	statusErrorStyle    lipgloss.Style
	cpuSparklineStyle   lipgloss.Style
	memSparklineStyle   lipgloss.Style
	queueSparklineStyle lipgloss.Style
	rowsSparklineStyle  lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Background(t.Bg).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	versionStyle = lipgloss.NewStyle().Foreground(t.Dim)
	elapsedStyle = lipgloss.NewStyle().Foreground(t.Accent)

	metricLabelStyle = lipgloss.NewStyle().Foreground(t.Dim)
	metricValueStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	placeholderStyle = lipgloss.NewStyle().Foreground(t.Dim).Italic(true)

	footerKeyStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	footerDescStyle = lipgloss.NewStyle().Foreground(t.Dim)

	statusRunningStyle = lipgloss.NewStyle().Foreground(t.Success).Bold(true)
	statusWarnStyle = lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
	statusDoneStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	statusErrorStyle = lipgloss.NewStyle().Foreground(t.Error).Bold(true)

	cpuSparklineStyle = lipgloss.NewStyle().Foreground(t.Accent)
	memSparklineStyle = lipgloss.NewStyle().Foreground(t.Warning)
	queueSparklineStyle = lipgloss.NewStyle().Foreground(t.Info)
	rowsSparklineStyle = lipgloss.NewStyle().Foreground(t.Success)
}
