// Package ui provides theme and color support for the renderer's terminal
// output. The CLI uses the ANSI themes; the explorer uses the lipgloss ones.
package ui
