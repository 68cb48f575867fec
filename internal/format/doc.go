// Package format holds the text helpers shared by the CLI and the TUI:
// durations, ETAs, progress bars, and human-readable numbers.
package format
