package ui

// Color accessors return the escape code of the active theme. They are used
// inline in format strings, e.g.
//
//	fmt.Fprintf(out, "%sdone%s\n", ui.ColorGreen(), ui.ColorReset())

// ColorRed returns the error color.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen returns the success color.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue returns the primary accent color.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta returns the info color.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan returns the primary accent color.
func ColorCyan() string { return GetCurrentTheme().Primary }

// ColorBold returns the bold escape code.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ColorReset clears all formatting.
func ColorReset() string { return GetCurrentTheme().Reset }
