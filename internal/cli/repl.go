// Package cli provides the command-line presentation of the renderer: the
// progress spinner, result summaries, shell completion, and an interactive
// line-oriented explorer.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/display"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/ui"
	"github.com/agbru/fractalcalc/internal/view"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// Device is the render size.
	Device view.Device
	// DefaultBackend is the backend used until changed.
	DefaultBackend string
	// Timeout is the maximum duration for each render.
	Timeout time.Duration
	// Bias and MaxIterations drive the palette when saving.
	Bias          uint32
	MaxIterations int
	// Palette names the palette used by save.
	Palette string
	// Logger receives image-writer logs. Nil discards them.
	Logger logging.Logger
}

// REPL is an interactive explorer: each command renders, zooms or saves the
// current view.
type REPL struct {
	config    REPLConfig
	renderers map[string]orchestration.Renderer
	backend   string
	current   view.Rectangle
	history   []view.Rectangle
	last      *render.Field
	in        io.Reader
	out       io.Writer
}

// NewREPL creates a new REPL instance starting at the full view.
//
// Parameters:
//   - renderers: One renderer per available backend.
//   - config: REPL configuration.
//
// Returns:
//   - *REPL: A new REPL instance.
func NewREPL(renderers map[string]orchestration.Renderer, config REPLConfig) *REPL {
	backend := config.DefaultBackend
	if _, ok := renderers[backend]; !ok {
		if names := sortedKeys(renderers); len(names) > 0 {
			backend = names[0]
		}
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}

	return &REPL{
		config:    config,
		renderers: renderers,
		backend:   backend,
		current:   view.Full(config.Device),
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// View returns the current view.
func (r *REPL) View() view.Rectangle { return r.current }

// Start begins the interactive REPL session.
// It continuously reads user input and processes commands until
// the user exits or EOF is reached.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)

	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"fractal> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		eof := errors.Is(err, io.EOF)

		if input = strings.TrimSpace(input); input != "" {
			if !r.processCommand(input) {
				return // Exit command received
			}
		}
		if eof {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %sMandelbrot Explorer - Interactive Mode%s                %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %srender%s                - Render the current view\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %szoom x1 y1 x2 y2%s      - Zoom into a pixel selection and render\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sback%s                  - Return to the previous view\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sreset%s                 - Return to the full view\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sbackend <name>%s        - Change backend (%s)\n", ui.ColorYellow(), ui.ColorReset(), strings.Join(sortedKeys(r.renderers), ", "))
	fmt.Fprintf(r.out, "  %scompare%s               - Render the current view with every backend\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %ssave <file>%s           - Save the last render (.png, .bmp, .tiff)\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sstatus%s                - Display the current view and backend\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %shelp%s                  - Display this help\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s           - Exit interactive mode\n", ui.ColorYellow(), ui.ColorReset(), ui.ColorYellow(), ui.ColorReset())
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "render", "r":
		r.render()
	case "zoom", "z":
		r.cmdZoom(args)
	case "back", "b":
		r.cmdBack()
	case "reset":
		r.cmdReset()
	case "backend", "be":
		r.cmdBackend(args)
	case "compare", "cmp":
		r.cmdCompare()
	case "save", "s":
		r.cmdSave(args)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}

	return true
}

// parseZoomArgs accepts "x1 y1 x2 y2" or "x1,y1,x2,y2".
func parseZoomArgs(args []string) (view.Selection, error) {
	return config.ParseSelection(strings.Join(strings.FieldsFunc(strings.Join(args, " "), func(c rune) bool {
		return c == ' ' || c == ','
	}), ","))
}

func (r *REPL) cmdZoom(args []string) {
	sel, err := parseZoomArgs(args)
	if err != nil {
		fmt.Fprintf(r.out, "%sUsage: zoom x1 y1 x2 y2%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	next, ok := view.Zoom(r.current, r.config.Device, sel)
	if !ok {
		fmt.Fprintln(r.out, "Section too small, ignoring zoom")
		return
	}
	r.history = append(r.history, r.current)
	r.current = next
	r.render()
}

func (r *REPL) cmdBack() {
	if len(r.history) == 0 {
		fmt.Fprintf(r.out, "%sAlready at the first view.%s\n", ui.ColorYellow(), ui.ColorReset())
		return
	}
	r.current = r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	r.render()
}

func (r *REPL) cmdReset() {
	r.history = r.history[:0]
	r.current = view.Full(r.config.Device)
	r.render()
}

// render renders the current view with the current backend.
func (r *REPL) render() {
	renderer, ok := r.renderers[r.backend]
	if !ok {
		fmt.Fprintf(r.out, "%sBackend not found: %s%s\n", ui.ColorRed(), r.backend, ui.ColorReset())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Rendering %s%s%s with %s%s%s...\n",
		ui.ColorMagenta(), r.current, ui.ColorReset(),
		ui.ColorCyan(), r.backend, ui.ColorReset())

	results := orchestration.ExecuteRenders(ctx, []orchestration.RenderJob{{Name: r.backend, Renderer: renderer}},
		r.current, r.config.Device, CLIProgressReporter{}, r.out)
	res := results[0]
	if res.Err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), res.Err, ui.ColorReset())
		return
	}
	r.last = res.Field
	DisplayResult(res, r.presentation(), r.out)
	fmt.Fprintln(r.out)
}

func (r *REPL) presentation() orchestration.PresentationOptions {
	return orchestration.PresentationOptions{View: r.current, Device: r.config.Device, Bias: r.config.Bias}
}

func (r *REPL) cmdBackend(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: backend <name>%s\n", ui.ColorRed(), ui.ColorReset())
		fmt.Fprintf(r.out, "Available backends: %s\n", strings.Join(sortedKeys(r.renderers), ", "))
		return
	}

	name := strings.ToLower(args[0])
	if _, ok := r.renderers[name]; !ok {
		fmt.Fprintf(r.out, "%sUnknown backend: %s%s\n", ui.ColorRed(), name, ui.ColorReset())
		fmt.Fprintf(r.out, "Available backends: %s\n", strings.Join(sortedKeys(r.renderers), ", "))
		return
	}

	r.backend = name
	fmt.Fprintf(r.out, "Backend changed to: %s%s%s\n", ui.ColorGreen(), name, ui.ColorReset())
}

func (r *REPL) cmdCompare() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	names := sortedKeys(r.renderers)
	jobs := make([]orchestration.RenderJob, len(names))
	for i, name := range names {
		jobs[i] = orchestration.RenderJob{Name: name, Renderer: r.renderers[name]}
	}
	results := orchestration.ExecuteRenders(ctx, jobs, r.current, r.config.Device, orchestration.NullProgressReporter{}, r.out)
	orchestration.AnalyzeRenderResults(results, r.presentation(), CLIResultPresenter{}, CLIResultPresenter{}, r.out)
	if best, ok := orchestration.FirstSuccessful(results); ok {
		r.last = best.Field
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdSave(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: save <file>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	if r.last == nil {
		fmt.Fprintf(r.out, "%sNothing rendered yet; use render first.%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	palette, err := display.NewPalette(r.config.Palette, r.config.Bias, r.config.MaxIterations)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	w, err := display.NewImageWriter(args[0], palette, r.out, r.config.Logger)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	if err := w.Present(r.last); err != nil {
		w.PresentError(err)
	}
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Backend:        %s%s%s\n", ui.ColorCyan(), r.backend, ui.ColorReset())
	fmt.Fprintf(r.out, "  Image size:     %s%s%s\n", ui.ColorCyan(), r.config.Device, ui.ColorReset())
	fmt.Fprintf(r.out, "  View:           %s%s%s\n", ui.ColorCyan(), r.current, ui.ColorReset())
	fmt.Fprintf(r.out, "  Magnification:  %s%.4gx%s\n", ui.ColorCyan(), r.current.Magnification(r.config.Device), ui.ColorReset())
	fmt.Fprintf(r.out, "  Zoom depth:     %s%d%s\n", ui.ColorCyan(), len(r.history), ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:        %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	fmt.Fprintln(r.out)
}

func sortedKeys(m map[string]orchestration.Renderer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

