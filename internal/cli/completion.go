package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// All shell completion functions generate from this registry, so adding
// a new flag only requires appending to flagRegistry.
type FlagCompletion struct {
	Long      string   // long flag name without "--" (e.g., "help")
	Short     string   // short flag without "-" (e.g., "h")
	Help      string   // description text
	Values    []string // suggested completion values (nil = boolean/no suggestions)
	ValueName string   // label for the value in zsh (e.g., "number", "duration")
	IsFile    bool     // true if the flag takes a file path
	IsBackend bool     // true if values come from the backend registry
	BashGroup string   // flags with same non-empty BashGroup share a bash case entry
}

// flagRegistry is the central list of all CLI flags for completion generation.
var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "width", Help: "Image width in pixels", Values: []string{"320", "640", "800", "1024", "1920"}, ValueName: "pixels", BashGroup: "size"},
	{Long: "height", Help: "Image height in pixels", Values: []string{"200", "480", "600", "768", "1080"}, ValueName: "pixels", BashGroup: "size"},
	{Long: "max-iterations", Help: "Iteration cap", Values: []string{"256", "1000", "4096", "16384"}, ValueName: "count"},
	{Long: "backend", Help: "Numeric backend", IsBackend: true, ValueName: "backend"},
	{Long: "workers", Help: "Worker pool size", Values: []string{"1", "2", "4", "8", "16", "32"}, ValueName: "count", BashGroup: "pool"},
	{Long: "queue", Help: "Pending row queue capacity", Values: []string{"1", "2", "4", "8", "16", "32"}, ValueName: "count", BashGroup: "pool"},
	{Long: "admission-timeout", Help: "Longest wait for queue space", Values: []string{"0", "100ms", "1s", "10s"}, ValueName: "duration"},
	{Long: "min-precision", Help: "Precision floor in bits", Values: []string{"64", "128", "256", "512"}, ValueName: "bits"},
	{Long: "bias", Help: "Value added to escaped scores", ValueName: "value"},
	{Long: "palette", Help: "Output palette", Values: []string{"argb", "classic", "fire", "gray"}, ValueName: "palette"},
	{Long: "shade", Help: "Add a background gradient"},
	{Long: "zoom", Help: "Drag selection x1,y1,x2,y2", ValueName: "selection"},
	{Long: "timeout", Help: "Maximum execution time", Values: []string{"1m", "5m", "10m", "30m", "1h"}, ValueName: "duration"},
	{Long: "tui", Help: "Start the terminal explorer"},
	{Long: "interactive", Short: "i", Help: "Start the line explorer"},
	{Long: "metrics-addr", Help: "Prometheus listen address", Values: []string{":9090", "localhost:9090"}, ValueName: "address"},
	{Long: "gc-mode", Help: "Garbage collector control", Values: []string{"auto", "aggressive", "disabled"}, ValueName: "mode"},
	{Long: "calibrate", Help: "Run calibration mode"},
	{Long: "auto-calibrate", Help: "Use the cached calibration profile"},
	{Long: "calibration-profile", Help: "Calibration profile file", IsFile: true, ValueName: "file"},
	{Long: "output", Short: "o", Help: "Output image path", IsFile: true, ValueName: "file"},
	{Long: "quiet", Short: "q", Help: "Quiet mode for scripts"},
	{Long: "verbose", Short: "v", Help: "Enable debug logging"},
	{Long: "details", Short: "d", Help: "Show field and memory details"},
	{Long: "no-color", Help: "Disable coloured output"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish", "powershell"}, ValueName: "shell"},
}

// bashGroupValues defines the completion values used in bash for grouped flags.
// Flags sharing the same BashGroup use these values in the bash case statement.
var bashGroupValues = map[string][]string{
	"size": {"200", "320", "480", "600", "640", "800", "1024", "1080", "1920"},
	"pool": {"1", "2", "4", "8", "16", "32"},
}

// zshHelpOverrides provides shell-specific help text overrides for zsh.
var zshHelpOverrides = map[string]string{
	"zoom": "Drag selection in pixels (x1,y1,x2,y2)",
}

// GenerateCompletion generates a shell completion script for the specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish", "powershell").
//   - backends: List of available backend names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, backends []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, backends)
	case "zsh":
		return generateZshCompletion(out, backends)
	case "fish":
		return generateFishCompletion(out, backends)
	case "powershell", "ps":
		return generatePowerShellCompletion(out, backends)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

// formatBackendList joins backend names with space separators.
func formatBackendList(backends []string) string {
	return strings.Join(backends, " ")
}

// flagKey returns the identifier used for lookups: Long name if present, else Short.
func flagKey(f FlagCompletion) string {
	if f.Long != "" {
		return f.Long
	}
	return f.Short
}

// generateBashCompletion generates a Bash completion script.
func generateBashCompletion(out io.Writer, backends []string) error {
	// Build opts string from registry
	var opts []string
	for _, f := range flagRegistry {
		if f.Long != "" {
			opts = append(opts, "--"+f.Long)
		}
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
	}

	// Build case entries from registry.
	// Order: backend, completion, file, value flags, grouped flags.
	type caseEntry struct {
		patterns []string
		body     string
	}
	bashCaseEntry := func(f FlagCompletion) caseEntry {
		return caseEntry{
			patterns: []string{"--" + f.Long},
			body:     fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(f.Values, " ")),
		}
	}
	var orderedCases []caseEntry

	// 1. Backend flags
	for _, f := range flagRegistry {
		if f.IsBackend {
			orderedCases = append(orderedCases, caseEntry{
				patterns: []string{"--" + f.Long},
				body:     `COMPREPLY=( $(compgen -W "${backends}" -- "${cur}") )`,
			})
		}
	}

	// 2. Completion flag (static values, comes before file/timeout)
	for _, f := range flagRegistry {
		if f.Long == "completion" && len(f.Values) > 0 {
			orderedCases = append(orderedCases, bashCaseEntry(f))
		}
	}

	// 3. File completion flags
	var filePatterns []string
	for _, f := range flagRegistry {
		if f.IsFile {
			if f.Long != "" {
				filePatterns = append(filePatterns, "--"+f.Long)
			}
			if f.Short != "" {
				filePatterns = append(filePatterns, "-"+f.Short)
			}
		}
	}
	if len(filePatterns) > 0 {
		orderedCases = append(orderedCases, caseEntry{
			patterns: filePatterns,
			body: `# File/directory completion
            COMPREPLY=( $(compgen -f -- "${cur}") )`,
		})
	}

	// 4. Remaining flags with static values
	for _, f := range flagRegistry {
		if !f.IsBackend && !f.IsFile && f.BashGroup == "" && f.Long != "completion" && len(f.Values) > 0 {
			orderedCases = append(orderedCases, bashCaseEntry(f))
		}
	}

	// 5. Grouped flags
	seenGroups := map[string]bool{}
	for _, f := range flagRegistry {
		if f.BashGroup != "" && !seenGroups[f.BashGroup] {
			seenGroups[f.BashGroup] = true
			var patterns []string
			for _, gf := range flagRegistry {
				if gf.BashGroup == f.BashGroup {
					patterns = append(patterns, "--"+gf.Long)
				}
			}
			vals := bashGroupValues[f.BashGroup]
			orderedCases = append(orderedCases, caseEntry{
				patterns: patterns,
				body:     fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(vals, " ")),
			})
		}
	}

	// Format case entries
	var caseBody strings.Builder
	for _, c := range orderedCases {
		caseBody.WriteString("        ")
		caseBody.WriteString(strings.Join(c.patterns, "|"))
		caseBody.WriteString(")\n")
		caseBody.WriteString("            ")
		caseBody.WriteString(c.body)
		caseBody.WriteString("\n            return 0\n            ;;\n")
	}

	backendList := formatBackendList(backends)

	script := fmt.Sprintf(`# Bash completion script for fractal
# Add this to your ~/.bashrc or ~/.bash_completion

_fractal_completions() {
    local cur prev opts backends
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main options
    opts="%s"

    # Available backends
    backends="%s all"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _fractal_completions fractal
`, strings.Join(opts, " "), backendList, caseBody.String())

	_, err := fmt.Fprint(out, script)
	if err != nil {
		return fmt.Errorf("completion bash generation failed: %w", err)
	}
	return nil
}

// generateZshCompletion generates a Zsh completion script.
func generateZshCompletion(out io.Writer, backends []string) error {
	// Build _arguments entries from registry
	var args []string
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}

	backendList := formatBackendList(backends)

	script := fmt.Sprintf(`#compdef fractal

# Zsh completion script for fractal
# Add this to your ~/.zshrc or place in $fpath

_fractal() {
    local -a backends
    backends=(%s all)

    _arguments -s \
%s
}

_fractal "$@"
`, backendList, strings.Join(args, " \\\n"))

	_, err := fmt.Fprint(out, script)
	if err != nil {
		return fmt.Errorf("completion zsh generation failed: %w", err)
	}
	return nil
}

// zshHelp returns the help text for a flag in zsh, using an override if available.
func zshHelp(f FlagCompletion) string {
	key := flagKey(f)
	if override, ok := zshHelpOverrides[key]; ok {
		return override
	}
	return f.Help
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	help := zshHelp(f)

	// Build the value suffix
	valueSuffix := ""
	if f.IsFile {
		valueSuffix = fmt.Sprintf(":%s:_files", f.ValueName)
	} else if f.IsBackend {
		valueSuffix = fmt.Sprintf(":%s:($backends)", f.ValueName)
	} else if len(f.Values) > 0 {
		valueSuffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	} else if f.ValueName != "" {
		// Value-taking flag with no suggestions (e.g., -n)
		valueSuffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Long != "" && f.Short != "" {
		// Has both short and long form
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, help, valueSuffix)
	}
	if f.Long != "" {
		return fmt.Sprintf("        '--%s[%s]%s'", f.Long, help, valueSuffix)
	}
	// Short only
	return fmt.Sprintf("        '-%s[%s]%s'", f.Short, help, valueSuffix)
}

// generateFishCompletion generates a Fish completion script.
func generateFishCompletion(out io.Writer, backends []string) error {
	var lines []string

	lines = append(lines, "# Fish completion script for fractal")
	lines = append(lines, "# Add this to ~/.config/fish/completions/fractal.fish")
	lines = append(lines, "")
	lines = append(lines, "# Disable file completion by default")
	lines = append(lines, "complete -c fractal -f")
	lines = append(lines, "")

	// Group flags into sections for comments.
	type section struct {
		comment string
		flags   []FlagCompletion
	}

	sections := []section{
		{comment: "# Help and version", flags: filterFlags("help", "version")},
		{comment: "# Image", flags: filterFlags("width", "height", "max-iterations", "bias", "palette", "shade", "zoom")},
		{comment: "# Engine", flags: filterFlags("backend", "workers", "queue", "admission-timeout", "min-precision", "timeout", "gc-mode")},
		{comment: "# Modes", flags: filterFlags("tui", "interactive", "metrics-addr")},
		{comment: "# Calibration", flags: filterFlags("calibrate", "auto-calibrate", "calibration-profile")},
		{comment: "# Output options", flags: filterFlags("output", "quiet", "verbose", "details", "no-color")},
		{comment: "# Completion", flags: filterFlags("completion")},
	}

	backendList := formatBackendList(backends)

	for _, sec := range sections {
		lines = append(lines, sec.comment)
		for _, f := range sec.flags {
			lines = append(lines, fishCompleteLine(f, backendList))
		}
		lines = append(lines, "")
	}

	script := strings.Join(lines, "\n")

	_, err := fmt.Fprint(out, script)
	if err != nil {
		return fmt.Errorf("completion fish generation failed: %w", err)
	}
	return nil
}

// filterFlags returns flags from the registry matching the given identifiers.
// An identifier is a Long name, or "X_short" to match a flag by Short name only.
func filterFlags(ids ...string) []FlagCompletion {
	var result []FlagCompletion
	for _, id := range ids {
		if strings.HasSuffix(id, "_short") {
			short := strings.TrimSuffix(id, "_short")
			for _, f := range flagRegistry {
				if f.Short == short && f.Long == "" {
					result = append(result, f)
					break
				}
			}
		} else {
			for _, f := range flagRegistry {
				if f.Long == id {
					result = append(result, f)
					break
				}
			}
		}
	}
	return result
}

// fishCompleteLine formats a single FlagCompletion as a fish complete command.
func fishCompleteLine(f FlagCompletion, backendList string) string {
	var parts []string
	parts = append(parts, "complete -c fractal")

	if f.Short != "" {
		parts = append(parts, fmt.Sprintf("-s %s", f.Short))
	}
	if f.Long != "" {
		parts = append(parts, fmt.Sprintf("-l %s", f.Long))
	}

	parts = append(parts, fmt.Sprintf("-d '%s'", f.Help))

	if f.IsFile {
		parts = append(parts, "-rF")
	} else if f.IsBackend {
		parts = append(parts, fmt.Sprintf("-xa '%s all'", backendList))
	} else if len(f.Values) > 0 {
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	} else if f.ValueName != "" {
		// Takes a value but no suggestions (e.g., -n)
		parts = append(parts, "-x")
	}

	return strings.Join(parts, " ")
}

// generatePowerShellCompletion generates a PowerShell completion script.
func generatePowerShellCompletion(out io.Writer, backends []string) error {
	// Build $options entries from registry
	var optionEntries []string
	for _, f := range flagRegistry {
		if f.Short != "" {
			optionEntries = append(optionEntries, fmt.Sprintf(
				"        @{Name = '-%s'; Description = '%s' }", f.Short, f.Help))
		}
		if f.Long != "" {
			optionEntries = append(optionEntries, fmt.Sprintf(
				"        @{Name = '--%s'; Description = '%s' }", f.Long, f.Help))
		}
	}

	// Build context-aware switch entries.
	// Backend and non-grouped flags with static values get context-aware completion.
	var switchEntries []string

	psSwitchEntry := func(f FlagCompletion) string {
		var quotedVals []string
		for _, v := range f.Values {
			quotedVals = append(quotedVals, fmt.Sprintf("'%s'", v))
		}
		return fmt.Sprintf(`        '--%s' {
            @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }`, f.Long, strings.Join(quotedVals, ", "))
	}

	// Backend flags first
	for _, f := range flagRegistry {
		if f.IsBackend {
			switchEntries = append(switchEntries, fmt.Sprintf(`        '--%s' {
            $fractalBackends | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }`, f.Long))
		}
	}

	for _, f := range flagRegistry {
		if !f.IsBackend && !f.IsFile && f.BashGroup == "" && len(f.Values) > 0 {
			switchEntries = append(switchEntries, psSwitchEntry(f))
		}
	}

	// Format backend list for PowerShell
	psBackendList := ""
	for i, name := range backends {
		if i > 0 {
			psBackendList += ", "
		}
		psBackendList += fmt.Sprintf("'%s'", name)
	}

	script := fmt.Sprintf(`# PowerShell completion script for fractal
# Add this to your $PROFILE

$fractalBackends = @(%s, 'all')

Register-ArgumentCompleter -CommandName 'fractal' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s
    )

    $elements = $commandAst.CommandElements
    $lastElement = if ($elements.Count -gt 1) { $elements[-1].ToString() } else { '' }
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    # Context-aware completions
    switch ($prevElement) {
%s
    }

    # Default: show options
    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, psBackendList, strings.Join(optionEntries, "\n"), strings.Join(switchEntries, "\n"))

	_, err := fmt.Fprint(out, script)
	return err
}
