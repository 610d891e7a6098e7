package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// Every generator reads flagRegistry, so a new flag only needs an entry
// there.
type FlagCompletion struct {
	Long      string   // long flag name without "--" (e.g., "count")
	Short     string   // short flag without "-" (e.g., "n")
	Help      string   // description text
	Values    []string // suggested completion values (nil = boolean/no suggestions)
	ValueName string   // label for the value (e.g., "number", "duration")
	IsFile    bool     // true if the flag takes a file path
	IsNumeric bool     // true if values come from the backend list (dynamic)
	Section   string   // fish comment section
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message", Section: "Help and version"},
	{Long: "version", Short: "V", Help: "Show version information", Section: "Help and version"},
	{Long: "count", Short: "n", Help: "Number of terms to produce", ValueName: "number", Section: "Sequence"},
	{Long: "start", Short: "s", Help: "Index of the first term", ValueName: "index", Section: "Sequence"},
	{Long: "numeric", Short: "b", Help: "Numeric backend", IsNumeric: true, ValueName: "backend", Section: "Sequence"},
	{Long: "overflow", Help: "uint64 overflow policy", Values: []string{"fail", "wrap", "saturate"}, ValueName: "policy", Section: "Sequence"},
	{Long: "last-digits", Short: "k", Help: "Print only the last K digits", ValueName: "digits", Section: "Sequence"},
	{Long: "interval", Help: "Delay between terms", Values: []string{"10ms", "100ms", "500ms", "1s"}, ValueName: "duration", Section: "Sequence"},
	{Long: "timeout", Help: "Maximum execution time", Values: []string{"10s", "1m", "5m", "10m"}, ValueName: "duration", Section: "Sequence"},
	{Long: "buffer", Help: "Pipeline buffer size", ValueName: "size", Section: "Sequence"},
	{Long: "format", Short: "f", Help: "Output format", Values: []string{"text", "json", "csv"}, ValueName: "format", Section: "Output"},
	{Long: "output", Short: "o", Help: "Output file path", IsFile: true, ValueName: "file", Section: "Output"},
	{Long: "quiet", Short: "q", Help: "Print bare values only", Section: "Output"},
	{Long: "verbose", Short: "v", Help: "Print full values and statistics", Section: "Output"},
	{Long: "no-color", Help: "Disable colored output", Section: "Output"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level", Section: "Output"},
	{Long: "tui", Help: "Interactive dashboard", Section: "Modes"},
	{Long: "serve", Help: "Serve over HTTP on address", ValueName: "address", Section: "Modes"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish", "powershell"}, ValueName: "shell", Section: "Modes"},
}

// GenerateCompletion writes a completion script for shell. numerics lists
// the registered backends; "all" is appended.
func GenerateCompletion(out io.Writer, shell string, numerics []string) error {
	backends := append(append([]string(nil), numerics...), "all")
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

func flagPatterns(f FlagCompletion) []string {
	var p []string
	if f.Long != "" {
		p = append(p, "--"+f.Long)
	}
	if f.Short != "" {
		p = append(p, "-"+f.Short)
	}
	return p
}

func generateBashCompletion(out io.Writer, backends []string) error {
	var opts []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		opts = append(opts, flagPatterns(f)...)

		var body string
		switch {
		case f.IsNumeric:
			body = `COMPREPLY=( $(compgen -W "${backends}" -- "${cur}") )`
		case f.IsFile:
			body = `COMPREPLY=( $(compgen -f -- "${cur}") )`
		case len(f.Values) > 0:
			body = fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(f.Values, " "))
		default:
			continue
		}
		fmt.Fprintf(&cases, "        %s)\n            %s\n            return 0\n            ;;\n",
			strings.Join(flagPatterns(f), "|"), body)
	}

	_, err := fmt.Fprintf(out, `# Bash completion script for fibiter
# Add this to your ~/.bashrc or ~/.bash_completion

_fibiter_completions() {
    local cur prev opts backends
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%s"
    backends="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _fibiter_completions fibiter
`, strings.Join(opts, " "), strings.Join(backends, " "), cases.String())
	if err != nil {
		return fmt.Errorf("completion bash generation failed: %w", err)
	}
	return nil
}

func generateZshCompletion(out io.Writer, backends []string) error {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}

	_, err := fmt.Fprintf(out, `#compdef fibiter

# Zsh completion script for fibiter
# Add this to your ~/.zshrc or place in $fpath

_fibiter() {
    local -a backends
    backends=(%s)

    _arguments -s \
%s
}

_fibiter "$@"
`, strings.Join(backends, " "), strings.Join(args, " \\\n"))
	if err != nil {
		return fmt.Errorf("completion zsh generation failed: %w", err)
	}
	return nil
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	valueSuffix := ""
	switch {
	case f.IsFile:
		valueSuffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case f.IsNumeric:
		valueSuffix = fmt.Sprintf(":%s:($backends)", f.ValueName)
	case len(f.Values) > 0:
		valueSuffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		valueSuffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, f.Help, valueSuffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, valueSuffix)
}

func generateFishCompletion(out io.Writer, backends []string) error {
	lines := []string{
		"# Fish completion script for fibiter",
		"# Add this to ~/.config/fish/completions/fibiter.fish",
		"",
		"complete -c fibiter -f",
	}
	section := ""
	for _, f := range flagRegistry {
		if f.Section != section {
			section = f.Section
			lines = append(lines, "", "# "+section)
		}
		lines = append(lines, fishCompleteLine(f, backends))
	}
	lines = append(lines, "")

	if _, err := fmt.Fprint(out, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("completion fish generation failed: %w", err)
	}
	return nil
}

func fishCompleteLine(f FlagCompletion, backends []string) string {
	parts := []string{"complete -c fibiter"}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))

	switch {
	case f.IsFile:
		parts = append(parts, "-rF")
	case f.IsNumeric:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(backends, " ")))
	case len(f.Values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	case f.ValueName != "":
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}

func psQuote(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}

func generatePowerShellCompletion(out io.Writer, backends []string) error {
	var options, switches []string
	for _, f := range flagRegistry {
		for _, p := range flagPatterns(f) {
			options = append(options, fmt.Sprintf("        @{Name = '%s'; Description = '%s' }", p, f.Help))
		}

		values := f.Values
		if f.IsNumeric {
			values = backends
		}
		if len(values) == 0 {
			continue
		}
		switches = append(switches, fmt.Sprintf(`        '--%s' {
            @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }`, f.Long, psQuote(values)))
	}

	_, err := fmt.Fprintf(out, `# PowerShell completion script for fibiter
# Add this to your $PROFILE

Register-ArgumentCompleter -CommandName 'fibiter' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s
    )

    $elements = $commandAst.CommandElements
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    switch ($prevElement) {
%s
    }

    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, strings.Join(options, "\n"), strings.Join(switches, "\n"))
	return err
}
