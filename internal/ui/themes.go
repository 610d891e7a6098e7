package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a set of ANSI escape codes used by the line-oriented CLI output.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// GoldTheme is the default theme for dark terminals.
	GoldTheme = Theme{
		Name:      "gold",
		Primary:   "\033[38;5;178m", // Gold
		Secondary: "\033[38;5;245m", // Grey
		Success:   "\033[38;5;114m", // Green
		Warning:   "\033[38;5;214m", // Amber
		Error:     "\033[38;5;203m", // Red
		Info:      "\033[38;5;74m",  // Teal
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme uses darker tones for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;130m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;166m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;24m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes at all.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = GoldTheme
	themeMutex   sync.RWMutex
)

// TUITheme holds the lipgloss colors of the dashboard.
type TUITheme struct {
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
}

var (
	GoldTUITheme = TUITheme{
		Text:    lipgloss.Color("#E4E4E4"),
		Border:  lipgloss.Color("#B8860B"),
		Accent:  lipgloss.Color("#FFC94D"),
		Success: lipgloss.Color("#8FD694"),
		Warning: lipgloss.Color("#FFB347"),
		Error:   lipgloss.Color("#FF5F5F"),
		Dim:     lipgloss.Color("#6C6C6C"),
		Info:    lipgloss.Color("#5FAFD7"),
	}

	NoColorTUITheme = TUITheme{
		Text:    lipgloss.NoColor{},
		Border:  lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
		Info:    lipgloss.NoColor{},
	}
)

// GetCurrentTUITheme returns the dashboard palette matching the active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	if currentTheme.Name == NoColorTheme.Name {
		return NoColorTUITheme
	}
	return GoldTUITheme
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

// SetTheme activates a theme by name ("gold", "light", "none"). Unknown
// names select GoldTheme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	switch name {
	case LightTheme.Name:
		currentTheme = LightTheme
	case NoColorTheme.Name:
		currentTheme = NoColorTheme
	default:
		currentTheme = GoldTheme
	}
}

// InitTheme disables colors when noColor is set, when NO_COLOR is present
// in the environment (https://no-color.org/), or when stdout is not a
// terminal. Otherwise GoldTheme is used.
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}
	if !IsTerminal(os.Stdout.Fd()) {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = GoldTheme
}
