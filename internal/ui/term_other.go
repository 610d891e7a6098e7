//go:build !unix

package ui

// IsTerminal always reports true; color can still be disabled via NO_COLOR.
func IsTerminal(uintptr) bool { return true }

// TerminalWidth returns DefaultWidth.
func TerminalWidth(uintptr) int { return DefaultWidth }
