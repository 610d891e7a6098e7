// Package format holds presentation helpers shared by the CLI and TUI:
// durations, byte sizes, digit grouping and progress bars with ETA.
package format
