// Package ui provides the color themes and terminal queries shared by the
// CLI and the dashboard.
package ui

// DefaultWidth is used when the terminal size is unknown.
const DefaultWidth = 80
