// Package logging provides a unified logging interface for fibiter. It hides
// the zerolog backend behind Logger so components can log structured fields
// without depending on a concrete implementation.
package logging
