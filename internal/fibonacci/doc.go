// Package fibonacci produces the Fibonacci sequence one term at a time.
//
// Generator is the fixed-width producer: it starts at (0, 1), returns the
// current term on every call to Next and advances by the recurrence. Its
// behavior past F(93), the last term that fits in a uint64, is selected by an
// OverflowPolicy. BigGenerator and ModGenerator cover arbitrary precision and
// residues modulo m. Source and Factory give every backend a common face for
// the orchestration layer.
package fibonacci
