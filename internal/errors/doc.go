// Package apperrors defines structured application error types, separating
// configuration problems from generation failures and arithmetic overflow
// while carrying the underlying cause.
//
// Every wrapping type implements Unwrap so callers can rely on errors.Is and
// errors.As across the whole chain.
package apperrors
