// Package orchestration drives sequence generation: it pumps terms from a
// fibonacci.Source into a Sink through a bounded pipeline, runs several
// backends side by side for comparison, and reports progress. Presentation
// stays behind the ProgressReporter and ResultPresenter interfaces.
package orchestration
