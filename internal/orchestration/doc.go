// Package orchestration coordinates render passes: it resolves the view from
// zoom selections, runs one or more backends concurrently, and aggregates
// their results for comparison. It decouples the render engine from
// presentation via the ProgressReporter and ResultPresenter interfaces.
package orchestration
