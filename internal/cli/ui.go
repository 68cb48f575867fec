//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/ui"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of the `DisplayProgress` function from a
// specific spinner implementation, facilitating easier testing and maintenance.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts `spinner.Spinner` to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with an aggregated progress bar and ETA
// until progressChan is closed. It signals wg when done.
//
// Parameters:
//   - wg: Signalled when the display stops.
//   - progressChan: Per-pass progress updates.
//   - numPasses: The number of passes being tracked.
//   - out: The writer for the spinner.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.Update, numPasses int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numPasses)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	label := "Rendering"
	if agg.IsMultiPass() {
		label = fmt.Sprintf("Rendering with %d backends", numPasses)
	}
	suffix := func(avg float64, eta time.Duration) string {
		return fmt.Sprintf(" %s %s", label, format.FormatProgressBarWithETA(avg, eta, ProgressBarWidth))
	}
	s.UpdateSuffix(suffix(0, 0))
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-progressChan:
			if !ok {
				s.UpdateSuffix(suffix(1, 0))
				return
			}
			ap := agg.Update(u)
			s.UpdateSuffix(suffix(ap.AverageProgress, ap.ETA))
		case <-ticker.C:
			s.UpdateSuffix(suffix(agg.CalculateAverage(), agg.GetETA()))
		}
	}
}

// CLIColorProvider supplies the current theme's colours to error output.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }
