package utils

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker shows how many links of a batch have been resolved
type ProgressTracker struct {
	bar       *pb.ProgressBar
	startTime time.Time
	total     int
	done      int
	mutex     sync.Mutex
}

// ResolveSummary contains the final statistics of a batch
type ResolveSummary struct {
	Total   int
	Done    int
	Elapsed time.Duration
	Rate    float64 // links per second
}

// NewProgressTracker creates a tracker for total links writing its bar to out.
// No bar is drawn in quiet mode or for a single link.
func NewProgressTracker(total int, quiet bool, out io.Writer) *ProgressTracker {
	tracker := &ProgressTracker{
		startTime: time.Now(),
		total:     total,
	}

	if !quiet && total > 1 {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{etime . }}`
		bar := pb.ProgressBarTemplate(tmpl).New(total)
		bar.SetWriter(out)
		bar.Set("prefix", "Resolving: ")
		tracker.bar = bar.Start()
	}

	return tracker
}

// Increment records one resolved link. Safe for concurrent use.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.done++
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Finish stops the bar and returns the batch summary
func (p *ProgressTracker) Finish() *ResolveSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
	}

	elapsed := time.Since(p.startTime)
	summary := &ResolveSummary{
		Total:   p.total,
		Done:    p.done,
		Elapsed: elapsed,
	}
	if elapsed > 0 {
		summary.Rate = float64(p.done) / elapsed.Seconds()
	}

	return summary
}

// String renders the summary as one status line
func (s *ResolveSummary) String() string {
	return fmt.Sprintf("Resolved %d/%d links in %v", s.Done, s.Total, s.Elapsed.Round(time.Millisecond))
}
