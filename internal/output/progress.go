package output

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/stampedehq/stampede/internal/metrics"
)

const progressBarWidth = 20

// ProgressReporter displays a single-line real-time progress readout,
// redrawn in place with a carriage return.
type ProgressReporter struct {
	// EstimatedTotal is the expected request count for the whole run.
	// When set, the readout shows a bar and a done/expected counter; the
	// estimate is a display aid only and may be overshot.
	EstimatedTotal int64
	// RunDuration caps the elapsed clock shown next to the bar.
	RunDuration time.Duration
	// ActiveUsers, when set, adds the live user count to the readout.
	ActiveUsers func() int

	agg     *metrics.Aggregator
	writer  io.Writer
	ticker  *time.Ticker
	stop    chan struct{}
	stopped chan struct{}
	active  atomic.Bool
	start   time.Time
}

// NewProgressReporter builds a reporter that redraws every interval on writer.
func NewProgressReporter(agg *metrics.Aggregator, interval time.Duration, writer io.Writer) *ProgressReporter {
	p := &ProgressReporter{
		agg:     agg,
		writer:  writer,
		ticker:  time.NewTicker(interval),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		start:   time.Now(),
	}
	if p.writer == nil {
		p.writer = io.Discard
	}
	return p
}

// Start launches the redraw goroutine. Starting twice is a no-op.
func (p *ProgressReporter) Start() {
	if !p.active.CompareAndSwap(false, true) {
		return
	}
	go p.run()
}

// Stop halts progress updates. The last line is left on screen; callers
// should emit a newline before printing anything else.
func (p *ProgressReporter) Stop() {
	if !p.active.CompareAndSwap(true, false) {
		return
	}
	close(p.stop)
	p.ticker.Stop()
	<-p.stopped
}

func (p *ProgressReporter) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.stop:
			return
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.renderLine(time.Since(p.start)))
		}
	}
}

func (p *ProgressReporter) renderLine(elapsed time.Duration) string {
	if p.RunDuration > 0 && elapsed > p.RunDuration {
		elapsed = p.RunDuration
	}
	stats := p.agg.LiveStats(elapsed)

	var line strings.Builder
	line.WriteString("\rRequests")
	if p.EstimatedTotal > 0 {
		frac := float64(stats.Total) / float64(p.EstimatedTotal)
		fmt.Fprintf(&line, " %s %d/%d", renderBar(frac, progressBarWidth), stats.Total, p.EstimatedTotal)
	} else {
		fmt.Fprintf(&line, ": %d", stats.Total)
	}
	if p.RunDuration > 0 {
		fmt.Fprintf(&line, " [%s<%s]", formatClock(elapsed), formatClock(p.RunDuration-elapsed))
	}
	if p.ActiveUsers != nil {
		fmt.Fprintf(&line, " | Users: %d", p.ActiveUsers())
	}
	fmt.Fprintf(&line, " | OK: %d | Errors: %d | RPS: %.1f", stats.Successful, stats.Failed, stats.RequestsPerSec)
	return line.String()
}

// renderBar draws a fixed-width progress bar for a 0..1 fraction.
func renderBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled && filled < width:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// formatClock renders a duration as MM:SS for the progress readout.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
