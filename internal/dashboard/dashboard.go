package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/stampedehq/stampede/internal/metrics"
)

const (
	refreshInterval = 500 * time.Millisecond
	sparkCapacity   = 100
	listRowCap      = 10
)

// TestConfig carries the run parameters shown in the header panel.
type TestConfig struct {
	TargetURL  string
	Method     string
	Users      int
	Duration   time.Duration
	RampUp     time.Duration // 0 starts everyone at once
	Delay      time.Duration // per-user think time
	Rate       int           // global RPS cap, 0 = unlimited
	Timeout    time.Duration
	ConfigFile string
}

// Dashboard renders a live terminal view of a running load test.
type Dashboard struct {
	agg         *metrics.Aggregator
	activeUsers func() int
	cfg         TestConfig
	quit        func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	grid        *ui.Grid
	header      *widgets.Paragraph
	gauge       *widgets.Gauge
	counters    *widgets.Paragraph
	spark       *widgets.SparklineGroup
	percentiles *widgets.Paragraph
	statuses    *widgets.List
	failures    *widgets.List

	history []float64
	started time.Time
}

// New initializes the terminal UI. activeUsers reports the live simulated
// user count; quit is invoked when the operator presses q.
func New(agg *metrics.Aggregator, cfg TestConfig, activeUsers func() int, quit func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := &Dashboard{
		agg:         agg,
		activeUsers: activeUsers,
		cfg:         cfg,
		quit:        quit,
		history:     make([]float64, 0, sparkCapacity),
		started:     time.Now(),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.buildWidgets()
	d.buildGrid()
	return d, nil
}

func (d *Dashboard) buildWidgets() {
	line := widgets.NewSparkline()
	line.Title = "Latency (ms)"
	line.LineColor = ui.ColorGreen
	line.Data = []float64{0}
	d.spark = widgets.NewSparklineGroup(line)
	d.spark.Title = "Live Latency"

	d.header = newPanel("Test Summary", "Starting up...")
	d.counters = newPanel("Counters", "Waiting for samples...")
	d.percentiles = newPanel("Latency Percentiles", "No samples yet")

	d.gauge = widgets.NewGauge()
	d.gauge.Title = "Run Progress"
	d.gauge.BarColor = ui.ColorBlue
	d.gauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.statuses = newListPanel("Status Codes", "Awaiting data")
	d.failures = newListPanel("Failures", "No failures")

	for _, b := range []*ui.Block{
		&d.spark.Block, &d.header.Block, &d.counters.Block, &d.percentiles.Block,
		&d.gauge.Block, &d.statuses.Block, &d.failures.Block,
	} {
		b.BorderStyle.Fg = ui.ColorCyan
	}
}

func newPanel(title, text string) *widgets.Paragraph {
	p := widgets.NewParagraph()
	p.Title = title
	p.Text = text
	return p
}

func newListPanel(title, placeholder string) *widgets.List {
	l := widgets.NewList()
	l.Title = title
	l.Rows = []string{placeholder}
	l.TextStyle = ui.NewStyle(ui.ColorYellow)
	return l
}

func (d *Dashboard) buildGrid() {
	width, height := ui.TerminalDimensions()
	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, width, height)
	d.grid.Set(
		ui.NewRow(0.16, ui.NewCol(1.0, d.header)),
		ui.NewRow(0.18,
			ui.NewCol(0.5, d.gauge),
			ui.NewCol(0.5, d.counters),
		),
		ui.NewRow(0.28,
			ui.NewCol(0.65, d.spark),
			ui.NewCol(0.35, d.percentiles),
		),
		ui.NewRow(0.38,
			ui.NewCol(0.5, d.statuses),
			ui.NewCol(0.5, d.failures),
		),
	)
}

// Start launches the refresh loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.loop()
}

// Stop tears the UI down and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Let the terminal settle before anything else prints.
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) loop() {
	defer d.wg.Done()

	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	events := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(events) > 0 {
				<-events
			}
			return
		case e := <-events:
			if d.ctx.Err() != nil {
				return
			}
			d.handleEvent(e)
		case <-refresh.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) handleEvent(e ui.Event) {
	switch e.ID {
	case "q", "<C-c>":
		// Ask the run to stop; Stop cancels the loop once it winds down.
		if d.quit != nil {
			d.quit()
		}
	case "<Resize>":
		size := e.Payload.(ui.Resize)
		d.grid.SetRect(0, 0, size.Width, size.Height)
		ui.Clear()
		d.render()
	}
}

// update refreshes every panel from the aggregator.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.started)
	stats := d.agg.LiveStats(elapsed)
	codes, errs := d.agg.Distributions()

	d.pushLatency(stats)
	d.gauge.Percent = progressPercent(elapsed, d.cfg.Duration)
	d.gauge.Label = gaugeLabel(elapsed, d.cfg.Duration)

	users := 0
	if d.activeUsers != nil {
		users = d.activeUsers()
	}

	d.header.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Active Users: %d | Total: %d | Success Rate: %.1f%%",
		d.cfg.TargetURL,
		d.formatTestParams(),
		elapsed.Round(time.Second),
		users,
		stats.Total,
		stats.SuccessRate,
	)

	d.counters.Text = fmt.Sprintf(
		"Total Requests:    %d\nSuccessful:        %d\nFailed:            %d\nCurrent RPS:       %.2f\nSuccess Rate:      %.1f%%\nActive Users:      %d",
		stats.Total,
		stats.Successful,
		stats.Failed,
		stats.RequestsPerSec,
		stats.SuccessRate,
		users,
	)

	d.percentiles.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP95:  %.2fms\nP99:  %.2fms",
		msOf(stats.MinLatency),
		msOf(stats.MeanLatency),
		msOf(stats.P50Latency),
		msOf(stats.P95Latency),
		msOf(stats.P99Latency),
	)

	d.statuses.Rows = formatStatusRows(codes)
	d.failures.Rows = formatErrorRows(errs)
}

// pushLatency appends the current mean latency to the sparkline window.
func (d *Dashboard) pushLatency(stats metrics.Stats) {
	if stats.MeanLatency <= 0 {
		return
	}
	current := msOf(stats.MeanLatency)
	d.history = append(d.history, current)
	if len(d.history) > sparkCapacity {
		d.history = d.history[1:]
	}
	d.spark.Sparklines[0].Data = d.history
	d.spark.Title = fmt.Sprintf(
		"Live Latency | Current: %.2fms | Min: %.2fms | Max: %.2fms",
		current, msOf(stats.MinLatency), msOf(stats.MaxLatency),
	)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	ui.Render(d.grid)
	d.mu.Unlock()
}

func formatStatusRows(codes map[int]int64) []string {
	rows := metrics.SortedStatusRows(codes)
	if len(rows) == 0 {
		return []string{"[Awaiting data](fg:green)"}
	}
	if len(rows) > listRowCap {
		rows = rows[:listRowCap]
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		color := "fg:red"
		if row.Code/100 == 2 {
			color = "fg:green"
		}
		out = append(out, fmt.Sprintf("[%d](%s) %d", row.Code, color, row.Count))
	}
	return out
}

func formatErrorRows(errs map[string]int64) []string {
	rows := metrics.SortedErrorRows(errs)
	if len(rows) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	if len(rows) > listRowCap {
		rows = rows[:listRowCap]
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, fmt.Sprintf("[%s](fg:red) %d", row.Label, row.Count))
	}
	return out
}

// formatTestParams renders the run parameters as a single header line.
// Defaults that carry no information, like method GET, are omitted.
func (d *Dashboard) formatTestParams() string {
	var parts []string
	add := func(format string, args ...interface{}) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	if d.cfg.Method != "" && d.cfg.Method != "GET" {
		add("Method: %s", d.cfg.Method)
	}
	if d.cfg.Users > 0 {
		add("Users: %d", d.cfg.Users)
	}
	if d.cfg.Rate > 0 {
		add("Rate: %d/s", d.cfg.Rate)
	} else {
		add("Rate: unlimited")
	}
	if d.cfg.Duration > 0 {
		add("Duration: %s", d.cfg.Duration)
	}
	if d.cfg.RampUp > 0 {
		add("Ramp-up: %s", d.cfg.RampUp)
	}
	if d.cfg.Delay > 0 {
		add("Delay: %s", d.cfg.Delay)
	}
	if d.cfg.Timeout > 0 {
		add("Timeout: %s", d.cfg.Timeout)
	}
	if d.cfg.ConfigFile != "" {
		add("Config: %s", d.cfg.ConfigFile)
	}
	return strings.Join(parts, " | ")
}

func gaugeLabel(elapsed, total time.Duration) string {
	if total <= 0 {
		return clockString(elapsed)
	}
	return fmt.Sprintf("%s / %s", clockString(elapsed), clockString(total))
}

// progressPercent maps elapsed wall time onto a 0..100 gauge value.
func progressPercent(elapsed, total time.Duration) int {
	if total <= 0 {
		return 0
	}
	percent := int(float64(elapsed) / float64(total) * 100)
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}

// clockString renders a duration as MM:SS.
func clockString(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
