package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/stampedehq/stampede/internal/metrics"
)

// htmlReportData carries everything the HTML template renders.
type htmlReportData struct {
	GeneratedAt string
	Report      *metrics.Report
	StatusRows  []metrics.StatusRow
	ErrorRows   []metrics.ErrorRow
	LatencyJSON string
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	// ms renders latency and rate figures with two decimals.
	"ms": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	// pct renders part of total as a one-decimal percentage.
	"pct": func(part, total int64) string {
		if total == 0 {
			return "0.0"
		}
		return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
	},
}).Parse(htmlTemplate))

// GenerateHTMLReport writes a standalone HTML report with an embedded
// latency chart.
func GenerateHTMLReport(w io.Writer, report *metrics.Report) error {
	latencyJSON, err := json.Marshal(report.ResponseTimesMs)
	if err != nil {
		return fmt.Errorf("failed to marshal response times: %w", err)
	}

	data := htmlReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Report:      report,
		StatusRows:  metrics.SortedStatusRows(report.StatusCodes),
		ErrorRows:   metrics.SortedErrorRows(report.Errors),
		LatencyJSON: string(latencyJSON),
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Stampede Load Test Report</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: system-ui, 'Segoe UI', Helvetica, Arial, sans-serif; background: #fafaf9; color: #1c1917; line-height: 1.55; padding: 24px; }
.container { max-width: 960px; margin: 0 auto; background: #fff; border: 1px solid #e7e5e4; border-radius: 6px; overflow: hidden; }
header { background: #9a3412; color: #fff; padding: 22px 28px; }
header h1 { font-size: 1.5rem; margin-bottom: 4px; }
header .meta { opacity: 0.85; font-size: 0.85rem; }
.content { padding: 28px; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(190px, 1fr)); gap: 14px; margin-bottom: 28px; }
.card { background: #fafaf9; border-radius: 6px; padding: 14px 16px; border-top: 3px solid #9a3412; }
.card.success { border-top-color: #15803d; }
.card.error { border-top-color: #b91c1c; }
.card h3 { font-size: 0.75rem; color: #78716c; text-transform: uppercase; letter-spacing: 0.06em; margin-bottom: 4px; }
.card .value { font-size: 1.5rem; font-weight: 600; }
.card .subvalue { font-size: 0.8rem; color: #78716c; }
h2 { font-size: 1.05rem; margin-bottom: 10px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 28px; }
th, td { text-align: left; padding: 7px 10px; border-bottom: 1px solid #e7e5e4; }
th { font-size: 0.75rem; color: #78716c; text-transform: uppercase; }
#latency-chart { width: 100%; height: 160px; margin-bottom: 28px; }
</style>
</head>
<body>
<div class="container">
    <header>
        <h1>Stampede Load Test Report</h1>
        <div class="meta">{{.Report.URL}} &middot; run {{.Report.RunID}} &middot; generated {{.GeneratedAt}}</div>
    </header>
    <div class="content">
        <div class="grid">
            <div class="card">
                <h3>Total Requests</h3>
                <div class="value">{{.Report.TotalRequests}}</div>
            </div>
            <div class="card success">
                <h3>Successful</h3>
                <div class="value">{{.Report.SuccessfulRequests}}</div>
                <div class="subvalue">{{ms .Report.Metrics.SuccessRate}}% success rate</div>
            </div>
            <div class="card error">
                <h3>Failed</h3>
                <div class="value">{{.Report.FailedRequests}}</div>
            </div>
            <div class="card">
                <h3>Requests / sec</h3>
                <div class="value">{{ms .Report.Metrics.RequestsPerSecond}}</div>
            </div>
        </div>

        <h2>Test Configuration</h2>
        <table>
            <tr><th>Method</th><th>Users</th><th>Duration (s)</th><th>Ramp-up (s)</th><th>Delay (ms)</th><th>Timeout (ms)</th></tr>
            <tr>
                <td>{{.Report.TestConfig.Method}}</td>
                <td>{{.Report.TestConfig.Users}}</td>
                <td>{{.Report.TestConfig.Duration}}</td>
                <td>{{.Report.TestConfig.RampUp}}</td>
                <td>{{.Report.TestConfig.Delay}}</td>
                <td>{{.Report.TestConfig.Timeout}}</td>
            </tr>
        </table>

        <h2>Response Times</h2>
        <table>
            <tr><th>Average (ms)</th><th>Median (ms)</th><th>95th Percentile (ms)</th><th>Test Duration (ms)</th></tr>
            <tr>
                <td>{{ms .Report.Metrics.AvgResponseTimeMs}}</td>
                <td>{{ms .Report.Metrics.MedianResponseTimeMs}}</td>
                <td>{{ms .Report.Metrics.P95ResponseTimeMs}}</td>
                <td>{{ms .Report.Metrics.TotalDurationMs}}</td>
            </tr>
        </table>
        <canvas id="latency-chart"></canvas>

        {{if .StatusRows}}
        <h2>Status Code Distribution</h2>
        <table>
            <tr><th>Status</th><th>Count</th><th>Share</th></tr>
            {{range .StatusRows}}
            <tr><td>{{.Code}}</td><td>{{.Count}}</td><td>{{pct .Count $.Report.TotalRequests}}%</td></tr>
            {{end}}
        </table>
        {{end}}

        {{if .ErrorRows}}
        <h2>Error Distribution</h2>
        <table>
            <tr><th>Error</th><th>Count</th><th>Share</th></tr>
            {{range .ErrorRows}}
            <tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{pct .Count $.Report.TotalRequests}}%</td></tr>
            {{end}}
        </table>
        {{end}}
    </div>
</div>
<script>
    // Successful response times in request order, drawn as a simple bar series.
    const latencyJSON = {{.LatencyJSON}};
    const samples = JSON.parse(latencyJSON) || [];
    const canvas = document.getElementById('latency-chart');
    if (samples.length > 0 && canvas && canvas.getContext) {
        const ctx = canvas.getContext('2d');
        canvas.width = canvas.clientWidth;
        canvas.height = canvas.clientHeight;
        let max = 0;
        for (const v of samples) { if (v > max) max = v; }
        const barWidth = canvas.width / samples.length;
        ctx.fillStyle = '#9a3412';
        samples.forEach((ms, i) => {
            const h = max > 0 ? (ms / max) * canvas.height : 0;
            ctx.fillRect(i * barWidth, canvas.height - h, Math.max(barWidth - 1, 1), h);
        });
    } else if (canvas) {
        canvas.style.display = 'none';
    }
</script>
</body>
</html>
`
