package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"stocksync/internal/downloader"
)

// Health bands for the run dashboard. Below 85% success the report flags
// partial loss; below 70% it recommends a re-run.
const (
	colorGood = "#27ae60"
	colorWarn = "#f39c12"
	colorBad  = "#e74c3c"
)

var reportTmpl = template.Must(template.New("report").Parse(`
<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333; max-width: 700px; margin: auto; border: 1px solid #eee; padding: 20px; border-radius: 10px;">
  <h2 style="color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px;">{{.Market}} daily history sync</h2>
  <p style="color: #7f8c8d; font-size: 14px;">Generated {{.When}}</p>
  <div style="background-color: #f8f9fa; border: 1px solid #e9ecef; padding: 15px; border-radius: 8px; margin: 20px 0; display: flex; align-items: center;">
    <div style="flex: 1; text-align: center; border-right: 1px solid #dee2e6;">
      <div style="font-size: 12px; color: #6c757d;">Symbols</div>
      <div style="font-size: 20px; font-weight: bold; color: #2c3e50;">{{.Total}}</div>
    </div>
    <div style="flex: 1; text-align: center; border-right: 1px solid #dee2e6;">
      <div style="font-size: 12px; color: #6c757d;">Valid artifacts</div>
      <div style="font-size: 20px; font-weight: bold; color: {{.Color}};">{{.Success}}</div>
    </div>
    <div style="flex: 1; text-align: center; border-right: 1px solid #dee2e6;">
      <div style="font-size: 12px; color: #6c757d;">Failed</div>
      <div style="font-size: 20px; font-weight: bold; color: {{.Color}};">{{.Fail}}</div>
    </div>
    <div style="flex: 1; text-align: center;">
      <div style="font-size: 12px; color: #6c757d;">Success rate</div>
      <div style="font-size: 20px; font-weight: bold; color: {{.Color}};">{{.Rate}}</div>
    </div>
  </div>
  <p style="font-size: 14px; font-weight: bold; color: {{.Color}};">{{.Label}}</p>
  <p style="margin-top: 40px; font-size: 12px; color: #bdc3c7; text-align: center;">Automatically generated, for research reference only.</p>
</div>
`))

type reportData struct {
	Market  string
	When    string
	Total   int
	Success int
	Fail    int
	Rate    string
	Color   template.CSS
	Label   string
}

// health maps a success rate to a display color and status label.
func health(rate float64) (color, label string) {
	switch {
	case rate < 70:
		return colorBad, "Severe data loss, re-run advised"
	case rate < 85:
		return colorWarn, "Partial data missing"
	default:
		return colorGood, "Data set complete"
	}
}

// Render builds the HTML report body for one run.
func Render(market string, stats downloader.Stats, when time.Time) string {
	rate := stats.SuccessRate()
	color, label := health(rate)

	var b strings.Builder
	// The template is a compile-time constant, execution cannot fail on a
	// plain struct.
	_ = reportTmpl.Execute(&b, reportData{
		Market:  market,
		When:    when.Format("2006-01-02 15:04"),
		Total:   stats.Total,
		Success: stats.Success,
		Fail:    stats.Fail,
		Rate:    fmt.Sprintf("%.1f%%", rate),
		Color:   template.CSS(color),
		Label:   label,
	})
	return b.String()
}

// Subject builds the email subject line for one run.
func Subject(market string, when time.Time) string {
	return fmt.Sprintf("%s sync report - %s", market, when.Format("2006-01-02 15:04"))
}
