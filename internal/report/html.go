package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/models"
)

var printTemplate = template.Must(template.New("print").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2rem; color: #111; }
h1, .meta { text-align: center; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th { background: #0369a1; color: #fff; text-align: left; }
th, td { border: 1px solid #ccc; padding: 4px 6px; font-size: 10pt; }
.detail { page-break-before: always; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.Organization}}</p>
<p class="meta">Report Generated: {{.Date}}</p>
<p class="meta">Indicators included: {{.Count}} · Active filters: {{.ActiveFilters}}</p>

<h2>Executive Summary</h2>
<table id="summary">
<tr><th>Metric</th><th>Count</th></tr>
<tr><td>Total Indicators</td><td>{{.Stats.Total}}</td></tr>
<tr><td>Universal Indicators</td><td>{{.Stats.Universal}}</td></tr>
<tr><td>Strategic Compliance Indicators</td><td>{{.Stats.Strategic}}</td></tr>
<tr><td>Collective Impact Indicators</td><td>{{.Stats.Collective}}</td></tr>
<tr><td>Tier 1 Indicators</td><td>{{.Stats.Tier1}}</td></tr>
<tr><td>Tier 2 Indicators</td><td>{{.Stats.Tier2}}</td></tr>
<tr><td>Tier 3 Indicators</td><td>{{.Stats.Tier3}}</td></tr>
</table>

<h2>Tier Analysis</h2>
<table id="tiers">
<tr><th>Tier</th><th>Total</th><th>Completed</th><th>In Progress</th><th>Completion Rate</th></tr>
{{range .Tiers}}<tr><td>{{.Tier}}</td><td>{{.Total}}</td><td>{{.Completed}}</td><td>{{.InProgress}}</td><td>{{pct .CompletionRate}}</td></tr>
{{end}}</table>

<h2>Indicator Type Distribution</h2>
<table id="types">
<tr><th>Type</th><th>Count</th><th>Percentage</th></tr>
{{range .Types}}<tr><td>{{.Type}}</td><td>{{.Total}}</td><td>{{pct .Percentage}}</td></tr>
{{end}}</table>

<section class="detail">
<h2>Detailed Indicator List</h2>
{{range .Groups}}<h3>{{.Type}}</h3>
<table class="indicators">
<tr><th>ID</th><th>Indicator Name</th><th>Tier</th><th>Pillar</th><th>Source</th></tr>
{{range .Indicators}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Tier}}</td><td>{{.Pillar}}</td><td>{{.Source}}</td></tr>
{{end}}</table>
{{end}}</section>
</body>
</html>
`))

type printData struct {
	Title         string
	Organization  string
	Date          string
	Count         int
	ActiveFilters int
	Stats         analytics.SummaryStats
	Tiers         []analytics.TierMetric
	Types         []analytics.TypeMetric
	Groups        []analytics.TypeGroup
}

// PrintView renders the printable HTML version of the compliance report.
func PrintView(w io.Writer, indicators []models.Indicator, filters analytics.FilterState, opts Options) error {
	opts = opts.withDefaults()
	data := printData{
		Title:         opts.Title,
		Organization:  opts.Organization,
		Date:          opts.Now.Format("January 2, 2006"),
		Count:         len(indicators),
		ActiveFilters: analytics.CountActiveFilters(filters),
		Stats:         analytics.Summary(indicators),
		Tiers:         analytics.TierMetrics(indicators),
		Types:         analytics.TypeMetrics(indicators),
		Groups:        analytics.GroupByType(analytics.Filter(indicators, analytics.FilterState{Type: filters.Type})),
	}
	if err := printTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render print view: %w", err)
	}
	return nil
}

// PrintViewText flattens a rendered print view to plain text: one line per
// heading or paragraph, and table rows as " | "-joined cells.
func PrintViewText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse print view: %w", err)
	}

	var lines []string
	doc.Find("body h1, body h2, body h3, body p, body tr").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "tr" {
			lines = append(lines, strings.TrimSpace(s.Text()))
			return
		}
		var cells []string
		s.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		lines = append(lines, strings.Join(cells, " | "))
	})
	return strings.Join(lines, "\n") + "\n", nil
}
