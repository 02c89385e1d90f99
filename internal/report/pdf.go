package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/models"
)

// DefaultOrganization heads reports when no organization is configured.
const DefaultOrganization = "Yukon Women's Coalition"

const defaultTitle = "GBV Compliance Report"

// Options controls report headings.
type Options struct {
	Organization string
	// Title replaces the default heading.
	Title string
	// Now stamps the report; zero means time.Now.
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.Organization == "" {
		o.Organization = DefaultOrganization
	}
	if o.Title == "" {
		o.Title = defaultTitle
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// ComplianceReport renders the executive summary, tier analysis, type
// distribution and the detailed list grouped by type. Only filters.Type
// narrows the detailed list; callers pass indicators already filtered.
func ComplianceReport(w io.Writer, indicators []models.Indicator, filters analytics.FilterState, opts Options) error {
	opts = opts.withDefaults()
	r := newPDFReport(opts)

	r.heading(opts)
	r.executiveSummary(analytics.Summary(indicators))
	r.tierAnalysis(analytics.TierMetrics(indicators))
	r.typeDistribution(analytics.TypeMetrics(indicators))

	detailed := analytics.Filter(indicators, analytics.FilterState{Type: filters.Type})
	r.detailedList(analytics.GroupByType(detailed))

	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// FunderReport renders a compliance report restricted to the funder's
// source and titled for that funder.
func FunderReport(w io.Writer, indicators []models.Indicator, funder string, opts Options) error {
	opts.Title = funder + " Compliance Report"
	return ComplianceReport(w, ForFunder(indicators, funder), analytics.FilterState{Type: analytics.All}, opts)
}

var headerFill = [3]int{3, 105, 161}

const (
	leftMargin   = 14.0
	topMargin    = 20.0
	bottomMargin = 20.0
)

type column struct {
	title string
	width float64
	align string
}

type pdfReport struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	pageW float64
	pageH float64
}

func newPDFReport(opts Options) *pdfReport {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(leftMargin, topMargin, leftMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle(opts.Title, true)
	pdf.SetAuthor(opts.Organization, true)
	pdf.SetCreator("ywc-dashboard", true)
	pdf.SetCreationDate(opts.Now)
	pdf.SetModificationDate(opts.Now)

	w, h := pdf.GetPageSize()
	r := &pdfReport{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), pageW: w, pageH: h}

	stamp := "YWC Compliance Report - " + opts.Now.Format("2006-01-02")
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(leftMargin, h-13)
		pdf.CellFormat(80, 6, r.tr(stamp), "", 0, "L", false, 0, "")
		pdf.SetXY(0, h-13)
		pdf.CellFormat(w, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return r
}

func (r *pdfReport) heading(opts Options) {
	p := r.pdf
	p.SetFont("Helvetica", "B", 20)
	p.CellFormat(0, 10, r.tr(opts.Title), "", 1, "C", false, 0, "")
	p.Ln(3)
	p.SetFont("Helvetica", "", 12)
	p.CellFormat(0, 7, r.tr(opts.Organization), "", 1, "C", false, 0, "")
	p.CellFormat(0, 7, "Report Generated: "+opts.Now.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	p.Ln(8)
}

func (r *pdfReport) sectionTitle(title string, size float64, needed float64) {
	r.breakIfNeeded(needed)
	r.pdf.SetFont("Helvetica", "B", size)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.CellFormat(0, 8, r.tr(title), "", 1, "L", false, 0, "")
	r.pdf.Ln(2)
}

func (r *pdfReport) executiveSummary(s analytics.SummaryStats) {
	r.sectionTitle("Executive Summary", 16, 40)
	rows := [][]string{
		{"Total Indicators", strconv.Itoa(s.Total)},
		{"Universal Indicators", strconv.Itoa(s.Universal)},
		{"Strategic Compliance Indicators", strconv.Itoa(s.Strategic)},
		{"Collective Impact Indicators", strconv.Itoa(s.Collective)},
		{"", ""},
		{"Tier 1 Indicators", strconv.Itoa(s.Tier1)},
		{"Tier 2 Indicators", strconv.Itoa(s.Tier2)},
		{"Tier 3 Indicators", strconv.Itoa(s.Tier3)},
	}
	r.table([]column{{"Metric", 120, "L"}, {"Count", 30, "C"}}, rows, 10, false)
	r.pdf.Ln(10)
}

func (r *pdfReport) tierAnalysis(metrics []analytics.TierMetric) {
	r.sectionTitle("Tier Analysis", 16, 60)
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Tier,
			strconv.Itoa(m.Total),
			strconv.Itoa(m.Completed),
			strconv.Itoa(m.InProgress),
			fmt.Sprintf("%.1f%%", m.CompletionRate),
		})
	}
	r.table([]column{
		{"Tier", 40, "L"}, {"Total", 30, "C"}, {"Completed", 35, "C"},
		{"In Progress", 35, "C"}, {"Completion Rate", 42, "C"},
	}, rows, 10, true)
	r.pdf.Ln(10)
}

func (r *pdfReport) typeDistribution(metrics []analytics.TypeMetric) {
	r.sectionTitle("Indicator Type Distribution", 16, 60)
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{m.Type, strconv.Itoa(m.Total), fmt.Sprintf("%.1f%%", m.Percentage)})
	}
	r.table([]column{{"Type", 90, "L"}, {"Count", 40, "C"}, {"Percentage", 52, "C"}}, rows, 10, true)
}

func (r *pdfReport) detailedList(groups []analytics.TypeGroup) {
	r.pdf.AddPage()
	r.sectionTitle("Detailed Indicator List", 16, 0)

	cols := []column{
		{"ID", 20, "L"}, {"Indicator Name", 80, "L"}, {"Tier", 20, "L"},
		{"Pillar", 22, "L"}, {"Source", 40, "L"},
	}
	for _, g := range groups {
		r.sectionTitle(g.Type, 14, 30)
		rows := make([][]string, 0, len(g.Indicators))
		for _, ind := range g.Indicators {
			rows = append(rows, []string{ind.ID, ind.Name, ind.Tier, ind.Pillar, ind.Source})
		}
		r.table(cols, rows, 8, false)
		r.pdf.Ln(5)
	}
}

func (r *pdfReport) breakIfNeeded(h float64) {
	if r.pdf.GetY()+h > r.pageH-bottomMargin {
		r.pdf.AddPage()
	}
}

// table draws a header row and wrapped body rows, repeating the header
// after a page break.
func (r *pdfReport) table(cols []column, rows [][]string, fontSize float64, striped bool) {
	p := r.pdf
	lineH := fontSize * 0.5

	header := func() {
		p.SetFont("Helvetica", "B", fontSize)
		p.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		p.SetTextColor(255, 255, 255)
		for _, c := range cols {
			p.CellFormat(c.width, lineH+2, r.tr(c.title), "1", 0, c.align, true, 0, "")
		}
		p.Ln(-1)
		p.SetFont("Helvetica", "", fontSize)
		p.SetTextColor(0, 0, 0)
	}

	r.breakIfNeeded(2 * (lineH + 2))
	header()

	for i, row := range rows {
		cells := make([][]string, len(cols))
		lines := 1
		for j, c := range cols {
			cells[j] = r.cellLines(row[j], c.width)
			if n := len(cells[j]); n > lines {
				lines = n
			}
		}
		rowH := float64(lines)*lineH + 2

		if p.GetY()+rowH > r.pageH-bottomMargin {
			p.AddPage()
			header()
		}

		fill := striped && i%2 == 1
		if fill {
			p.SetFillColor(245, 245, 245)
		}
		x, y := p.GetX(), p.GetY()
		for j, c := range cols {
			style := "D"
			if fill {
				style = "FD"
			}
			p.Rect(x, y, c.width, rowH, style)
			for k, line := range cells[j] {
				p.SetXY(x, y+1+float64(k)*lineH)
				p.CellFormat(c.width, lineH, line, "", 0, c.align, false, 0, "")
			}
			x += c.width
			p.SetXY(x, y)
		}
		p.SetXY(leftMargin, y+rowH)
	}
}

// cellLines wraps s in the current font so each line fits a cell of width w
// with the cell margin kept on both sides. Row heights and drawing both use
// these lines.
func (r *pdfReport) cellLines(s string, w float64) []string {
	inner := w - 2*r.pdf.GetCellMargin()
	var out []string
	for _, line := range r.pdf.SplitLines([]byte(r.tr(s)), inner) {
		out = append(out, string(line))
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}
