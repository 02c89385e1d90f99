package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/ingest"
	"github.com/david/ywc-dashboard/internal/models"
	"github.com/david/ywc-dashboard/internal/report"
)

var (
	reportOut    string
	reportCSV    string
	reportFunder string
	reportFilter analytics.FilterState
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render exports from the working set or a CSV file",
}

var reportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write the compliance report, or a funder report with --funder",
	RunE: func(cmd *cobra.Command, args []string) error {
		indicators, err := reportIndicators(cmd)
		if err != nil {
			return err
		}
		if len(indicators) == 0 {
			return fmt.Errorf("no indicators to report")
		}
		opts := report.Options{Organization: cfg.Report.Organization, Now: time.Now()}
		name := report.PDFFilename(opts.Now)
		if reportFunder != "" {
			name = report.FunderPDFFilename(reportFunder, opts.Now)
		}
		return writeOutput(name, func(w io.Writer) error {
			if reportFunder != "" {
				return report.FunderReport(w, indicators, reportFunder, opts)
			}
			return report.ComplianceReport(w, indicators, reportFilter, opts)
		})
	},
}

var reportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export the filtered indicators as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		indicators, err := reportIndicators(cmd)
		if err != nil {
			return err
		}
		return writeOutput(report.CSVFilename(time.Now()), func(w io.Writer) error {
			return report.WriteCSV(w, indicators)
		})
	},
}

var reportPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Write the printable HTML view",
	RunE: func(cmd *cobra.Command, args []string) error {
		indicators, err := reportIndicators(cmd)
		if err != nil {
			return err
		}
		opts := report.Options{Organization: cfg.Report.Organization, Now: time.Now()}
		return writeOutput("ywc_report_"+opts.Now.Format("2006-01-02")+".html", func(w io.Writer) error {
			return report.PrintView(w, indicators, reportFilter, opts)
		})
	},
}

var reportInspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf|file.html>",
	Short: "Print the text of a generated report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
			pages, err := report.PageCount(content)
			if err != nil {
				return err
			}
			text, err := report.ExtractPDFText(content)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d page(s)\n\n%s\n", pages, text)
			return nil
		}
		text, err := report.PrintViewText(bytes.NewReader(content))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reportPDFCmd, reportCSVCmd, reportPrintCmd} {
		f := c.Flags()
		f.StringVarP(&reportOut, "out", "o", "", "output path (default: generated filename, - for stdout)")
		f.StringVar(&reportCSV, "csv", "", "read indicators from this CSV instead of the store")
		f.StringVar(&reportFilter.Type, "type", analytics.All, "indicator type")
		f.StringVar(&reportFilter.Tier, "tier", analytics.All, "tier")
		f.StringVar(&reportFilter.Pillar, "pillar", analytics.All, "pillar")
		f.StringVar(&reportFilter.Source, "source", analytics.All, "source")
		f.StringVar(&reportFilter.Priority, "priority", analytics.All, "priority")
		f.StringVar(&reportFilter.Search, "search", "", "free-text search")
	}
	reportPDFCmd.Flags().StringVar(&reportFunder, "funder", "", "funder report: WGED, NAP Bilateral or General")

	reportCmd.AddCommand(reportPDFCmd, reportCSVCmd, reportPrintCmd, reportInspectCmd)
}

// reportIndicators loads the working set (or --csv) and applies the filters.
func reportIndicators(cmd *cobra.Command) ([]models.Indicator, error) {
	var indicators []models.Indicator
	if reportCSV != "" {
		f, err := os.Open(reportCSV)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		result, err := ingest.NewPipeline(nil, logger).Parse(cmd.Context(), f, reportCSV)
		if err != nil {
			return nil, err
		}
		indicators = result.Indicators
	} else {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		indicators = store.LoadIndicators(cmd.Context())
	}
	filtered := analytics.Filter(indicators, reportFilter)
	logger.Debug("report input",
		zap.Int("indicators", len(indicators)),
		zap.Int("filtered", len(filtered)),
		zap.Int("active_filters", analytics.CountActiveFilters(reportFilter)),
	)
	return filtered, nil
}

func writeOutput(defaultName string, render func(io.Writer) error) error {
	if reportOut == "-" {
		return render(os.Stdout)
	}
	path := reportOut
	if path == "" {
		path = defaultName
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("report written", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return nil
}
