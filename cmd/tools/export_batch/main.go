package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

type exportMetric struct {
	Funder     string
	File       string
	DryRun     bool
	HTTPStatus int
	Bytes      int64
	Duration   time.Duration
	Error      string
}

// Downloads one PDF report per funder from a running API server.
func main() {
	baseURL := flag.String("base-url", "http://localhost:8081", "API base URL")
	fundersCSV := flag.String("funders", "General,WGED,NAP Bilateral", "Comma-separated funders")
	outDir := flag.String("out", "reports", "Output directory")
	rateLimitMs := flag.Int("rate-limit-ms", 250, "Delay between requests in milliseconds")
	timeoutSec := flag.Int("timeout-sec", 60, "HTTP timeout in seconds")
	dryRun := flag.Bool("dry-run", false, "Print planned calls only; do not execute")
	flag.Parse()

	funders := splitCSV(*fundersCSV)
	if len(funders) == 0 {
		exitErr(errors.New("no funders provided: use -funders"))
	}
	if *timeoutSec <= 0 {
		exitErr(errors.New("timeout-sec must be > 0"))
	}
	if !*dryRun {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			exitErr(fmt.Errorf("failed to create output dir: %w", err))
		}
	}

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}
	metrics := make([]exportMetric, 0, len(funders))

	for idx, funder := range funders {
		metric := exportMetric{Funder: funder, DryRun: *dryRun}
		start := time.Now()
		reqURL := buildURL(*baseURL, funder)

		if *dryRun {
			fmt.Printf("[DRY-RUN] %s\n", reqURL)
		} else {
			file, n, status, err := download(client, reqURL, *outDir)
			metric.HTTPStatus = status
			metric.File = file
			metric.Bytes = n
			if err != nil {
				metric.Error = err.Error()
			}
		}
		metric.Duration = time.Since(start)
		metrics = append(metrics, metric)

		if idx < len(funders)-1 && *rateLimitMs > 0 {
			time.Sleep(time.Duration(*rateLimitMs) * time.Millisecond)
		}
	}

	printReport(metrics)
	for _, m := range metrics {
		if m.Error != "" {
			os.Exit(1)
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildURL(baseURL, funder string) string {
	u, _ := url.Parse(strings.TrimRight(baseURL, "/") + "/api/v1/export/pdf")
	q := u.Query()
	q.Set("funder", funder)
	u.RawQuery = q.Encode()
	return u.String()
}

// download saves the response under the server-provided filename.
func download(client *http.Client, reqURL, outDir string) (string, int64, int, error) {
	resp, err := client.Get(reqURL)
	if err != nil {
		return "", 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, resp.StatusCode, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = "report.pdf"
	}
	path := filepath.Join(outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, resp.StatusCode, err
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return path, n, resp.StatusCode, fmt.Errorf("write %s: %w", path, err)
	}
	return path, n, resp.StatusCode, nil
}

func attachmentName(disposition string) string {
	_, after, ok := strings.Cut(disposition, "filename=")
	if !ok {
		return ""
	}
	return filepath.Base(strings.Trim(after, `"`))
}

func printReport(metrics []exportMetric) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Funder Report Export")
	t.AppendHeader(table.Row{"Funder", "Dry", "HTTP", "File", "Size", "Sec", "Error"})

	var total int64
	failed := 0
	for _, m := range metrics {
		if m.Error != "" {
			failed++
		}
		total += m.Bytes
		t.AppendRow(table.Row{
			m.Funder, m.DryRun, m.HTTPStatus, m.File,
			humanize.Bytes(uint64(m.Bytes)),
			fmt.Sprintf("%.2f", m.Duration.Seconds()),
			m.Error,
		})
	}
	t.AppendFooter(table.Row{"Totals", "", "", "", humanize.Bytes(uint64(total)), "", fmt.Sprintf("errors=%d", failed)})
	t.Render()
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
