package main

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// TestCase is one top-level test parsed from go test -v output
type TestCase struct {
	Name     string
	Status   string // PASS | FAIL | SKIP
	Duration time.Duration
}

// SuiteResult is the outcome of one go test invocation
type SuiteResult struct {
	Name     string
	Pattern  string
	Success  bool
	Duration time.Duration
	Cases    []TestCase
	LogPath  string
}

// Count returns how many cases ended with status
func (r SuiteResult) Count(status string) int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == status {
			n++
		}
	}
	return n
}

var caseLine = regexp.MustCompile(`^--- (PASS|FAIL|SKIP): (\S+) \(([0-9.]+)s\)`)

// parseTestOutput extracts top-level test results; subtests are indented and ignored
func parseTestOutput(output string) []TestCase {
	var cases []TestCase
	for _, line := range strings.Split(output, "\n") {
		m := caseLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		secs, _ := strconv.ParseFloat(m[3], 64)
		cases = append(cases, TestCase{
			Name:     m[2],
			Status:   m[1],
			Duration: time.Duration(secs * float64(time.Second)),
		})
	}
	return cases
}

// buildMarkdown renders the run summary as GitHub-flavoured Markdown
func buildMarkdown(results []SuiteResult, started time.Time, frontendURL, apiURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# ImuneTrack E2E Report\n\n")
	fmt.Fprintf(&b, "- Started: %s\n", started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Frontend: %s\n", frontendURL)
	fmt.Fprintf(&b, "- Backend: %s\n\n", apiURL)

	fmt.Fprintf(&b, "## Suites\n\n")
	fmt.Fprintf(&b, "| Suite | Result | Passed | Failed | Skipped | Duration |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %.2fs |\n",
			r.Name, resultLabel(r.Success), r.Count("PASS"), r.Count("FAIL"), r.Count("SKIP"), r.Duration.Seconds())
	}

	for _, r := range results {
		if len(r.Cases) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", r.Name)
		fmt.Fprintf(&b, "| Test | Status | Duration |\n|---|---|---|\n")
		for _, c := range r.Cases {
			fmt.Fprintf(&b, "| %s | %s | %.2fs |\n", c.Name, c.Status, c.Duration.Seconds())
		}
		if r.LogPath != "" {
			fmt.Fprintf(&b, "\nLog: `%s`\n", r.LogPath)
		}
	}

	return b.String()
}

func resultLabel(success bool) string {
	if success {
		return "PASS"
	}
	return "FAIL"
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ImuneTrack E2E Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f3f3f3; }
</style>
</head>
<body>
%s
</body>
</html>
`

// writeHTML converts the Markdown summary to a standalone HTML page
func writeHTML(path, markdown string) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return fmt.Errorf("failed to convert summary to HTML: %w", err)
	}
	return os.WriteFile(path, []byte(fmt.Sprintf(htmlTemplate, buf.String())), 0644)
}

// writePDF renders the suite and test tables to an A4 PDF
func writePDF(path string, results []SuiteResult, started time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "ImuneTrack E2E Report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "Started: "+started.Format("2006-01-02 15:04:05"))
	pdf.Ln(10)

	header := func(cols []string, widths []float64) {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for i, c := range cols {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	suiteWidths := []float64{60, 25, 25, 25, 25, 30}
	header([]string{"Suite", "Result", "Passed", "Failed", "Skipped", "Duration"}, suiteWidths)
	for _, r := range results {
		row := []string{
			tr(r.Name),
			resultLabel(r.Success),
			strconv.Itoa(r.Count("PASS")),
			strconv.Itoa(r.Count("FAIL")),
			strconv.Itoa(r.Count("SKIP")),
			fmt.Sprintf("%.2fs", r.Duration.Seconds()),
		}
		for i, c := range row {
			pdf.CellFormat(suiteWidths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	caseWidths := []float64{130, 30, 30}
	for _, r := range results {
		if len(r.Cases) == 0 {
			continue
		}
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, tr(r.Name))
		pdf.Ln(8)
		header([]string{"Test", "Status", "Duration"}, caseWidths)
		for _, c := range r.Cases {
			if c.Status == "FAIL" {
				pdf.SetTextColor(180, 0, 0)
			}
			pdf.CellFormat(caseWidths[0], 6, tr(c.Name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(caseWidths[1], 6, c.Status, "1", 0, "L", false, 0, "")
			pdf.CellFormat(caseWidths[2], 6, fmt.Sprintf("%.2fs", c.Duration.Seconds()), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
