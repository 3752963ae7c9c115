package report

import (
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/wmsync/internal/model"
)

// maxMarkdownFailures caps the failures table; the JSON report has them all.
const maxMarkdownFailures = 100

// MarkdownWriter outputs reports as GitHub flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCounters(md, report)
	w.writeFailures(md, report)
	w.writeNotes(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1(fmt.Sprintf("wmsync %s report", report.Kind))
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + report.RunID + "`"},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if !report.FinishedAt.IsZero() {
		rows = append(rows,
			[]string{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			[]string{"Duration", report.Duration().Round(time.Second).String()},
		)
	}
	if report.Store != "" {
		rows = append(rows, []string{"Store", report.Store})
	}
	if report.DryRun {
		rows = append(rows, []string{"Mode", "dry run"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	counters := report.Snapshot()
	rows := make([][]string, 0, len(counters))
	for _, c := range counters {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Value)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report.Kind, counters)
}

// writePieChart charts the non-zero counters. Nothing is written when
// fewer than two counters have a value.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, kind model.RunKind, counters []model.Counter) {
	nonZero := 0
	for _, c := range counters {
		if c.Value > 0 {
			nonZero++
		}
	}
	if nonZero < 2 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(fmt.Sprintf("%s counters", kind)),
		piechart.WithShowData(true),
	)
	for _, c := range counters {
		if c.Value > 0 {
			chart.LabelAndIntValue(c.Name, uint64(c.Value)) //nolint:gosec // positive
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Failures")
	md.PlainText("")

	if !report.HasFailures() {
		md.Tip("No failures.")
		md.PlainText("")
		return
	}

	failures := report.Failures
	md.Warningf("%d item(s) failed. Re-run the command or check the items below.", len(failures))
	md.PlainText("")

	if len(failures) > maxMarkdownFailures {
		failures = failures[:maxMarkdownFailures]
	}
	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{"`" + f.ID + "`", truncateString(f.Message, 120)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
	if len(report.Failures) > maxMarkdownFailures {
		md.PlainTextf("*%d more failures omitted.*", len(report.Failures)-maxMarkdownFailures)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeNotes(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Notes) == 0 {
		return
	}
	md.H2("Notes")
	md.PlainText("")
	md.BulletList(report.Notes...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by wmsync*")
}

// truncateString shortens s to maxLen runes, ending in "..." when cut.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
