package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/wmsync/internal/model"
)

const ruleWidth = 60

// SimpleWriter outputs reports as aligned plain text for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every failure instead of the first few.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every failure.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// maxSimpleFailures is how many failures are listed without WithVerbose.
const maxSimpleFailures = 10

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writeFailures(&sb, report)
	w.writeNotes(&sb, report)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "wmsync %s\n", strings.ToUpper(string(report.Kind)))
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run ID:   %s\n", report.RunID)
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Duration: %s\n", report.Duration().Round(time.Millisecond))
	}
	if report.Store != "" {
		fmt.Fprintf(sb, "Store:    %s\n", report.Store)
	}
	if report.DryRun {
		sb.WriteString("Mode:     DRY RUN (no changes were made)\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.RunReport) {
	counters := report.Snapshot()
	width := 0
	for _, c := range counters {
		width = max(width, len(c.Name))
	}
	for _, c := range counters {
		fmt.Fprintf(sb, "  %-*s  %s\n", width, c.Name, humanize.Comma(int64(c.Value)))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	if !report.HasFailures() {
		return
	}
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "FAILURES (%s)\n", humanize.Comma(int64(len(report.Failures))))
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")

	failures := report.Failures
	if !w.verbose && len(failures) > maxSimpleFailures {
		failures = failures[:maxSimpleFailures]
	}
	for _, f := range failures {
		fmt.Fprintf(sb, "  [!] %s: %s\n", f.ID, f.Message)
	}
	if len(failures) < len(report.Failures) {
		fmt.Fprintf(sb, "  ... and %d more (use --verbose)\n", len(report.Failures)-len(failures))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeNotes(sb *strings.Builder, report *model.RunReport) {
	for _, note := range report.Notes {
		fmt.Fprintf(sb, "  * %s\n", note)
	}
	if len(report.Notes) > 0 {
		sb.WriteString("\n")
	}
}
