package report

import (
	"io"

	"github.com/nao1215/wmsync/internal/model"
)

// Writer renders a run report.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes a report to several Writers in turn, e.g. the
// terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer and returns the total bytes
// written. It stops at the first error.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
