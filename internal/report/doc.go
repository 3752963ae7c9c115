// Package report renders run reports and CSV files.
//
// Run reports have three renderings:
//   - SimpleWriter: aligned text for the terminal
//   - JSONWriter: JSON for tooling, optionally wrapped with the tool version
//   - MarkdownWriter: GitHub flavored Markdown with a mermaid chart
//
// Writers share the Writer interface and can be combined with MultiWriter.
// CSVWriter and ReadCSV handle the typed CSV files written by the audit,
// migrate and export commands.
package report
