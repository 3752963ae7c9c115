package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/report"
)

// defaultHistoryLimit is the number of runs listed by "history".
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show past runs and the import ledger",
		Long: `History lists the most recent runs recorded in the local database,
followed by the number of imported items per source, as text, JSON or
Markdown. With RUN_ID the full report of that run is printed.

Examples:
  wmsync history
  wmsync history --limit 50
  wmsync history 2b7c0c1e-6f0e-4f7a-9b55-3f1e3c2a9d10 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	cmd.Flags().Int("limit", defaultHistoryLimit, "Number of runs to list (0 for all)")
	addReportFlags(cmd)
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 1 {
		r, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("run not found: %s", args[0])
		}
		return a.outputReport(r)
	}
	format := historyText
	switch {
	case a.cfg.JSONReport:
		format = historyJSON
	case a.cfg.MarkdownReport:
		format = historyMarkdown
	}
	return writeHistory(ctx, a.stdout, db, limit, time.Now(), format)
}

// historyDB is the part of the database the history listing reads.
type historyDB interface {
	ListRuns(ctx context.Context, limit int) ([]database.RunSummary, error)
	ImportedCount(ctx context.Context) (int, error)
	ImportedBySource(ctx context.Context) ([]database.SourceCount, error)
}

// historyFormat selects how the listing is rendered.
type historyFormat int

const (
	historyText historyFormat = iota
	historyJSON
	historyMarkdown
)

// historyRun is one listed run.
type historyRun struct {
	RunID      string        `json:"run_id"`
	Kind       model.RunKind `json:"kind"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// historySource is the ledger size of one import source.
type historySource struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// historyView is everything the listing shows.
type historyView struct {
	Runs     []historyRun    `json:"runs"`
	Imported int             `json:"imported_items"`
	Sources  []historySource `json:"sources"`
}

func loadHistory(ctx context.Context, db historyDB, limit int) (*historyView, error) {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	total, err := db.ImportedCount(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := db.ImportedBySource(ctx)
	if err != nil {
		return nil, err
	}

	v := &historyView{
		Runs:     make([]historyRun, 0, len(runs)),
		Imported: total,
		Sources:  make([]historySource, 0, len(sources)),
	}
	for _, r := range runs {
		hr := historyRun{RunID: r.RunID, Kind: r.Kind, StartedAt: r.StartedAt}
		if !r.FinishedAt.IsZero() {
			finished := r.FinishedAt
			hr.FinishedAt = &finished
		}
		v.Runs = append(v.Runs, hr)
	}
	for _, s := range sources {
		v.Sources = append(v.Sources, historySource{Source: s.Source, Count: s.Count})
	}
	return v, nil
}

// duration returns how long the run took, or "running".
func (r historyRun) duration() string {
	if r.FinishedAt == nil {
		return "running"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

// writeHistory prints the recent runs and the ledger totals. Ages are
// relative to now.
func writeHistory(ctx context.Context, w io.Writer, db historyDB, limit int, now time.Time, format historyFormat) error {
	v, err := loadHistory(ctx, db, limit)
	if err != nil {
		return err
	}
	switch format {
	case historyJSON:
		_, err := report.NewJSONWriter(w, report.WithPrettyPrint()).Encode(v)
		return err
	case historyMarkdown:
		return writeHistoryMarkdown(w, v, now)
	default:
		return writeHistoryText(w, v, now)
	}
}

func writeHistoryText(w io.Writer, v *historyView, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(v.Runs) == 0 {
		fmt.Fprintln(tw, "No runs recorded yet.")
	} else {
		fmt.Fprintln(tw, "RUN ID\tKIND\tSTARTED\tDURATION")
		for _, r := range v.Runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				r.RunID, r.Kind, humanize.RelTime(r.StartedAt, now, "ago", "from now"), r.duration())
		}
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Imported items: %s\n", humanize.Comma(int64(v.Imported)))
	for _, s := range v.Sources {
		fmt.Fprintf(tw, "  %s\t%s\n", s.Source, humanize.Comma(int64(s.Count)))
	}
	return tw.Flush()
}

func writeHistoryMarkdown(w io.Writer, v *historyView, now time.Time) error {
	md := markdown.NewMarkdown(w)
	md.H1("wmsync history")
	md.PlainText("")

	md.H2("Runs")
	md.PlainText("")
	if len(v.Runs) == 0 {
		md.Note("No runs recorded yet.")
	} else {
		rows := make([][]string, 0, len(v.Runs))
		for _, r := range v.Runs {
			rows = append(rows, []string{
				"`" + r.RunID + "`",
				string(r.Kind),
				humanize.RelTime(r.StartedAt, now, "ago", "from now"),
				r.duration(),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Run ID", "Kind", "Started", "Duration"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	md.H2("Import ledger")
	md.PlainText("")
	rows := [][]string{{"**total**", humanize.Comma(int64(v.Imported))}}
	for _, s := range v.Sources {
		rows = append(rows, []string{s.Source, humanize.Comma(int64(s.Count))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Items"},
		Rows:   rows,
	})
	return md.Build()
}
