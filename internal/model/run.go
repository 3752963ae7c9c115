package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunKind names the command that produced a RunReport.
type RunKind string

// Run kinds recorded in the runs table.
const (
	RunImport      RunKind = "import"
	RunBestSellers RunKind = "bestsellers"
	RunExport      RunKind = "export"
	RunAudit       RunKind = "audit"
	RunSync        RunKind = "sync"
	RunMigrate     RunKind = "migrate"
	RunPurge       RunKind = "purge"
	RunBench       RunKind = "bench"
)

// Counter is one named tally of a run.
type Counter struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Failure records an item that could not be processed.
type Failure struct {
	// ID identifies the item: a Walmart item ID, Shopify product ID or variant ID.
	ID string `json:"id"`

	// Message is the error text.
	Message string `json:"message"`
}

// RunReport is the outcome of one batch command.
//
// Counters keep the order in which they were declared so reports list them
// the same way every run. All mutating methods are safe for concurrent use
// by the workers of a run.
type RunReport struct {
	mu sync.Mutex

	RunID      string    `json:"run_id"`
	Kind       RunKind   `json:"kind"`
	Store      string    `json:"store,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Counters   []Counter `json:"counters"`
	Failures   []Failure `json:"failures,omitempty"`
	Notes      []string  `json:"notes,omitempty"`
}

// NewRunReport starts a report with a fresh run ID and the given counters
// set to zero.
func NewRunReport(kind RunKind, counters ...string) *RunReport {
	r := &RunReport{
		RunID:     uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
		Counters:  make([]Counter, 0, len(counters)),
	}
	for _, name := range counters {
		r.Counters = append(r.Counters, Counter{Name: name})
	}
	return r
}

// Add increases a counter by n, declaring it at the end if it is new.
func (r *RunReport) Add(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Counters {
		if r.Counters[i].Name == name {
			r.Counters[i].Value += n
			return
		}
	}
	r.Counters = append(r.Counters, Counter{Name: name, Value: n})
}

// Inc increases a counter by one.
func (r *RunReport) Inc(name string) {
	r.Add(name, 1)
}

// Count returns a counter's value, or 0 when it is unknown.
func (r *RunReport) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Counters {
		if c.Name == name {
			return c.Value
		}
	}
	return 0
}

// Fail records a failed item.
func (r *RunReport) Fail(id string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, Failure{ID: id, Message: msg})
}

// Notef appends a free-form note.
func (r *RunReport) Notef(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Finish stamps the finish time.
func (r *RunReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// Duration returns how long the run took, or how long it has been running.
func (r *RunReport) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasFailures reports whether any item failed.
func (r *RunReport) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Failures) > 0
}

// Snapshot returns a copy of the counters, safe to read while workers run.
func (r *RunReport) Snapshot() []Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Counter(nil), r.Counters...)
}
