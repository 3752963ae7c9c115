// Package database provides wmsync's local SQLite state.
//
// The database records:
//   - the ledger of Walmart items already imported into the store
//   - the report of every batch run
//   - pagination checkpoints so a long import can resume
//   - the rows of every store audit
//
// It uses modernc.org/sqlite, a CGO-free driver, so the binary stays a
// single static file. The handle is limited to one connection, which
// serializes writes from concurrent workers.
package database
