// Package model defines the records shared by wmsync's commands: the run
// report every batch command produces and the rows of a store audit.
//
// The types live in their own package so that pipeline, audit, migrate,
// database and report can all use them without importing each other.
// Every type serializes to JSON for report output and database storage.
package model
