package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when the file is missing and
	// creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrEmptyItemID is returned when recording an import without an item ID.
	ErrEmptyItemID = errors.New("item ID is required")

	// ErrEmptyRunID is returned when saving a run or audit rows without a run ID.
	ErrEmptyRunID = errors.New("run ID is required")
)
