package database

import "errors"

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrNotEnoughRuns is returned by DiffLatest when fewer than two runs
	// exist for the site.
	ErrNotEnoughRuns = errors.New("at least two archived runs are needed to compare")

	// ErrDatabaseNotFound is returned by Open when the database does not
	// exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)
