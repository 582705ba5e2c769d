// Package store persists completed quiz attempts as flat result rows. Two
// backends implement the same contract: a workbook store that keeps the
// spreadsheet format results have always been stored in, and a SQLite store
// whose transactional append is the safer choice when several users share
// one deployment.
package store

import (
	"fmt"

	"github.com/sanketk/quizdeck/internal/model"
)

// Driver names accepted by Open.
const (
	DriverWorkbook = "workbook"
	DriverSQLite   = "sqlite"
)

// Store is the append/read contract for result rows. Append adds a finished
// session's rows in order; ReadAll returns every stored row, an empty slice
// when the store does not exist yet. Neither retries on failure.
type Store interface {
	Append(rows []model.ResultRow) error
	ReadAll() ([]model.ResultRow, error)
	Close() error
}

// PersistenceError marks a failed append. The caller is expected to keep
// showing the in-memory scorecard and surface the lost durability to the
// user; no retry happens anywhere.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persisting results: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Open selects a backend by driver name.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverWorkbook:
		return NewWorkbook(path), nil
	case DriverSQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown results driver %q", driver)
	}
}
