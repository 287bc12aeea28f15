// Package dummydb keeps the export history in memory, for tests and deployments without a database.
package dummydb

import (
	"sync"

	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

type (
	DB struct {
		export *exportTable
	}

	exportTable struct {
		sync.RWMutex
		table map[string]*paper.ExportRecord
	}
)

func Open() (*DB, error) {
	db := &DB{
		export: &exportTable{table: make(map[string]*paper.ExportRecord)},
	}
	return db, nil
}
