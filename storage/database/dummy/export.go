package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

type exportRepository struct {
	db *exportTable
}

var _ paper.Repository = (*exportRepository)(nil) // interface compliance check

func NewExportRepository(db *DB) paper.Repository {
	return &exportRepository{db: db.export}
}

func (repo *exportRepository) query() []paper.ExportRecord {
	records := make([]paper.ExportRecord, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		records = append(records, *rec)
	}
	return records
}

func (repo *exportRepository) CreateExport(_ context.Context, rec paper.ExportRecord) (paper.ExportRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *exportRepository) QueryExports(ctx context.Context, filter paper.QueryFilter, orderings ...core.DBOrdering) ([]paper.ExportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	records := make([]paper.ExportRecord, 0)
	for _, rec := range repo.query() {
		// records with search keyword matching the Title or Filename ?
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.Title), search) &&
			!strings.Contains(strings.ToLower(rec.Filename), search) {
			continue
		}
		if len(filter.Kinds) > 0 && !contains(filter.Kinds, string(rec.Kind)) {
			continue
		}
		if filter.PaperID != "" && rec.PaperID != filter.PaperID {
			continue
		}
		if filter.CreatedBy != "" && rec.CreatedBy != filter.CreatedBy {
			continue
		}
		if !filter.CreatedFrom.IsZero() && rec.CreatedAt.Before(filter.CreatedFrom.UTC()) {
			continue
		}
		if !filter.CreatedTo.IsZero() && rec.CreatedAt.After(filter.CreatedTo.UTC()) {
			continue
		}
		records = append(records, rec)
	}

	sortExports(records, orderings)
	return records, nil
}

// sortExports orders by `orderings` then newest first. Unknown fields are ignored.
func sortExports(records []paper.ExportRecord, orderings []core.DBOrdering) {
	orderings = append(orderings[:len(orderings):len(orderings)], core.DBOrdering{Field: "created_at"})
	sort.SliceStable(records, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareField(records[i], records[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareField(a, b paper.ExportRecord, field string) int {
	switch field {
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "filename":
		return strings.Compare(a.Filename, b.Filename)
	case "kind":
		return strings.Compare(string(a.Kind), string(b.Kind))
	case "size":
		return a.Size - b.Size
	case "questions":
		return a.Questions - b.Questions
	}
	return 0
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
