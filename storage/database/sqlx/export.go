package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

// exportOrderings maps the sortable fields to their column.
var exportOrderings = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"filename":   "filename",
	"kind":       "kind",
	"size":       "size",
	"questions":  "questions",
}

const exportColumns = "id, kind, title, filename, paper_id, questions, size, cached, created_by, created_at"

type exportRow struct {
	ID        string      `db:"id"`
	Kind      string      `db:"kind"`
	Title     string      `db:"title"`
	Filename  string      `db:"filename"`
	PaperID   null.String `db:"paper_id"`
	Questions int         `db:"questions"`
	Size      int         `db:"size"`
	Cached    bool        `db:"cached"`
	CreatedBy null.String `db:"created_by"`
	CreatedAt time.Time   `db:"created_at"`
}

type exportRepository struct {
	db sqlx.ExtContext
}

var _ paper.Repository = (*exportRepository)(nil) // interface compliance check

// NewExportRepository works with both *sqlx.DB and *sqlx.Tx.
func NewExportRepository(db sqlx.ExtContext) *exportRepository {
	return &exportRepository{db: db}
}

func (repo exportRepository) boil(rec paper.ExportRecord) exportRow {
	row := exportRow{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		Title:     rec.Title,
		Filename:  rec.Filename,
		PaperID:   null.NewString(rec.PaperID, rec.PaperID != ""),
		Questions: rec.Questions,
		Size:      rec.Size,
		Cached:    rec.Cached,
		CreatedBy: null.NewString(rec.CreatedBy, rec.CreatedBy != ""),
		CreatedAt: rec.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (repo exportRepository) unboil(row exportRow) paper.ExportRecord {
	return paper.ExportRecord{
		ID:        row.ID,
		Kind:      paper.Kind(row.Kind),
		Title:     row.Title,
		Filename:  row.Filename,
		PaperID:   row.PaperID.String,
		Questions: row.Questions,
		Size:      row.Size,
		Cached:    row.Cached,
		CreatedBy: row.CreatedBy.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo exportRepository) CreateExport(ctx context.Context, rec paper.ExportRecord) (paper.ExportRecord, error) {
	row := repo.boil(rec)
	q := `INSERT INTO exports (` + exportColumns + `)
		VALUES (:id, :kind, :title, :filename, :paper_id, :questions, :size, :cached, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return paper.ExportRecord{}, errors.Wrap(err, "inserting export")
	}
	return repo.unboil(row), nil
}

func (repo exportRepository) QueryExports(ctx context.Context, filter paper.QueryFilter, orderings ...core.DBOrdering) ([]paper.ExportRecord, error) {
	q, args, err := exportsQuery(filter, orderings)
	if err != nil {
		return nil, err
	}

	var rows []exportRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying exports")
	}
	records := make([]paper.ExportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, repo.unboil(row))
	}
	return records, nil
}

// exportsQuery builds the SELECT statement with `?` bind vars.
func exportsQuery(filter paper.QueryFilter, orderings []core.DBOrdering) (string, []interface{}, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Search != "" {
		where = append(where, "(title ILIKE ? OR filename ILIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if len(filter.Kinds) > 0 {
		where = append(where, "kind IN (?)")
		args = append(args, filter.Kinds)
	}
	if filter.PaperID != "" {
		where = append(where, "paper_id = ?")
		args = append(args, filter.PaperID)
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, filter.CreatedTo.UTC())
	}

	q := "SELECT " + exportColumns + " FROM exports"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + core.OrderBy(orderings, exportOrderings, "created_at DESC")

	if len(filter.Kinds) == 0 {
		return q, args, nil
	}
	// expands the kinds slice
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "building exports query")
	}
	return q, args, nil
}
