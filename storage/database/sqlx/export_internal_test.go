package sqlxrepos

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

func TestExportsQuery(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no filter", func(t *testing.T) {
		q, args, err := exportsQuery(paper.QueryFilter{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+exportColumns+" FROM exports ORDER BY created_at DESC", q)
		assert.Empty(t, args)
	})

	t.Run("all fields", func(t *testing.T) {
		filter := paper.QueryFilter{
			Search:      "physics",
			Kinds:       []string{"questions-pdf", "answers-excel"},
			PaperID:     "p1",
			CreatedBy:   "jane",
			CreatedFrom: from,
			CreatedTo:   from.Add(24 * time.Hour),
		}
		orderings := []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "password"}}

		q, args, err := exportsQuery(filter, orderings)
		require.NoError(t, err)
		assert.Contains(t, q, "WHERE (title ILIKE ? OR filename ILIKE ?) AND kind IN (?, ?) AND paper_id = ?")
		assert.Contains(t, q, "AND created_by = ? AND created_at >= ? AND created_at <= ?")
		assert.True(t, strings.HasSuffix(q, " ORDER BY title ASC"), q)
		assert.Equal(t, []interface{}{
			"%physics%", "%physics%", "questions-pdf", "answers-excel", "p1", "jane", from, from.Add(24 * time.Hour),
		}, args)
	})
}

func TestExportRowBoiling(t *testing.T) {
	repo := exportRepository{}
	rec := paper.ExportRecord{Kind: paper.KindAnswersExcel, Title: "Mock", Filename: "mock.xlsx", Questions: 3}

	row := repo.boil(rec)
	assert.NotEmpty(t, row.ID)
	assert.False(t, row.CreatedAt.IsZero())
	assert.False(t, row.PaperID.Valid)
	assert.False(t, row.CreatedBy.Valid)

	back := repo.unboil(row)
	assert.Equal(t, row.ID, back.ID)
	assert.Equal(t, paper.KindAnswersExcel, back.Kind)
	assert.Equal(t, "", back.PaperID)
	assert.Equal(t, 3, back.Questions)
}
