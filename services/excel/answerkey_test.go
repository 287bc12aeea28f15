package excel_test

import (
	"bytes"
	"context"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	"github.com/medicos-drona/drona-frontend-sub001/services/excel"
	logsvc "github.com/medicos-drona/drona-frontend-sub001/services/logger"
)

func newAnswerKey(t *testing.T) *excel.AnswerKey {
	t.Helper()
	conf := &core.Config{Env: "TEST", TestMode: true}
	ak, err := excel.NewAnswerKey(logsvc.NewRollbarLogger(log.New(os.Stderr, "", 0), conf))
	require.NoError(t, err)
	return ak
}

func fiveQuestionsTwoSubjects() []paper.PreparedQuestion {
	p := paper.QuestionPaper{
		Title: "Mock Test",
		Sections: []paper.Section{
			{Name: "Physics", Questions: []paper.Question{
				{Question: "p1", Options: paper.Options{"1 N", "2 N"}, Answer: "2 N"},
				{Question: "p2", Options: paper.Options{"x", "y", "z"}, Answer: "c"},
				{Question: "p3", Options: paper.Options{"x", "y"}, Answer: "1"},
			}},
			{Name: "Chemistry", Questions: []paper.Question{
				{Question: "c1", Options: paper.Options{"H2O", "CO2"}, Answer: "co2"},
				{Question: "c2"},
			}},
		},
	}
	return paper.Prepare(paper.Flatten(p), paper.PrepareOptions{})
}

func TestAnswerKey_Assemble(t *testing.T) {
	ak := newAnswerKey(t)
	meta := paper.Metadata{Title: "Mock Test", GeneratedAt: time.Now()}

	data, err := ak.Assemble(context.Background(), meta, fiveQuestionsTwoSubjects())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{excel.SheetName}, f.GetSheetList())

	rows, err := f.GetRows(excel.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2+5) // title + header + one row per question

	assert.Equal(t, "Mock Test", rows[0][0])
	assert.Equal(t, []string{"Subject", "Question No.", "Answer"}, rows[1])

	wantSubjects := []string{"Physics", "Physics", "Physics", "Chemistry", "Chemistry"}
	wantAnswers := []string{"B", "C", "A", "B", "-"}
	for i, row := range rows[2:] {
		require.Len(t, row, 3)
		assert.Equal(t, wantSubjects[i], row[0])
		assert.Equal(t, strconv.Itoa(i+1), row[1])
		assert.Equal(t, wantAnswers[i], row[2])
	}

	merged, err := f.GetMergeCells(excel.SheetName)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "C1", merged[0].GetEndAxis())

	for col, want := range map[string]float64{"A": 24, "B": 14, "C": 12} {
		width, err := f.GetColWidth(excel.SheetName, col)
		require.NoError(t, err)
		assert.InDelta(t, want, width, 0.01, col)
	}

	styleID, err := f.GetCellStyle(excel.SheetName, "B2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, "center", style.Alignment.Horizontal)
	assert.Len(t, style.Border, 4)
}

func TestAnswerKey_Assemble_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnswerKey(t).Assemble(ctx, paper.Metadata{Title: "x"}, fiveQuestionsTwoSubjects())
	assert.ErrorIs(t, err, context.Canceled)
}
