// Package excel assembles the answer key workbook of a question paper.
package excel

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

const (
	SheetName = "Answer Key"

	titleRow  = 1
	headerRow = 2
	firstRow  = 3
)

var (
	headers = []string{"Subject", "Question No.", "Answer"}
	widths  = []float64{24, 14, 12}

	thinBorders = []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
)

// AnswerKey writes one row per question: subject, question number and answer letter.
type AnswerKey struct {
	log core.Logger
}

var _ paper.Assembler = (*AnswerKey)(nil)

func NewAnswerKey(logger core.Logger) (*AnswerKey, error) {
	if err := vala.BeginValidation().Validate(
		core.IsSet(logger, "logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "creating answer key assembler")
	}
	return &AnswerKey{log: logger}, nil
}

func (ak *AnswerKey) Assemble(ctx context.Context, meta paper.Metadata, questions []paper.PreparedQuestion) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			ak.log.Warn("closing workbook", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   meta.Title,
		Subject: "Answer Key",
		Creator: meta.College.Name,
		Created: meta.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return nil, errors.Wrap(err, "setting document properties")
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeTitle(f, meta.Title, styles.title); err != nil {
		return nil, err
	}
	if err := writeHeader(f, styles.header); err != nil {
		return nil, err
	}
	for i, q := range questions {
		if err := writeRow(f, firstRow+i, q, styles.cell); err != nil {
			return nil, errors.Wrapf(err, "writing question %d", q.Number)
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, errors.Wrap(err, "setting column width")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

type styleIDs struct {
	title, header, cell int
}

func newStyles(f *excelize.File) (styleIDs, error) {
	var ids styleIDs
	var err error

	ids.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return ids, errors.Wrap(err, "creating title style")
	}

	ids.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Border:    thinBorders,
	})
	if err != nil {
		return ids, errors.Wrap(err, "creating header style")
	}

	ids.cell, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders,
	})
	if err != nil {
		return ids, errors.Wrap(err, "creating cell style")
	}
	return ids, nil
}

func writeTitle(f *excelize.File, title string, style int) error {
	last := cellName(len(headers), titleRow)
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return errors.Wrap(err, "writing title")
	}
	if err := f.MergeCell(SheetName, "A1", last); err != nil {
		return errors.Wrap(err, "merging title cells")
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return errors.Wrap(err, "styling title")
	}
	return errors.Wrap(f.SetRowHeight(SheetName, titleRow, 24), "sizing title row")
}

func writeHeader(f *excelize.File, style int) error {
	for i, h := range headers {
		if err := f.SetCellValue(SheetName, cellName(i+1, headerRow), h); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}
	return errors.Wrap(
		f.SetCellStyle(SheetName, cellName(1, headerRow), cellName(len(headers), headerRow), style),
		"styling header",
	)
}

func writeRow(f *excelize.File, row int, q paper.PreparedQuestion, style int) error {
	answer := q.Answer
	if answer == "" {
		answer = "-"
	}
	values := []interface{}{q.Subject, q.Number, answer}
	for i, v := range values {
		if err := f.SetCellValue(SheetName, cellName(i+1, row), v); err != nil {
			return err
		}
	}
	return f.SetCellStyle(SheetName, cellName(1, row), cellName(len(values), row), style)
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil { // col and row are always >= 1
		panic(fmt.Sprintf("invalid cell coordinates (%d, %d): %v", col, row, err))
	}
	return name
}
