// Package pdf assembles the question and solution PDFs of a question paper.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/images"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

const (
	margin       = 15.0 // mm
	footerHeight = 12.0
	maxImageW    = 90.0
	maxImageH    = 65.0
	logoH        = 16.0
	optionIndent = 6.0

	defaultFamily = "Helvetica"
	utf8Family    = "PaperFont"
)

type (
	Assembler struct {
		solutions bool
		fontPath  string
		fetcher   Fetcher
		compress  bool
		log       core.Logger
	}

	Option func(*Assembler)
)

var _ paper.Assembler = (*Assembler)(nil)

// WithFont embeds the TrueType font at `path`, needed to print non cp1252 text (math symbols).
func WithFont(path string) Option {
	return func(a *Assembler) { a.fontPath = path }
}

// WithFetcher downloads remote images. Without it remote images are skipped.
func WithFetcher(f Fetcher) Option {
	return func(a *Assembler) { a.fetcher = f }
}

// WithoutCompression leaves page streams readable.
func WithoutCompression() Option {
	return func(a *Assembler) { a.compress = false }
}

// ConfigOptions returns the options matching `conf`.
func ConfigOptions(conf *core.Config) []Option {
	opts := []Option{WithFont(conf.PDF.FontPath)}
	if conf.Images.FetchRemote {
		opts = append(opts, WithFetcher(NewHTTPFetcher(conf.Images.FetchTimeout, conf.Images.MaxBytes)))
	}
	return opts
}

// NewQuestions returns the assembler of the questions-only paper.
func NewQuestions(logger core.Logger, opts ...Option) (*Assembler, error) {
	return newAssembler(false, logger, opts)
}

// NewSolutions returns the assembler of the paper with answers, explanations, steps and hints.
func NewSolutions(logger core.Logger, opts ...Option) (*Assembler, error) {
	return newAssembler(true, logger, opts)
}

func newAssembler(solutions bool, logger core.Logger, opts []Option) (*Assembler, error) {
	if err := vala.BeginValidation().Validate(
		core.IsSet(logger, "logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "creating pdf assembler")
	}
	a := &Assembler{solutions: solutions, fetcher: noFetcher{}, compress: true, log: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Assembler) Assemble(ctx context.Context, meta paper.Metadata, questions []paper.PreparedQuestion) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.newDocument(ctx, meta)
	if err != nil {
		return nil, err
	}
	doc.header(meta, len(questions), a.solutions)

	var subject string
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(meta.Subjects) > 1 && q.Subject != subject {
			subject = q.Subject
			doc.subjectHeading(subject)
		}
		if q.Dropped > 0 || q.Unresolved > 0 {
			a.log.Info("question images left out", map[string]interface{}{
				"question": q.Number, "dropped": q.Dropped, "unresolved": q.Unresolved,
			})
		}
		doc.question(q)
		if a.solutions {
			doc.solution(q)
		}
		doc.pdf.Ln(4)
	}

	if err := doc.pdf.Error(); err != nil {
		return nil, errors.Wrap(err, "laying out pdf")
	}
	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}

	data := buf.Bytes()
	if meta.Watermark != "" {
		if data, err = Watermark(data, meta.Watermark); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// document is the state of one Assemble call.
type document struct {
	ctx      context.Context
	pdf      *fpdf.Fpdf
	family   string
	tr       func(string) string
	width    float64 // printable width
	fetcher  Fetcher
	log      core.Logger
	registry map[string]registered // by source
}

type registered struct {
	name string
	w, h float64
}

func (a *Assembler) newDocument(ctx context.Context, meta paper.Metadata) (*document, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+footerHeight/2)
	pdf.SetCompression(a.compress)
	pdf.AliasNbPages("{nb}")

	doc := &document{
		ctx:      ctx,
		pdf:      pdf,
		family:   defaultFamily,
		fetcher:  a.fetcher,
		log:      a.log,
		registry: make(map[string]registered),
	}
	pageW, _ := pdf.GetPageSize()
	doc.width = pageW - 2*margin

	if a.fontPath != "" {
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8Font(utf8Family, style, a.fontPath)
		}
		if err := pdf.Error(); err != nil {
			return nil, errors.Wrapf(err, "loading font %q", a.fontPath)
		}
		doc.family = utf8Family
		doc.tr = func(s string) string { return s }
	} else {
		cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
		doc.tr = func(s string) string { return cp1252(coreFontFallbacks.Replace(s)) }
	}

	pdf.SetTitle(meta.Title, true)
	pdf.SetSubject(strings.Join(meta.Subjects, ", "), true)
	pdf.SetAuthor(meta.College.Name, true)
	pdf.SetCreator("drona exporter", true)
	if !meta.GeneratedAt.IsZero() {
		pdf.SetCreationDate(meta.GeneratedAt)
		pdf.SetModificationDate(meta.GeneratedAt)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerHeight)
		pdf.SetFont(doc.family, "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	return doc, nil
}

func (d *document) header(meta paper.Metadata, count int, solutions bool) {
	pdf := d.pdf
	if logo := meta.College.Logo; logo != "" {
		if img, ok := d.register(images.Image{ID: "logo", Src: logo}); ok {
			w, h := fit(img.w, img.h, maxImageW, logoH)
			pdf.ImageOptions(img.name, margin+(d.width-w)/2, pdf.GetY(), w, h, true, fpdf.ImageOptions{}, 0, "")
			pdf.Ln(2)
		}
	}
	if name := meta.College.Name; name != "" {
		d.centered("B", 14, name)
	}
	if addr := meta.College.Address; addr != "" {
		d.centered("", 9, addr)
	}
	pdf.Ln(2)

	d.centered("B", 16, meta.Title)
	if solutions {
		d.centered("I", 11, "Answers and Solutions")
	}

	var info []string
	if meta.Duration != "" {
		info = append(info, "Duration: "+withUnit(meta.Duration, "min"))
	}
	if meta.TotalMarks != "" {
		info = append(info, "Total Marks: "+meta.TotalMarks)
	}
	info = append(info, "Questions: "+strconv.Itoa(count))
	d.centered("", 10, strings.Join(info, "   |   "))
	if len(meta.Subjects) > 1 {
		d.centered("", 10, "Subjects: "+strings.Join(meta.Subjects, ", "))
	}

	if meta.Description != "" {
		pdf.Ln(2)
		d.block("", 10, render(meta.Description), 0)
	}
	if len(meta.Instructions) > 0 {
		pdf.Ln(2)
		d.block("B", 10, "Instructions:", 0)
		for i, ins := range meta.Instructions {
			d.block("", 10, fmt.Sprintf("%d. %s", i+1, render(ins)), optionIndent)
		}
	}

	pdf.Ln(3)
	y := pdf.GetY()
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(margin, y, margin+d.width, y)
	pdf.Ln(5)
}

func (d *document) subjectHeading(subject string) {
	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "B", 12)
	d.pdf.SetFillColor(235, 235, 235)
	d.pdf.CellFormat(0, 8, d.tr(subject), "", 1, "L", true, 0, "")
	d.pdf.Ln(2)
}

func (d *document) question(q paper.PreparedQuestion) {
	pdf := d.pdf
	lh := lineHeight(11)

	pdf.SetFont(d.family, "B", 11)
	pdf.Write(lh, d.tr(fmt.Sprintf("Q%d. ", q.Number)))
	pdf.SetFont(d.family, "", 11)
	pdf.Write(lh, d.tr(render(q.Question.Text)))
	if q.Marks > 0 {
		pdf.SetFont(d.family, "I", 9)
		pdf.Write(lh, d.tr(" ["+marks(q.Marks)+"]"))
	}
	pdf.Ln(lh + 1)
	d.drawImages(q.Question.Images, 0)

	for _, opt := range q.Options {
		d.block("", 11, fmt.Sprintf("(%s) %s", opt.Letter, render(opt.Text.Text)), optionIndent)
		d.drawImages(opt.Images, optionIndent*2)
	}
}

func (d *document) solution(q paper.PreparedQuestion) {
	pdf := d.pdf
	pdf.Ln(1)

	answer := "-"
	switch {
	case q.AnswerText != "":
		answer = fmt.Sprintf("(%s) %s", q.Answer, render(q.AnswerText))
	case q.Answer != "" && len(q.Options) > 0:
		answer = "(" + q.Answer + ")"
	case q.Answer != "":
		answer = render(q.Answer)
	}
	pdf.SetTextColor(0, 100, 0)
	d.block("B", 11, "Answer: "+answer, optionIndent)
	pdf.SetTextColor(0, 0, 0)

	if q.FinalAnswer != "" {
		d.block("", 10, "Final answer: "+render(q.FinalAnswer), optionIndent)
	}
	if q.Explanation != nil {
		d.block("B", 10, "Explanation:", optionIndent)
		d.block("", 10, render(q.Explanation.Text), optionIndent)
		d.drawImages(q.Explanation.Images, optionIndent)
	}
	if len(q.Steps) > 0 {
		d.block("B", 10, "Steps:", optionIndent)
		for i, step := range q.Steps {
			d.block("", 10, fmt.Sprintf("%d. %s", i+1, render(step.Text)), optionIndent*2)
			d.drawImages(step.Images, optionIndent*2)
		}
	}
	if len(q.Hints) > 0 {
		d.block("B", 10, "Hints:", optionIndent)
		for _, hint := range q.Hints {
			d.block("", 10, "• "+render(hint.Text), optionIndent*2)
			d.drawImages(hint.Images, optionIndent*2)
		}
	}
}

// block writes a wrapped paragraph indented by `indent` mm.
func (d *document) block(style string, size float64, text string, indent float64) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.pdf.SetFont(d.family, style, size)
	d.pdf.SetX(margin + indent)
	d.pdf.MultiCell(d.width-indent, lineHeight(size), d.tr(text), "", "L", false)
}

func (d *document) centered(style string, size float64, text string) {
	d.pdf.SetFont(d.family, style, size)
	d.pdf.MultiCell(0, lineHeight(size), d.tr(text), "", "C", false)
}

func (d *document) drawImages(imgs []images.Image, indent float64) {
	for _, img := range imgs {
		reg, ok := d.register(img)
		if !ok {
			continue
		}
		w, h := fit(reg.w, reg.h, maxImageW, maxImageH)
		// flowing mode breaks the page when the image does not fit
		d.pdf.ImageOptions(reg.name, margin+indent, 0, w, h, true, fpdf.ImageOptions{}, 0, "")
		d.pdf.Ln(2)
	}
}

func lineHeight(size float64) float64 {
	return size * 0.5
}

func fit(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := 1.0
	if s := maxW / w; s < scale {
		scale = s
	}
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

func withUnit(val, unit string) string {
	if _, err := strconv.ParseFloat(val, 64); err == nil {
		return val + " " + unit
	}
	return val
}

func marks(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if m == 1 {
		return s + " mark"
	}
	return s + " marks"
}
