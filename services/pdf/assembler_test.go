package pdf_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	logsvc "github.com/medicos-drona/drona-frontend-sub001/services/logger"
	"github.com/medicos-drona/drona-frontend-sub001/services/pdf"
	"github.com/medicos-drona/drona-frontend-sub001/tests"
)

func pdfTestLogger() core.Logger {
	conf := &core.Config{Env: "TEST", TestMode: true}
	return logsvc.NewRollbarLogger(log.New(GinkgoWriter, "[pdf-test] ", 0), conf)
}

func preparedPaper(p paper.QuestionPaper) (paper.Metadata, []paper.PreparedQuestion) {
	flat := paper.Flatten(p)
	meta := paper.Metadata{
		Title:        p.Title,
		Duration:     string(p.Duration),
		TotalMarks:   string(p.TotalMarks),
		Subjects:     paper.Subjects(flat),
		Instructions: p.Instructions,
		GeneratedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if p.College != nil {
		meta.College = *p.College
	}
	return meta, paper.Prepare(flat, paper.PrepareOptions{})
}

var _ = Describe("PDF Assembler", func() {
	var (
		ctx    context.Context
		logger core.Logger
		sample paper.QuestionPaper
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = pdfTestLogger()
		sample = paper.QuestionPaper{
			Title:        "Physics Unit Test",
			Duration:     "45",
			TotalMarks:   "8",
			Instructions: []string{"Answer all questions."},
			College:      &paper.College{Name: "Drona Academy", Logo: testutil.DecodablePNGDataURL(60, 20)},
			Questions: []paper.Question{
				{
					Question: `The SI unit of force is \text{?} <img src="` + testutil.DecodablePNGDataURL(40, 30) + `">`,
					Options:  paper.Options{"Newton", "Joule"},
					Answer:   "Newton",
					Solution: &paper.Solution{Explanation: `$F = ma$ so $\frac{kg \cdot m}{s^2}$`, Steps: []string{"Recall F = ma"}},
					Hints:    []string{"Think of apples."},
					Marks:    4,
				},
				{Question: "Work done is $W = Fd$.", Options: paper.Options{"True", "False"}, Answer: "a", Marks: 4},
			},
		}
	})

	Context("questions paper", func() {
		It("should produce a single A4 page for a short paper", func() {
			asm, err := pdf.NewQuestions(logger, pdf.WithoutCompression())
			Expect(err).NotTo(HaveOccurred())

			meta, questions := preparedPaper(sample)
			data, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())
			Expect(bytes.HasPrefix(data, []byte("%PDF-"))).To(BeTrue())

			pages, err := pdf.PageCount(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(Equal(1))

			Expect(string(data)).To(ContainSubstring("Physics Unit Test"))
			Expect(string(data)).To(ContainSubstring("Q1."))
			Expect(string(data)).To(ContainSubstring("Q2."))
			Expect(string(data)).To(ContainSubstring("Page 1 of 1"))
			Expect(string(data)).NotTo(ContainSubstring("Answer:"))
			Expect(string(data)).To(ContainSubstring("/Subtype /Image"))
		})

		It("should paginate long papers", func() {
			gofakeit.Seed(7)
			long := paper.QuestionPaper{Title: "Long"}
			for i := 0; i < 80; i++ {
				long.Questions = append(long.Questions, paper.Question{
					Question: gofakeit.Paragraph(1, 3, 12, " "),
					Options:  paper.Options{gofakeit.Word(), gofakeit.Word(), gofakeit.Word(), gofakeit.Word()},
				})
			}

			asm, err := pdf.NewQuestions(logger)
			Expect(err).NotTo(HaveOccurred())
			meta, questions := preparedPaper(long)
			data, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())

			pages, err := pdf.PageCount(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(BeNumerically(">", 1))
		})

		It("should group questions by subject headings", func() {
			multi := paper.QuestionPaper{
				Title: "Mock",
				Sections: []paper.Section{
					{Name: "Physics", Questions: []paper.Question{{Question: "p1"}}},
					{Name: "Chemistry", Questions: []paper.Question{{Question: "c1"}}},
				},
			}
			asm, err := pdf.NewQuestions(logger, pdf.WithoutCompression())
			Expect(err).NotTo(HaveOccurred())
			meta, questions := preparedPaper(multi)
			data, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("Subjects: Physics, Chemistry"))
		})

		It("should stop when the context is canceled", func() {
			asm, err := pdf.NewQuestions(logger)
			Expect(err).NotTo(HaveOccurred())
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			meta, questions := preparedPaper(sample)
			_, err = asm.Assemble(canceled, meta, questions)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Context("solutions paper", func() {
		It("should print answers, explanations, steps and hints", func() {
			asm, err := pdf.NewSolutions(logger, pdf.WithoutCompression())
			Expect(err).NotTo(HaveOccurred())

			meta, questions := preparedPaper(sample)
			data, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())

			content := string(data)
			Expect(content).To(ContainSubstring("Answers and Solutions"))
			Expect(content).To(ContainSubstring("Answer: "))
			Expect(content).To(ContainSubstring("Explanation:"))
			Expect(content).To(ContainSubstring("Steps:"))
			Expect(content).To(ContainSubstring("Hints:"))
			Expect(content).To(ContainSubstring("F = ma"))
		})
	})

	Context("images", func() {
		var server *httptest.Server

		BeforeEach(func() {
			png := testutil.DecodablePNG(30, 30)
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/ok.png":
					w.Header().Set("Content-Type", "image/png")
					_, _ = w.Write(png)
				case "/page.png":
					w.Header().Set("Content-Type", "text/html")
					_, _ = w.Write([]byte("<html></html>"))
				default:
					http.NotFound(w, r)
				}
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("should embed fetched images and skip broken ones", func() {
			withImages := paper.QuestionPaper{
				Title: "Images",
				Questions: []paper.Question{{
					Question:  "Identify the shape",
					ImageURLs: []string{server.URL + "/ok.png", server.URL + "/missing.png", server.URL + "/page.png"},
				}, {
					Question: "Broken ![x](data:image/png;base64," + strings.Repeat("iVBORw0KGgoAAAA", 10) + ")",
				}},
			}

			asm, err := pdf.NewQuestions(logger,
				pdf.WithoutCompression(),
				pdf.WithFetcher(pdf.NewHTTPFetcher(time.Second, 1<<20)),
			)
			Expect(err).NotTo(HaveOccurred())

			meta, questions := preparedPaper(withImages)
			data, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Count(string(data), "/Subtype /Image")).To(Equal(1))
		})

		It("should reject images over the size limit", func() {
			fetcher := pdf.NewHTTPFetcher(time.Second, 10)
			_, _, err := fetcher.Fetch(ctx, server.URL+"/ok.png")
			Expect(err).To(MatchError(pdf.ErrImageTooLarge))

			_, _, err = pdf.NewHTTPFetcher(time.Second, 0).Fetch(ctx, server.URL+"/page.png")
			Expect(err).To(MatchError(pdf.ErrNotAnImage))
		})
	})

	Context("watermark", func() {
		It("should stamp every page and keep the page count", func() {
			asm, err := pdf.NewQuestions(logger)
			Expect(err).NotTo(HaveOccurred())

			meta, questions := preparedPaper(sample)
			plain, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())

			meta.Watermark = "DRAFT"
			stamped, err := asm.Assemble(ctx, meta, questions)
			Expect(err).NotTo(HaveOccurred())
			Expect(stamped).NotTo(Equal(plain))

			pages, err := pdf.PageCount(stamped)
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(Equal(1))
		})
	})

	It("should fail on a missing font file", func() {
		asm, err := pdf.NewQuestions(logger, pdf.WithFont("/nonexistent/font.ttf"))
		Expect(err).NotTo(HaveOccurred())

		meta, questions := preparedPaper(sample)
		_, err = asm.Assemble(ctx, meta, questions)
		Expect(err).To(HaveOccurred())
	})
})
