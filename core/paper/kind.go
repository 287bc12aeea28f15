package paper

import (
	"strings"

	"github.com/medicos-drona/drona-frontend-sub001/core"
)

// Kind is one of the downloadable documents of a paper.
type Kind string

const (
	KindQuestionsPDF Kind = "questions-pdf"
	KindSolutionsPDF Kind = "solutions-pdf"
	KindAnswersExcel Kind = "answers-excel"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var kindList = []Kind{KindQuestionsPDF, KindSolutionsPDF, KindAnswersExcel}

func Kinds() []Kind {
	return append([]Kind(nil), kindList...)
}

func (k Kind) Valid() bool {
	for _, kind := range kindList {
		if k == kind {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) ContentType() string {
	if k == KindAnswersExcel {
		return ContentTypeXLSX
	}
	return ContentTypePDF
}

func (k Kind) Extension() string {
	if k == KindAnswersExcel {
		return ".xlsx"
	}
	return ".pdf"
}

// Filename returns `requested` or a name derived from `title`, always ending with the kind's extension.
func (k Kind) Filename(requested, title string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = core.Slugify(title, "-")
		if name == "" {
			name = "question-paper"
		}
		switch k {
		case KindSolutionsPDF:
			name += "-solutions"
		case KindAnswersExcel:
			name += "-answer-key"
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), k.Extension()) {
		name += k.Extension()
	}
	return name
}
