package paper

import (
	"strconv"
	"strings"

	"github.com/medicos-drona/drona-frontend-sub001/core/images"
	"github.com/medicos-drona/drona-frontend-sub001/core/latex"
)

type (
	// Text is a normalized text with the images extracted from it.
	Text struct {
		Text   string         `json:"text"`
		Images []images.Image `json:"images"`
	}

	Option struct {
		Letter string `json:"letter"`
		Text
	}

	PreparedQuestion struct {
		Number      int      `json:"number"`
		ID          string   `json:"id,omitempty"`
		Subject     string   `json:"subject"`
		Section     string   `json:"section,omitempty"`
		Marks       float64  `json:"marks,omitempty"`
		Question    Text     `json:"question"`
		Options     []Option `json:"options"`
		Answer      string   `json:"answer"`                // option letter, or the raw answer
		AnswerText  string   `json:"answer_text,omitempty"` // text of the answered option
		Explanation *Text    `json:"explanation,omitempty"`
		Steps       []Text   `json:"steps,omitempty"`
		Hints       []Text   `json:"hints,omitempty"`
		FinalAnswer string   `json:"final_answer,omitempty"`
		Dropped     int      `json:"dropped_images,omitempty"`
		Unresolved  int      `json:"unresolved_images,omitempty"`
	}

	PrepareOptions struct {
		MaxImages int               // per text field
		Assets    map[string]string // named images referenced by the texts
	}
)

// AnswerLetter resolves the question's answer against its options.
func (q Question) AnswerLetter() string {
	return AnswerLetter(string(q.Answer), q.Options)
}

// HasImages reports whether any text of the question carries an image.
func (pq PreparedQuestion) HasImages() bool {
	if len(pq.Question.Images) > 0 {
		return true
	}
	for _, opt := range pq.Options {
		if len(opt.Images) > 0 {
			return true
		}
	}
	return false
}

// Prepare normalizes every text of `flat` (fraction fixes then image extraction).
// Question.ImageURLs are appended to the question's images within the same cap.
func Prepare(flat []FlatQuestion, opts PrepareOptions) []PreparedQuestion {
	prepared := make([]PreparedQuestion, 0, len(flat))
	for _, fq := range flat {
		prepared = append(prepared, prepareQuestion(fq, opts))
	}
	return prepared
}

func prepareQuestion(fq FlatQuestion, opts PrepareOptions) PreparedQuestion {
	prefix := "q" + strconv.Itoa(fq.Number) + "-"
	pq := PreparedQuestion{
		Number:  fq.Number,
		ID:      string(fq.ID),
		Subject: fq.Subject,
		Section: fq.Section,
		Marks:   fq.Marks,
		Answer:  fq.AnswerLetter(),
		Options: make([]Option, 0, len(fq.Options)),
	}

	normalize := func(s, field string) Text {
		res := images.Extract(
			latex.FixFractions(s),
			images.WithMaxImages(opts.MaxImages),
			images.WithAssets(opts.Assets),
			images.WithIDPrefix(prefix+field),
		)
		pq.Dropped += res.Dropped
		pq.Unresolved += res.Unresolved
		return Text{Text: res.CleanText, Images: res.Images}
	}

	pq.Question = normalize(fq.Question.Question, "")
	limit := images.Limit(opts.MaxImages)
	for _, u := range fq.ImageURLs {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		if len(pq.Question.Images) >= limit {
			pq.Dropped++
			continue
		}
		id := prefix + "url-" + strconv.Itoa(len(pq.Question.Images)+1)
		pq.Question.Images = append(pq.Question.Images, images.Image{ID: id, Src: u})
	}

	for i, opt := range fq.Options {
		letter := OptionLetter(i)
		pq.Options = append(pq.Options, Option{
			Letter: letter,
			Text:   normalize(opt, "opt"+strings.ToLower(letter)+"-"),
		})
		if letter == pq.Answer {
			pq.AnswerText = pq.Options[i].Text.Text
		}
	}

	for i, hint := range fq.Hints {
		pq.Hints = append(pq.Hints, normalize(hint, "hint"+strconv.Itoa(i+1)+"-"))
	}
	if sol := fq.Solution; sol != nil {
		if strings.TrimSpace(sol.Explanation) != "" {
			expl := normalize(sol.Explanation, "expl-")
			pq.Explanation = &expl
		}
		for i, step := range sol.Steps {
			pq.Steps = append(pq.Steps, normalize(step, "step"+strconv.Itoa(i+1)+"-"))
		}
		pq.FinalAnswer = strings.TrimSpace(latex.FixFractions(sol.FinalAnswer))
	}
	return pq
}
