package paper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type (
	// FlexString accepts JSON strings, numbers and null.
	FlexString string

	// Options accepts a list of strings or a list of {text|content|value} objects.
	Options []string

	College struct {
		ID      FlexString `json:"id,omitempty"`
		Name    string     `json:"name,omitempty"`
		Logo    string     `json:"logo,omitempty"` // data URL or http(s) URL
		Address string     `json:"address,omitempty"`
	}

	Solution struct {
		Explanation string   `json:"explanation,omitempty"`
		Steps       []string `json:"steps,omitempty"`
		FinalAnswer string   `json:"finalAnswer,omitempty"`
	}

	Question struct {
		ID         FlexString `json:"id,omitempty"`
		Question   string     `json:"question"`
		Options    Options    `json:"options,omitempty"`
		Answer     FlexString `json:"answer,omitempty"`
		Solution   *Solution  `json:"solution,omitempty"`
		Hints      []string   `json:"hints,omitempty"`
		Subject    string     `json:"subject,omitempty"`
		Marks      float64    `json:"marks,omitempty"`
		Difficulty string     `json:"difficulty,omitempty"`
		ImageURLs  []string   `json:"imageUrls,omitempty"`
	}

	// Section groups questions of a multi-subject paper. Sections nest.
	Section struct {
		Name      string     `json:"name,omitempty"`
		Subject   string     `json:"subject,omitempty"`
		Questions []Question `json:"questions,omitempty"`
		Sections  []Section  `json:"sections,omitempty"`
	}

	QuestionPaper struct {
		ID           FlexString `json:"id,omitempty"`
		Title        string     `json:"title" validate:"required,notblank,max=300"`
		Description  string     `json:"description,omitempty" validate:"max=5000"`
		Duration     FlexString `json:"duration,omitempty"`   // minutes
		TotalMarks   FlexString `json:"totalMarks,omitempty"`
		Subject      string     `json:"subject,omitempty"`
		Instructions []string   `json:"instructions,omitempty"`
		College      *College   `json:"college,omitempty"`
		Status       string     `json:"status,omitempty"`
		Questions    []Question `json:"questions,omitempty"`
		Sections     []Section  `json:"sections,omitempty"`
	}

	// FlatQuestion is a question of the linear list produced by Flatten.
	FlatQuestion struct {
		Number  int
		Subject string
		Section string
		Question
	}
)

func (s FlexString) String() string {
	return string(s)
}

// Float parses the value as a number.
func (s FlexString) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	return f, err == nil
}

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
	case data[0] == '{' || data[0] == '[':
		return errors.Errorf("expected a string or a number, got %s", data)
	default: // numbers & booleans
		*s = FlexString(data)
	}
	return nil
}

func (o *Options) UnmarshalJSON(data []byte) error {
	var strs []FlexString
	if err := json.Unmarshal(data, &strs); err == nil {
		opts := make(Options, 0, len(strs))
		for _, s := range strs {
			opts = append(opts, string(s))
		}
		*o = opts
		return nil
	}

	var objs []struct {
		Text    string     `json:"text"`
		Content string     `json:"content"`
		Value   FlexString `json:"value"`
	}
	if err := json.Unmarshal(data, &objs); err != nil {
		return errors.Wrap(err, "options must be a list of strings or objects")
	}
	opts := make(Options, 0, len(objs))
	for _, obj := range objs {
		switch {
		case obj.Text != "":
			opts = append(opts, obj.Text)
		case obj.Content != "":
			opts = append(opts, obj.Content)
		default:
			opts = append(opts, string(obj.Value))
		}
	}
	*o = opts
	return nil
}

// UnmarshalJSON accepts a plain explanation string or a solution object.
func (sol *Solution) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &sol.Explanation)
	}
	type plain Solution
	return json.Unmarshal(data, (*plain)(sol))
}

// UnmarshalJSON accepts the backend's aliases: `_id`, `content`/`text` for the question
// and a top-level `explanation`.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		MongoID     FlexString `json:"_id"`
		Content     string     `json:"content"`
		Text        string     `json:"text"`
		Explanation string     `json:"explanation"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = aux.MongoID
	}
	if q.Question == "" {
		if aux.Content != "" {
			q.Question = aux.Content
		} else {
			q.Question = aux.Text
		}
	}
	if aux.Explanation != "" {
		if q.Solution == nil {
			q.Solution = new(Solution)
		}
		if q.Solution.Explanation == "" {
			q.Solution.Explanation = aux.Explanation
		}
	}
	return nil
}

// UnmarshalJSON accepts `_id`, a flat `collegeName`/`collegeLogo` branding and
// `instructions` given as a single string.
func (p *QuestionPaper) UnmarshalJSON(data []byte) error {
	type plain QuestionPaper
	aux := struct {
		*plain
		MongoID      FlexString      `json:"_id"`
		CollegeName  string          `json:"collegeName"`
		CollegeLogo  string          `json:"collegeLogo"`
		Instructions json.RawMessage `json:"instructions"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	if p.College == nil && (aux.CollegeName != "" || aux.CollegeLogo != "") {
		p.College = &College{Name: aux.CollegeName, Logo: aux.CollegeLogo}
	}

	p.Instructions = nil
	if raw := bytes.TrimSpace(aux.Instructions); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return errors.Wrap(err, "decoding instructions")
			}
			for _, line := range strings.Split(s, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					p.Instructions = append(p.Instructions, line)
				}
			}
		} else if err := json.Unmarshal(raw, &p.Instructions); err != nil {
			return errors.Wrap(err, "decoding instructions")
		}
	}
	return nil
}

// ExportRecord is the history entry written for every generated document.
type ExportRecord struct {
	ID        string    `json:"id" db:"id"`
	Kind      Kind      `json:"kind" db:"kind"`
	Title     string    `json:"title" db:"title"`
	Filename  string    `json:"filename" db:"filename"`
	PaperID   string    `json:"paper_id,omitempty" db:"paper_id"`
	Questions int       `json:"questions" db:"questions"`
	Size      int       `json:"size" db:"size"`
	Cached    bool      `json:"cached" db:"cached"`
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// QueryFilter narrows the export history. Zero fields are ignored.
type QueryFilter struct {
	Search      string    `query:"search"` // title or filename, case-insensitive
	Kinds       []string  `query:"kind"`
	PaperID     string    `query:"paper_id"`
	CreatedBy   string    `query:"created_by"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (f *QueryFilter) Clean() {
	f.Search = strings.TrimSpace(f.Search)
	f.PaperID = strings.TrimSpace(f.PaperID)
	f.CreatedBy = strings.TrimSpace(f.CreatedBy)
	kinds := f.Kinds[:0]
	for _, k := range f.Kinds {
		if Kind(k).Valid() {
			kinds = append(kinds, k)
		}
	}
	f.Kinds = kinds
}
