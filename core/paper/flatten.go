package paper

import (
	"strconv"
	"strings"
	"unicode"
)

const DefaultSubject = "General"

// Flatten lists the questions of `p` in print order: the paper's own questions first,
// then every section depth-first. Questions are numbered 1..N.
// A question's subject is its own, else the nearest section's subject (or name),
// else the paper's subject, else DefaultSubject.
func Flatten(p QuestionPaper) []FlatQuestion {
	flat := make([]FlatQuestion, 0, len(p.Questions))
	paperSubject := firstNonBlank(p.Subject, DefaultSubject)

	add := func(q Question, section, subject string) {
		flat = append(flat, FlatQuestion{
			Number:   len(flat) + 1,
			Subject:  firstNonBlank(q.Subject, subject),
			Section:  section,
			Question: q,
		})
	}

	for _, q := range p.Questions {
		add(q, "", paperSubject)
	}

	var walk func(sections []Section, inherited string)
	walk = func(sections []Section, inherited string) {
		for _, s := range sections {
			subject := firstNonBlank(s.Subject, s.Name, inherited)
			for _, q := range s.Questions {
				add(q, strings.TrimSpace(s.Name), subject)
			}
			walk(s.Sections, subject)
		}
	}
	walk(p.Sections, paperSubject)

	return flat
}

// Subjects returns the distinct subjects of `questions` in order of first appearance.
func Subjects(questions []FlatQuestion) []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, q := range questions {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			subjects = append(subjects, q.Subject)
		}
	}
	return subjects
}

// AnswerLetter resolves the answer of a multiple choice question to its option letter.
// The answer is looked up, in order, as an option text (exact then case-insensitive),
// a single option letter, then a 1-based option number. Anything else is returned trimmed.
func AnswerLetter(answer string, options []string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" || len(options) == 0 {
		return answer
	}

	for i, opt := range options {
		if strings.TrimSpace(opt) == answer {
			return OptionLetter(i)
		}
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), answer) {
			return OptionLetter(i)
		}
	}

	letter := strings.TrimSuffix(strings.TrimPrefix(answer, "("), ")")
	if r := []rune(letter); len(r) == 1 && unicode.IsLetter(r[0]) {
		if idx := int(unicode.ToUpper(r[0]) - 'A'); idx >= 0 && idx < len(options) {
			return OptionLetter(idx)
		}
	}

	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return OptionLetter(n - 1)
	}
	return answer
}

// OptionLetter returns the letter of the option at index `i` ("A" for 0).
func OptionLetter(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return OptionLetter(i/26-1) + string(rune('A'+i%26))
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
