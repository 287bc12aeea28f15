// Package latex repairs and approximates the LaTeX found in question texts.
package latex

import (
	"regexp"
	"strings"
)

type literalFix struct {
	old, new string
}

type regexFix struct {
	re   *regexp.Regexp
	repl string
	// skip, when set, leaves the match starting at `start` untouched.
	skip func(text string, start int) bool
}

func (f regexFix) apply(text string) string {
	if f.skip == nil {
		return f.re.ReplaceAllString(text, f.repl)
	}
	locs := f.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if f.skip(text, loc[0]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.Write(f.re.ExpandString(nil, f.repl, text, loc))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// afterMacroName reports whether the match at `start` follows a backslash or a letter (`\frac`, `\dfrac`).
func afterMacroName(text string, start int) bool {
	if start == 0 {
		return false
	}
	c := text[start-1]
	return c == '\\' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Order matters: most specific patterns first, general ones last.
var (
	literalFixes = []literalFix{
		// `\f` eaten as a form feed by a JSON or JS string literal
		{old: "\\\f" + "rac{", new: `\frac{`},
		{old: "\f" + "rac{", new: `\frac{`},
		{old: `\\frac{`, new: `\frac{`},
		{old: `\f rac{`, new: `\frac{`},
		{old: `\frac {`, new: `\frac{`},
	}

	regexFixes = []regexFix{
		// backslash kept, `f` lost
		{re: regexp.MustCompile(`\\rac\s*\{`), repl: `\frac{`},
		// backslash lost
		{re: regexp.MustCompile(`frac\s*\{`), repl: `\frac{`, skip: afterMacroName},
		// `\frac12` shorthand
		{re: regexp.MustCompile(`\\frac\s*([0-9A-Za-z])\s*([0-9A-Za-z])`), repl: `\frac{${1}}{${2}}`},
	}
)

// FixFractions rewrites the known corrupted forms of the `\frac` macro into `\frac{..}{..}`.
// Text without a corrupted macro is returned unchanged.
func FixFractions(text string) string {
	if text == "" {
		return text
	}
	for _, fix := range literalFixes {
		text = strings.ReplaceAll(text, fix.old, fix.new)
	}
	for _, fix := range regexFixes {
		text = fix.apply(text)
	}
	return text
}
