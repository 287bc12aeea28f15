package latex

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// $$..$$ | \[..\] | \(..\) | $..$
	mathSegmentRegex = regexp.MustCompile(`\$\$([\s\S]+?)\$\$|\\\[([\s\S]+?)\\\]|\\\(([\s\S]+?)\\\)|\$([^$\n]+?)\$`)
	macroRegex       = regexp.MustCompile(`\\[A-Za-z]+`)
	spacesRegex      = regexp.MustCompile(`[ \t]{2,}`)

	symbols = map[string]string{
		// greek
		"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε", "varepsilon": "ε",
		"zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ", "iota": "ι", "kappa": "κ",
		"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "varpi": "ϖ", "rho": "ρ",
		"sigma": "σ", "varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "φ", "varphi": "φ",
		"chi": "χ", "psi": "ψ", "omega": "ω",
		"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ", "Pi": "Π",
		"Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",

		// operators
		"times": "×", "div": "÷", "pm": "±", "mp": "∓", "cdot": "·", "ast": "∗", "star": "⋆",
		"circ": "∘", "bullet": "•", "oplus": "⊕", "otimes": "⊗",
		"sum": "∑", "prod": "∏", "int": "∫", "iint": "∬", "oint": "∮",
		"partial": "∂", "nabla": "∇", "infty": "∞", "propto": "∝",

		// relations
		"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
		"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅",
		"ll": "≪", "gg": "≫", "in": "∈", "notin": "∉", "ni": "∋",
		"subset": "⊂", "subseteq": "⊆", "supset": "⊃", "supseteq": "⊇",
		"cup": "∪", "cap": "∩", "emptyset": "∅", "varnothing": "∅",
		"forall": "∀", "exists": "∃", "neg": "¬", "lnot": "¬", "wedge": "∧", "land": "∧",
		"vee": "∨", "lor": "∨", "perp": "⊥", "parallel": "∥", "mid": "∣",

		// arrows
		"rightarrow": "→", "to": "→", "leftarrow": "←", "gets": "←",
		"Rightarrow": "⇒", "implies": "⇒", "Leftarrow": "⇐", "leftrightarrow": "↔",
		"Leftrightarrow": "⇔", "iff": "⇔", "uparrow": "↑", "downarrow": "↓",
		"longrightarrow": "⟶", "longleftarrow": "⟵", "rightleftharpoons": "⇌",
		"mapsto": "↦",

		// misc
		"angle": "∠", "triangle": "△", "square": "□", "degree": "°", "prime": "′",
		"ldots": "…", "dots": "…", "cdots": "⋯", "vdots": "⋮", "therefore": "∴",
		"because": "∵", "hbar": "ℏ", "ell": "ℓ", "Re": "ℜ", "Im": "ℑ", "aleph": "ℵ",
		"langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋", "lceil": "⌈", "rceil": "⌉",
		"quad": "  ", "qquad": "    ",
	}

	// commands rendered as their argument
	wrappers = map[string]bool{
		"text": true, "mathrm": true, "mathbf": true, "mathit": true, "mathsf": true,
		"mathtt": true, "textbf": true, "textit": true, "textrm": true, "mbox": true,
		"operatorname": true, "boldsymbol": true, "mathbb": true, "mathcal": true,
	}

	// commands dropped entirely
	ignored = map[string]bool{
		"left": true, "right": true, "displaystyle": true, "textstyle": true,
		"limits": true, "nolimits": true, "big": true, "Big": true, "bigg": true, "Bigg": true,
		"bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
	}

	accents = map[string]rune{
		"vec": '\u20d7', "bar": '\u0305', "overline": '\u0305', "hat": '\u0302', "widehat": '\u0302',
		"dot": '\u0307', "ddot": '\u0308', "tilde": '\u0303', "widetilde": '\u0303',
	}

	superscripts = map[rune]rune{
		'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
		'+': '⁺', '-': '⁻', '−': '⁻', '=': '⁼', '(': '⁽', ')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ',
		'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ', 'k': 'ᵏ', 'm': 'ᵐ', 't': 'ᵗ', 'T': 'ᵀ',
	}

	subscripts = map[rune]rune{
		'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
		'+': '₊', '-': '₋', '−': '₋', '=': '₌', '(': '₍', ')': '₎',
		'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'i': 'ᵢ', 'j': 'ⱼ', 'n': 'ₙ', 'm': 'ₘ', 'k': 'ₖ',
		'p': 'ₚ', 'r': 'ᵣ', 's': 'ₛ', 't': 'ₜ',
	}
)

// Render replaces every math segment of `text` ($..$, $$..$$, \(..\), \[..\]) by its
// plain-text Unicode approximation. Known macros outside math segments are replaced too.
func Render(text string) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range mathSegmentRegex.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(renderMacros(text[last:loc[0]]))
		for g := 1; g <= 4; g++ {
			if start := loc[2*g]; start >= 0 {
				b.WriteString(RenderExpr(text[start:loc[2*g+1]]))
				break
			}
		}
		last = loc[1]
	}
	b.WriteString(renderMacros(text[last:]))
	return b.String()
}

// renderMacros only touches backslash commands, prose keeps its `^` and `_`.
func renderMacros(text string) string {
	if !macroRegex.MatchString(text) {
		return text
	}
	return (&converter{src: []rune(text), prose: true}).run()
}

// RenderExpr converts a bare LaTeX math expression to plain text.
func RenderExpr(expr string) string {
	out := (&converter{src: []rune(expr)}).run()
	out = spacesRegex.ReplaceAllString(out, " ")
	return norm.NFC.String(strings.TrimSpace(out))
}

type converter struct {
	src   []rune
	pos   int
	prose bool
}

func (c *converter) run() string {
	var b strings.Builder
	for c.pos < len(c.src) {
		r := c.src[c.pos]
		switch {
		case r == '\\':
			b.WriteString(c.command())
		case (r == '^' || r == '_') && !c.prose:
			c.pos++
			arg := c.arg()
			if r == '^' {
				b.WriteString(superscript(arg))
			} else {
				b.WriteString(subscript(arg))
			}
		case r == '{' && !c.prose:
			c.pos++
			b.WriteString(c.sub(c.group()))
		case r == '}' && !c.prose:
			c.pos++
		case r == '~' && !c.prose:
			b.WriteRune(' ')
			c.pos++
		default:
			b.WriteRune(r)
			c.pos++
		}
	}
	return b.String()
}

// sub converts a nested expression with the same mode.
func (c *converter) sub(s string) string {
	return (&converter{src: []rune(s), prose: c.prose}).run()
}

// command consumes a backslash command at c.pos and returns its rendering.
func (c *converter) command() string {
	c.pos++ // drop `\`
	if c.pos >= len(c.src) {
		return `\`
	}
	r := c.src[c.pos]
	if !isLetter(r) {
		c.pos++
		switch r {
		case ',', ':', ';', ' ', '\\':
			return " "
		case '!':
			return ""
		default: // \{ \} \% \$ \& \# \_
			return string(r)
		}
	}

	start := c.pos
	for c.pos < len(c.src) && isLetter(c.src[c.pos]) {
		c.pos++
	}
	name := string(c.src[start:c.pos])

	switch {
	case name == "frac" || name == "dfrac" || name == "tfrac" || name == "cfrac":
		num := c.sub(c.arg())
		den := c.sub(c.arg())
		return fraction(num, den)
	case name == "sqrt":
		var index string
		if c.peek() == '[' {
			c.pos++
			index = c.until(']')
		}
		radicand := c.sub(c.arg())
		root := "√"
		switch strings.TrimSpace(index) {
		case "":
		case "3":
			root = "∛"
		case "4":
			root = "∜"
		default:
			root = superscript(index) + "√"
		}
		return root + wrap(radicand)
	case wrappers[name]:
		return c.sub(c.arg())
	case ignored[name]:
		return ""
	}

	if mark, ok := accents[name]; ok {
		return accent(c.sub(c.arg()), mark, name == "overline" || name == "bar")
	}
	if sym, ok := symbols[name]; ok {
		return sym
	}
	// unknown commands (sin, log, lim..) keep their name
	return name
}

// arg reads one macro argument: a braced group, a command or a single rune.
func (c *converter) arg() string {
	for c.pos < len(c.src) && c.src[c.pos] == ' ' {
		c.pos++
	}
	if c.pos >= len(c.src) {
		return ""
	}
	switch r := c.src[c.pos]; {
	case r == '{':
		c.pos++
		return c.group()
	case r == '\\':
		start := c.pos
		c.pos++
		for c.pos < len(c.src) && isLetter(c.src[c.pos]) {
			c.pos++
		}
		if c.pos == start+1 && c.pos < len(c.src) {
			c.pos++
		}
		return string(c.src[start:c.pos])
	default:
		c.pos++
		return string(r)
	}
}

// group returns the content up to the brace closing the one just consumed.
func (c *converter) group() string {
	depth := 1
	start := c.pos
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case '\\':
			c.pos++ // skip escaped rune
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s := string(c.src[start:c.pos])
				c.pos++
				return s
			}
		}
		c.pos++
	}
	return string(c.src[start:]) // unbalanced: take the rest
}

func (c *converter) until(end rune) string {
	start := c.pos
	for c.pos < len(c.src) && c.src[c.pos] != end {
		c.pos++
	}
	s := string(c.src[start:c.pos])
	if c.pos < len(c.src) {
		c.pos++
	}
	return s
}

func (c *converter) peek() rune {
	if c.pos < len(c.src) {
		return c.src[c.pos]
	}
	return 0
}

func fraction(num, den string) string {
	num, den = strings.TrimSpace(num), strings.TrimSpace(den)
	return wrap(num) + "/" + wrap(den)
}

// wrap parenthesizes compound expressions.
func wrap(s string) string {
	s = strings.TrimSpace(s)
	if isAtom(s) {
		return s
	}
	return "(" + s + ")"
}

func isAtom(s string) bool {
	runes := []rune(s)
	if len(runes) <= 1 {
		return true
	}
	if runes[0] == '(' && runes[len(runes)-1] == ')' && closingParen(runes) == len(runes)-1 {
		return true
	}
	for _, r := range runes {
		if !(isAlnum(r) || r == '.' || unicode.Is(unicode.Mn, r)) {
			return false
		}
	}
	return true
}

// closingParen returns the index of the paren closing runes[0].
func closingParen(runes []rune) int {
	depth := 0
	for i, r := range runes {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func superscript(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case `\circ`, "∘", `\degree`:
		return "°"
	case `\prime`, "'":
		return "′"
	}
	rendered := RenderExpr(s)
	if mapped, ok := mapRunes(rendered, superscripts); ok {
		return mapped
	}
	return "^" + wrap(rendered)
}

func subscript(s string) string {
	rendered := RenderExpr(strings.TrimSpace(s))
	if mapped, ok := mapRunes(rendered, subscripts); ok {
		return mapped
	}
	return "_" + wrap(rendered)
}

func mapRunes(s string, table map[rune]rune) (string, bool) {
	if s == "" {
		return "", true
	}
	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			return "", false
		}
		b.WriteRune(m)
	}
	return b.String(), true
}

func accent(s string, mark rune, everyRune bool) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range runes {
		b.WriteRune(r)
		if everyRune || i == len(runes)-1 {
			b.WriteRune(mark)
		}
	}
	return norm.NFC.String(b.String())
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
