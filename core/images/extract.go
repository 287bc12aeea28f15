// Package images pulls embedded images out of question texts.
package images

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMaxImages = 20
	MaxImagesCeiling = 100

	// MinBase64Len is the shortest base64 payload accepted as an image.
	// Shorter runs are ordinary tokens (ids, hashes, words).
	MinBase64Len = 100
)

var (
	htmlImgRegex  = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	htmlSrcRegex  = regexp.MustCompile(`(?is)\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)
	htmlAltRegex  = regexp.MustCompile(`(?is)\balt\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)
	mdImgRegex    = regexp.MustCompile(`!\[([^\]]*)\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	dataURLRegex  = regexp.MustCompile(`data:image/([a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/]+={0,2})`)
	rawRunRegex   = regexp.MustCompile(`[A-Za-z0-9+/]{100,}={0,2}`)
	urlRegex      = regexp.MustCompile(`(?i)https?://[^\s"'<>()\[\]]+?\.(?:png|jpe?g|gif|webp|svg|bmp)(?:\?[^\s"'<>()\[\]]*)?`)
	brokenB64Rgx  = regexp.MustCompile(`(?:iVBORw0KGgo|/9j/|R0lGOD|UklGR|PHN2Zy)[A-Za-z0-9+/]*(?:\s+[A-Za-z0-9+/]{16,})+={0,2}`)
	blanksRegex   = regexp.MustCompile(`[ \t]{2,}`)
	newlinesRegex = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	spaceRegex    = regexp.MustCompile(`\s+`)

	// base64 prefixes of the file signatures we accept
	signatures = []struct {
		prefix string
		mime   string
	}{
		{prefix: "iVBORw0KGgo", mime: "image/png"},
		{prefix: "/9j/", mime: "image/jpeg"},
		{prefix: "R0lGOD", mime: "image/gif"},
		{prefix: "UklGR", mime: "image/webp"},
		{prefix: "PHN2Zy", mime: "image/svg+xml"},
	}
)

type (
	Image struct {
		ID  string `json:"id"`
		Src string `json:"src"` // data URL or http(s) URL
		Alt string `json:"alt"`
	}

	Result struct {
		CleanText string  `json:"clean_text"`
		Images    []Image `json:"images"`
		// Dropped counts images removed from the text beyond the cap.
		Dropped int `json:"dropped,omitempty"`
		// Unresolved counts image tags whose source could not be used. Their alt text stays in CleanText.
		Unresolved int `json:"unresolved,omitempty"`
	}

	Option func(*extractor)

	extractor struct {
		max      int
		assets   map[string]string
		idPrefix string
		result   Result
	}
)

// Limit clamps an image cap to 1..MaxImagesCeiling. Unset caps give DefaultMaxImages.
func Limit(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxImages
	case n > MaxImagesCeiling:
		return MaxImagesCeiling
	default:
		return n
	}
}

// WithMaxImages caps the number of returned images. Values outside 1..MaxImagesCeiling are clamped.
func WithMaxImages(n int) Option {
	return func(e *extractor) {
		e.max = Limit(n)
	}
}

// WithAssets resolves image references by name (eg. `![](diagram-1)`).
func WithAssets(assets map[string]string) Option {
	return func(e *extractor) {
		e.assets = assets
	}
}

// WithIDPrefix prefixes image IDs, eg. "q1-" gives "q1-img-1".
func WithIDPrefix(prefix string) Option {
	return func(e *extractor) {
		e.idPrefix = prefix
	}
}

// Extract removes the images embedded in `text` and returns them with the remaining text.
// Candidates are scanned in order: HTML <img> tags, Markdown images, data URLs,
// raw base64 runs, external image URLs, then line-broken base64 runs.
func Extract(text string, opts ...Option) Result {
	e := &extractor{max: DefaultMaxImages}
	for _, opt := range opts {
		opt(e)
	}
	if text == "" {
		return Result{Images: []Image{}}
	}

	text = htmlImgRegex.ReplaceAllStringFunc(text, e.htmlTag)
	text = mdImgRegex.ReplaceAllStringFunc(text, e.markdown)
	text = dataURLRegex.ReplaceAllStringFunc(text, e.dataURL)
	text = rawRunRegex.ReplaceAllStringFunc(text, e.rawRun)
	text = urlRegex.ReplaceAllStringFunc(text, e.url)
	text = brokenB64Rgx.ReplaceAllStringFunc(text, e.brokenRun)

	e.result.CleanText = cleanText(text)
	if e.result.Images == nil {
		e.result.Images = []Image{}
	}
	return e.result
}

func (e *extractor) add(src, alt string) {
	if len(e.result.Images) >= e.max {
		e.result.Dropped++
		return
	}
	id := e.idPrefix + "img-" + strconv.Itoa(len(e.result.Images)+1)
	e.result.Images = append(e.result.Images, Image{ID: id, Src: src, Alt: strings.TrimSpace(alt)})
}

// htmlTag always removes the tag; it is kept as an image only when its source resolves.
func (e *extractor) htmlTag(tag string) string {
	src := firstGroup(htmlSrcRegex.FindStringSubmatch(tag))
	alt := firstGroup(htmlAltRegex.FindStringSubmatch(tag))
	return e.reference(src, alt)
}

func (e *extractor) markdown(match string) string {
	groups := mdImgRegex.FindStringSubmatch(match)
	return e.reference(groups[2], groups[1])
}

// reference adds the image behind `src`, or leaves `alt` in the text when `src` cannot be used.
func (e *extractor) reference(src, alt string) string {
	if resolved, ok := e.resolve(src); ok {
		e.add(resolved, alt)
		return " "
	}
	e.result.Unresolved++
	if alt = strings.TrimSpace(alt); alt != "" {
		return " " + alt + " "
	}
	return " "
}

func (e *extractor) dataURL(match string) string {
	groups := dataURLRegex.FindStringSubmatch(match)
	payload, ok := repairBase64(groups[2])
	if !ok {
		return match
	}
	e.add("data:image/"+strings.ToLower(groups[1])+";base64,"+payload, "")
	return " "
}

func (e *extractor) rawRun(run string) string {
	offset, mime := findSignature(run)
	if offset < 0 {
		return run
	}
	payload, ok := repairBase64(run[offset:])
	if !ok {
		return run
	}
	e.add("data:"+mime+";base64,"+payload, "")
	return run[:offset] + " "
}

func (e *extractor) url(u string) string {
	e.add(u, "")
	return " "
}

func (e *extractor) brokenRun(run string) string {
	joined := spaceRegex.ReplaceAllString(run, "")
	_, mime := findSignature(joined)
	payload, ok := repairBase64(joined)
	if !ok {
		return run
	}
	e.add("data:"+mime+";base64,"+payload, "")
	return " "
}

// resolve turns an image reference into a usable source.
func (e *extractor) resolve(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	if asset, ok := e.assets[src]; ok && asset != "" {
		return asset, true
	}
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return src, true
	case strings.HasPrefix(lower, "data:image/"):
		groups := dataURLRegex.FindStringSubmatch(spaceRegex.ReplaceAllString(src, ""))
		if groups == nil {
			return "", false
		}
		payload, ok := repairBase64(groups[2])
		if !ok {
			return "", false
		}
		return "data:image/" + strings.ToLower(groups[1]) + ";base64," + payload, true
	}
	return "", false
}

// repairBase64 validates a base64 payload, fixing a truncated tail or missing padding.
func repairBase64(s string) (string, bool) {
	s = strings.TrimRight(s, "=")
	if len(s) < MinBase64Len {
		return "", false
	}
	if len(s)%4 == 1 { // a lone trailing sextet cannot encode a byte
		s = s[:len(s)-1]
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return "", false
	}
	return s, true
}

// findSignature returns the offset of the first known image signature in `run`.
func findSignature(run string) (int, string) {
	offset, mime := -1, ""
	for _, sig := range signatures {
		if i := strings.Index(run, sig.prefix); i >= 0 && (offset < 0 || i < offset) {
			offset, mime = i, sig.mime
		}
	}
	if offset >= 0 && len(run)-offset < MinBase64Len {
		return -1, ""
	}
	return offset, mime
}

func firstGroup(groups []string) string {
	for _, g := range groups[min(1, len(groups)):] {
		if g != "" {
			return g
		}
	}
	return ""
}

func cleanText(text string) string {
	text = blanksRegex.ReplaceAllString(text, " ")
	text = newlinesRegex.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
