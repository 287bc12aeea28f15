package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// signature followed by the length and type of the IHDR chunk
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// PNGBytes returns `size` bytes starting with the PNG signature.
func PNGBytes(size int) []byte {
	if size < len(pngHeader) {
		size = len(pngHeader)
	}
	data := make([]byte, 0, size)
	data = append(data, pngHeader...)
	body := bytes.Repeat([]byte("IDATdrona"), size/9+1)
	return append(data, body[:size-len(pngHeader)]...)
}

// PNGBase64 returns the base64 encoding of PNGBytes(size).
func PNGBase64(size int) string {
	return base64.StdEncoding.EncodeToString(PNGBytes(size))
}

// PNGDataURL returns a data URL embedding PNGBytes(size).
func PNGDataURL(size int) string {
	return "data:image/png;base64," + PNGBase64(size)
}

// DecodablePNG encodes a `w`x`h` gradient as a real PNG file.
func DecodablePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DecodablePNGDataURL returns DecodablePNG(w, h) as a data URL.
func DecodablePNGDataURL(w, h int) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(DecodablePNG(w, h))
}

// WrapLines breaks `s` every `width` runes, like MIME encoders do.
func WrapLines(s string, width int) string {
	var b strings.Builder
	for i := 0; i < len(s); i += width {
		end := i + width
		if end > len(s) {
			end = len(s)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s[i:end])
	}
	return b.String()
}

// TextEqual fails the test with a unified diff when `got` differs from `want`.
func TextEqual(t *testing.T, want, got string) bool {
	t.Helper()
	if want == got {
		return true
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("text mismatch:\n%s", diff)
	return false
}
