package images

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotDataURL = errors.New("image source is not a data URL")

// IsDataURL reports whether the image is embedded rather than hosted.
func (img Image) IsDataURL() bool {
	return strings.HasPrefix(strings.ToLower(img.Src), "data:")
}

// Decode returns the bytes and MIME type of an embedded (data URL) image.
func (img Image) Decode() ([]byte, string, error) {
	if !img.IsDataURL() {
		return nil, "", ErrNotDataURL
	}
	comma := strings.IndexByte(img.Src, ',')
	if comma < 0 {
		return nil, "", errors.Wrapf(ErrNotDataURL, "image %s has no payload", img.ID)
	}
	meta := img.Src[len("data:"):comma]
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == meta {
		return nil, "", errors.Errorf("image %s is not base64 encoded", img.ID)
	}
	data, err := base64.StdEncoding.DecodeString(img.Src[comma+1:])
	if err != nil {
		return nil, "", errors.Wrapf(err, "decoding image %s", img.ID)
	}
	return data, strings.ToLower(mime), nil
}

// Extension returns the file type of the image as understood by document writers ("PNG", "JPG"..).
// Empty when unknown.
func Extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
