package pdf

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core/images"
	"github.com/medicos-drona/drona-frontend-sub001/core/latex"
)

func render(text string) string {
	return latex.Render(text)
}

// register loads `img` into the document once. Images that cannot be loaded are logged and skipped.
func (d *document) register(img images.Image) (registered, bool) {
	if reg, ok := d.registry[img.Src]; ok {
		return reg, reg.name != ""
	}

	reg, err := d.load(img)
	if err != nil {
		d.log.Warn("skipping question image", err, map[string]interface{}{"image": img.ID, "src": shorten(img.Src)})
		d.registry[img.Src] = registered{} // do not retry
		return registered{}, false
	}
	d.registry[img.Src] = reg
	return reg, true
}

func (d *document) load(img images.Image) (registered, error) {
	var data []byte
	var err error
	if img.IsDataURL() {
		data, _, err = img.Decode()
	} else {
		data, _, err = d.fetcher.Fetch(d.ctx, img.Src)
	}
	if err != nil {
		return registered{}, err
	}

	// fpdf's errors are sticky, check the data before handing it over
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return registered{}, errors.Wrap(err, "decoding image")
	}
	typ := images.Extension("image/" + format)
	if typ == "" {
		return registered{}, errors.Errorf("unsupported image format %q", format)
	}

	name := "img" + strconv.Itoa(len(d.registry)+1)
	info := d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return registered{}, errors.Wrap(err, "registering image")
	}
	return registered{name: name, w: info.Width(), h: info.Height()}, nil
}

func shorten(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return strings.TrimSpace(src)
}
