package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

const watermarkDesc = "fontname:Helvetica, points:48, scalefactor:0.6 rel, opacity:0.2, fillcolor:#808080"

func init() {
	// pdfcpu would otherwise create its config dir in the user's home
	api.DisableConfigDir()
}

// Watermark stamps `text` diagonally across every page of `data`.
func Watermark(data []byte, text string) ([]byte, error) {
	wm, err := api.TextWatermark(text, watermarkDesc, true /* onTop */, false /* update */, types.POINTS)
	if err != nil {
		return nil, errors.Wrap(err, "creating watermark")
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &out, nil, wm, model.NewDefaultConfiguration()); err != nil {
		return nil, errors.Wrap(err, "adding watermark")
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	return n, errors.Wrap(err, "counting pages")
}
