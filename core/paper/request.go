package paper

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/medicos-drona/drona-frontend-sub001/core"
)

type (
	// ExportOptions tune the generated document, not its content.
	ExportOptions struct {
		Filename  string            `json:"filename,omitempty" query:"filename" validate:"omitempty,max=200,filename"`
		Watermark string            `json:"watermark,omitempty" query:"watermark" validate:"max=100"`
		Assets    map[string]string `json:"assets,omitempty"` // named images referenced by the texts
	}

	// ExportRequest is the payload of the export endpoints: a paper plus export options.
	ExportRequest struct {
		QuestionPaper
		ExportOptions
	}
)

// UnmarshalJSON decodes both embedded parts from the same object.
// Without it the paper's decoder would be promoted and the options lost.
func (r *ExportRequest) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.QuestionPaper); err != nil {
		return err
	}
	return json.Unmarshal(data, &r.ExportOptions)
}

func (r *ExportRequest) Validate(validate *validator.Validate) error {
	r.Title = core.CleanString(r.Title)
	r.Filename = core.CleanString(r.Filename)
	r.Watermark = core.CleanString(r.Watermark)

	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(Flatten(r.QuestionPaper)) == 0 {
		return noQuestionsError()
	}
	return nil
}

func (o *ExportOptions) Validate(validate *validator.Validate) error {
	o.Filename = core.CleanString(o.Filename)
	o.Watermark = core.CleanString(o.Watermark)
	return validate.Struct(o)
}
