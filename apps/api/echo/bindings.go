package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindQueryFilter reads the history filter from the query string.
// Dates are RFC 3339 timestamps or plain YYYY-MM-DD days (created_to then covers the whole day).
func bindQueryFilter(ctx echo.Context) (paper.QueryFilter, error) {
	q := ctx.QueryParams()
	filter := paper.QueryFilter{
		Search:    q.Get("search"),
		Kinds:     q["kind"],
		PaperID:   q.Get("paper_id"),
		CreatedBy: q.Get("created_by"),
	}

	var fields []core.FieldError
	var err error
	if filter.CreatedFrom, err = parseDate(q.Get("created_from"), false); err != nil {
		fields = append(fields, core.FieldError{Field: "created_from", Error: errInvalidQueryFilter})
	}
	if filter.CreatedTo, err = parseDate(q.Get("created_to"), true); err != nil {
		fields = append(fields, core.FieldError{Field: "created_to", Error: errInvalidQueryFilter})
	}
	if len(fields) > 0 {
		return paper.QueryFilter{}, core.NewValidationError(nil, fields...)
	}
	return filter, nil
}

func parseDate(val string, endOfDay bool) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
