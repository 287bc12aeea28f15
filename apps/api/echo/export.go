package echoapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

const headerExportCached = "X-Export-Cached"

type exportApi struct {
	svc      paper.ServiceInterface
	validate *validator.Validate
}

func registerExportAPI(
	g *echo.Group,
	auth echo.MiddlewareFunc,
	authRequired bool,
	svc paper.ServiceInterface,
	validate *validator.Validate,
) {
	api := exportApi{svc: svc, validate: validate}

	ag := g.Group("", auth)
	for _, kind := range paper.Kinds() {
		ag.POST("/exports/"+string(kind), api.export(kind))
	}
	ag.POST("/papers/:id/exports/:kind", api.exportByID)
	ag.POST("/papers/preview", api.preview)

	var historyMw []echo.MiddlewareFunc
	if authRequired {
		historyMw = append(historyMw, roleMiddleware(RoleAdmin))
	}
	ag.GET("/exports", api.history, historyMw...)
}

// Handlers

func (api *exportApi) export(kind paper.Kind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var req paper.ExportRequest
		if err := ctx.Bind(&req); err != nil {
			return errors.Wrap(err, "binding to ExportRequest")
		}
		if err := req.Validate(api.validate); err != nil {
			return err
		}

		doc, err := api.svc.Export(ctx.Request().Context(), kind, req, contextPerson(ctx))
		if err != nil {
			return errors.Wrapf(err, "exporting %s", kind)
		}
		return sendDocument(ctx, doc)
	}
}

func (api *exportApi) exportByID(ctx echo.Context) error {
	kind := paper.Kind(ctx.Param("kind"))
	if !kind.Valid() {
		return errUnknownExportKind
	}

	var opts paper.ExportOptions
	if err := ctx.Bind(&opts); err != nil {
		return errors.Wrap(err, "binding to ExportOptions")
	}
	// options may also come from the query string
	if opts.Filename == "" {
		opts.Filename = ctx.QueryParam("filename")
	}
	if opts.Watermark == "" {
		opts.Watermark = ctx.QueryParam("watermark")
	}
	if err := opts.Validate(api.validate); err != nil {
		return err
	}

	doc, err := api.svc.ExportByID(
		ctx.Request().Context(), kind, ctx.Param("id"), opts, bearerToken(ctx), contextPerson(ctx),
	)
	if err != nil {
		return errors.Wrapf(err, "exporting paper %q as %s", ctx.Param("id"), kind)
	}
	return sendDocument(ctx, doc)
}

func (api *exportApi) preview(ctx echo.Context) error {
	var req paper.ExportRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to ExportRequest")
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	preview, err := api.svc.Preview(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "previewing paper")
	}
	return ctx.JSON(http.StatusOK, preview)
}

func (api *exportApi) history(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.History(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying exports")
	}
	if records == nil {
		records = []paper.ExportRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func sendDocument(ctx echo.Context, doc paper.Document) error {
	header := ctx.Response().Header()
	header.Set(echo.HeaderContentDisposition, contentDisposition(doc.Filename))
	header.Set(headerExportCached, strconv.FormatBool(doc.Cached))
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Data)
}

// contentDisposition quotes an ASCII fallback of `filename` and adds the RFC 5987 form for other names.
func contentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)

	value := `attachment; filename="` + ascii + `"`
	if ascii != filename {
		value += "; filename*=UTF-8''" + url.PathEscape(filename)
	}
	return value
}
