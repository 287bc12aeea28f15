package paper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core"
)

var (
	// errors
	ErrNotFound     = errors.New("question paper not found")
	ErrUnauthorized = errors.New("not authorized to access this question paper")
	ErrNoQuestions  = errors.New("at least one question is required")
	ErrUnknownKind  = errors.New("unknown export kind")
)

type (
	// Metadata is the paper information printed around the questions.
	Metadata struct {
		Title        string
		Description  string
		Duration     string
		TotalMarks   string
		Subject      string
		Subjects     []string
		Instructions []string
		College      College
		Watermark    string
		GeneratedAt  time.Time
	}

	// Assembler turns prepared questions into a document of one Kind.
	Assembler interface {
		Assemble(ctx context.Context, meta Metadata, questions []PreparedQuestion) ([]byte, error)
	}

	DocumentCache interface {
		Get(ctx context.Context, key string) (data []byte, found bool, err error)
		Set(ctx context.Context, key string, data []byte) error
	}

	Repository interface {
		CreateExport(ctx context.Context, rec ExportRecord) (ExportRecord, error)
		// QueryExports applies AND operation on available QueryFilter fields, newest first by default.
		QueryExports(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]ExportRecord, error)
	}

	// PaperSource fetches papers from the external backend on behalf of the token holder.
	PaperSource interface {
		GetPaper(ctx context.Context, id, token string) (QuestionPaper, error)
	}

	Document struct {
		Filename    string
		ContentType string
		Data        []byte
		Cached      bool
	}

	Preview struct {
		Title     string             `json:"title"`
		Subjects  []string           `json:"subjects"`
		Questions []PreparedQuestion `json:"questions"`
	}

	ServiceInterface interface {
		Export(ctx context.Context, kind Kind, req ExportRequest, actor core.Person) (Document, error)
		ExportByID(ctx context.Context, kind Kind, paperID string, opts ExportOptions, token string, actor core.Person) (Document, error)
		Preview(ctx context.Context, req ExportRequest) (Preview, error)
		History(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]ExportRecord, error)
	}

	Service struct {
		assemblers map[Kind]Assembler
		cache      DocumentCache
		repo       Repository
		source     PaperSource
		log        core.Logger
		maxImages  int
		now        func() time.Time
	}

	ServiceOption func(*Service)
)

var _ ServiceInterface = (*Service)(nil)

// WithCache enables the document cache. Without it every export is assembled.
func WithCache(cache DocumentCache) ServiceOption {
	return func(svc *Service) { svc.cache = cache }
}

func WithMaxImages(n int) ServiceOption {
	return func(svc *Service) { svc.maxImages = n }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.now = now }
}

func NewService(
	assemblers map[Kind]Assembler,
	repo Repository,
	source PaperSource,
	logger core.Logger,
	opts ...ServiceOption,
) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(assemblers, "assemblers"),
		core.IsSet(repo, "repo"),
		core.IsSet(source, "source"),
		core.IsSet(logger, "logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "creating paper service")
	}

	svc := &Service{
		assemblers: assemblers,
		repo:       repo,
		source:     source,
		log:        logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (svc *Service) Export(ctx context.Context, kind Kind, req ExportRequest, actor core.Person) (Document, error) {
	asm, ok := svc.assemblers[kind]
	if !ok {
		return Document{}, errors.Wrap(ErrUnknownKind, string(kind))
	}
	flat := Flatten(req.QuestionPaper)
	if len(flat) == 0 {
		return Document{}, noQuestionsError()
	}

	doc := Document{
		Filename:    kind.Filename(req.Filename, req.Title),
		ContentType: kind.ContentType(),
	}

	key, err := CacheKey(kind, req)
	if err != nil {
		return Document{}, errors.Wrap(err, "computing cache key")
	}
	if svc.cache != nil {
		data, found, err := svc.cache.Get(ctx, key)
		if err != nil {
			svc.log.Warn("document cache lookup failed", err, map[string]interface{}{"key": key})
		} else if found {
			doc.Data, doc.Cached = data, true
		}
	}

	if !doc.Cached {
		prepared := Prepare(flat, PrepareOptions{MaxImages: svc.maxImages, Assets: req.Assets})
		data, err := asm.Assemble(ctx, svc.metadata(req, flat), prepared)
		if err != nil {
			return Document{}, errors.Wrapf(err, "assembling %s", kind)
		}
		doc.Data = data
		if svc.cache != nil {
			if err := svc.cache.Set(ctx, key, data); err != nil {
				svc.log.Warn("document cache store failed", err, map[string]interface{}{"key": key})
			}
		}
	}

	rec := ExportRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     req.Title,
		Filename:  doc.Filename,
		PaperID:   string(req.ID),
		Questions: len(flat),
		Size:      len(doc.Data),
		Cached:    doc.Cached,
		CreatedBy: actor.Username,
		CreatedAt: svc.now().UTC(),
	}
	if _, err := svc.repo.CreateExport(ctx, rec); err != nil {
		// the document is still returned
		svc.log.Error("recording export", errors.Wrap(err, "creating export record"), actor)
	}
	return doc, nil
}

func (svc *Service) ExportByID(
	ctx context.Context,
	kind Kind,
	paperID string,
	opts ExportOptions,
	token string,
	actor core.Person,
) (Document, error) {
	p, err := svc.source.GetPaper(ctx, paperID, token)
	if err != nil {
		return Document{}, errors.Wrapf(err, "fetching paper %q", paperID)
	}
	if p.ID == "" {
		p.ID = FlexString(paperID)
	}
	req := ExportRequest{QuestionPaper: p, ExportOptions: opts}
	return svc.Export(ctx, kind, req, actor)
}

func (svc *Service) Preview(_ context.Context, req ExportRequest) (Preview, error) {
	flat := Flatten(req.QuestionPaper)
	if len(flat) == 0 {
		return Preview{}, noQuestionsError()
	}
	return Preview{
		Title:     req.Title,
		Subjects:  Subjects(flat),
		Questions: Prepare(flat, PrepareOptions{MaxImages: svc.maxImages, Assets: req.Assets}),
	}, nil
}

func (svc *Service) History(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]ExportRecord, error) {
	filter.Clean()
	return svc.repo.QueryExports(ctx, filter, orderings...)
}

func (svc *Service) metadata(req ExportRequest, flat []FlatQuestion) Metadata {
	meta := Metadata{
		Title:        core.CleanString(req.Title),
		Description:  core.CleanString(req.Description),
		Duration:     core.CleanString(string(req.Duration)),
		TotalMarks:   core.CleanString(string(req.TotalMarks)),
		Subject:      core.CleanString(req.Subject),
		Subjects:     Subjects(flat),
		Instructions: req.Instructions,
		Watermark:    core.CleanString(req.Watermark),
		GeneratedAt:  svc.now(),
	}
	if req.College != nil {
		meta.College = *req.College
	}
	return meta
}

// CacheKey identifies the document built for `req`. Identical requests give identical keys.
func CacheKey(kind Kind, req ExportRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(data)
	return "export:" + string(kind) + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func noQuestionsError() error {
	return core.NewFieldError("questions", ErrNoQuestions)
}
