package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/medicos-drona/drona-frontend-sub001/apps/api/echo"
	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	"github.com/medicos-drona/drona-frontend-sub001/services/backend"
	"github.com/medicos-drona/drona-frontend-sub001/services/excel"
	logsvc "github.com/medicos-drona/drona-frontend-sub001/services/logger"
	"github.com/medicos-drona/drona-frontend-sub001/services/pdf"
	inmemcache "github.com/medicos-drona/drona-frontend-sub001/storage/cache/inmem"
	rediscache "github.com/medicos-drona/drona-frontend-sub001/storage/cache/redis"
	"github.com/medicos-drona/drona-frontend-sub001/storage/database"
	dummydb "github.com/medicos-drona/drona-frontend-sub001/storage/database/dummy"
	sqlxrepos "github.com/medicos-drona/drona-frontend-sub001/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB returns nil when no database is configured: the history is then kept in memory.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Name == "" {
		loggerParam.Logger.Warn("no database configured, export history is kept in memory")
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(context.Background(), conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
	}
	return db
}

func newRepository(db *sqlx.DB) (paper.Repository, error) {
	if db != nil {
		return sqlxrepos.NewExportRepository(db), nil
	}
	mem, err := dummydb.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening in-memory database")
	}
	return dummydb.NewExportRepository(mem), nil
}

// newCache prefers Redis and falls back to process memory when it is not configured or unreachable.
func newCache(conf *core.Config, logger core.Logger) paper.DocumentCache {
	if conf.Redis.Addr != "" {
		client, err := rediscache.NewClient(context.Background(), conf)
		if err == nil {
			return rediscache.New(client, conf.Cache.TTL)
		}
		logger.Warn("redis unavailable, caching documents in memory", err)
	}
	return inmemcache.New(conf.Cache.TTL)
}

func newPaperSource(conf *core.Config, logger core.Logger) (paper.PaperSource, error) {
	return backend.NewClient(conf.Backend.BaseURL, conf.Backend.Timeout, logger)
}

func newAssemblers(conf *core.Config, logger core.Logger) (map[paper.Kind]paper.Assembler, error) {
	questions, err := pdf.NewQuestions(logger, pdf.ConfigOptions(conf)...)
	if err != nil {
		return nil, err
	}
	solutions, err := pdf.NewSolutions(logger, pdf.ConfigOptions(conf)...)
	if err != nil {
		return nil, err
	}
	answerKey, err := excel.NewAnswerKey(logger)
	if err != nil {
		return nil, err
	}
	return map[paper.Kind]paper.Assembler{
		paper.KindQuestionsPDF: questions,
		paper.KindSolutionsPDF: solutions,
		paper.KindAnswersExcel: answerKey,
	}, nil
}

func newExportService(
	conf *core.Config,
	logger core.Logger,
	assemblers map[paper.Kind]paper.Assembler,
	repo paper.Repository,
	source paper.PaperSource,
	cache paper.DocumentCache,
) (paper.ServiceInterface, error) {
	return paper.NewService(assemblers, repo, source, logger,
		paper.WithCache(cache),
		paper.WithMaxImages(conf.Images.MaxPerField),
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newServerDeps(
	conf *core.Config,
	logger core.Logger,
	svc paper.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		ExportSvc:  svc,
		Validate:   validate,
		Translator: translator,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepository))
	must(c.Provide(newCache))
	must(c.Provide(newPaperSource))
	must(c.Provide(newAssemblers))
	must(c.Provide(newExportService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
