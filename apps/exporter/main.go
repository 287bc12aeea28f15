package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	"github.com/medicos-drona/drona-frontend-sub001/services/backend"
	"github.com/medicos-drona/drona-frontend-sub001/services/excel"
	logsvc "github.com/medicos-drona/drona-frontend-sub001/services/logger"
	"github.com/medicos-drona/drona-frontend-sub001/services/pdf"
	"github.com/medicos-drona/drona-frontend-sub001/storage/database"
	dummydb "github.com/medicos-drona/drona-frontend-sub001/storage/database/dummy"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "EXPORTER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Wait()

	svc, err := newExportService(conf, logger)
	if err != nil {
		logger.Fatal("setting up export service", err)
	}

	translator := newTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)

	cli := commandLine{
		svc:        svc,
		validate:   validate,
		translator: translator,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		openDB: func() (*sql.DB, error) {
			db, err := database.Open(context.Background(), conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("exporter failed", err)
		}
		logger.Wait()
		os.Exit(1)
	}
}

func newExportService(conf *core.Config, logger core.Logger) (paper.ServiceInterface, error) {
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
	source, err := backend.NewClient(conf.Backend.BaseURL, conf.Backend.Timeout, logger)
	if err != nil {
		return nil, err
	}
	// the history of offline exports is not kept
	db, err := dummydb.Open()
	if err != nil {
		return nil, err
	}

	return paper.NewService(
		map[paper.Kind]paper.Assembler{
			paper.KindQuestionsPDF: questions,
			paper.KindSolutionsPDF: solutions,
			paper.KindAnswersExcel: answerKey,
		},
		dummydb.NewExportRepository(db),
		source,
		logger,
		paper.WithMaxImages(conf.Images.MaxPerField),
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
