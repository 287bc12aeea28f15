package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp     = errors.New("help provided")
	errTerminal = errors.New("refusing to write a binary document to a terminal, use -out FILE")
)

type commandLine struct {
	svc        paper.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	openDB     func() (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stderr, "Usage:")
	fmt.Fprintln(cli.stderr, "  questions-pdf|solutions-pdf|answers-excel -in FILE|-id PAPER_ID [-out FILE] [-filename NAME] [-watermark TEXT]")
	fmt.Fprintln(cli.stderr, "                      - export a question paper read from a JSON/YAML file or fetched from the backend")
	fmt.Fprintln(cli.stderr, "  preview -in FILE    - print the prepared questions as JSON")
	fmt.Fprintln(cli.stderr, "  kinds               - list the export kinds")
	fmt.Fprintln(cli.stderr, "  migrate COMMAND     - run a database migration command (up, down, status, version, redo, reset...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "kinds":
		return cli.kinds()
	case "preview":
		return cli.preview(args[2:])
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		if kind := paper.Kind(args[1]); kind.Valid() {
			return cli.export(kind, args[2:])
		}
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) kinds() error {
	for _, kind := range paper.Kinds() {
		fmt.Fprintf(cli.stdout, "%-14s %s\n", kind, kind.ContentType())
	}
	return nil
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.stderr)
	return fs
}

// parse maps -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// describe turns validation errors into one readable line.
func (cli *commandLine) describe(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, verr := range verrs {
			msgs = append(msgs, verr.Field()+": "+verr.Translate(cli.translator))
		}
		sort.Strings(msgs)
		return fmt.Errorf("invalid paper: %s", strings.Join(msgs, "; "))
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Errorf("invalid paper: %s", strings.Join(vErr.Messages(), "; "))
	}
	return err
}
