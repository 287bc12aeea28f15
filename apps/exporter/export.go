package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	"github.com/medicos-drona/drona-frontend-sub001/services/pdf"
)

func (cli *commandLine) export(kind paper.Kind, args []string) error {
	fs := cli.newFlagSet(string(kind))
	in := fs.String("in", "", "The paper file (JSON or YAML), - for stdin.")
	id := fs.String("id", "", "The ID of a paper to fetch from the backend instead.")
	token := fs.String("token", os.Getenv("DRONA_TOKEN"), "The backend token, defaults to $DRONA_TOKEN.")
	out := fs.String("out", "", "The output file or directory, - for stdout. Defaults to the document name.")
	filename := fs.String("filename", "", "The document name.")
	watermark := fs.String("watermark", "", "A text stamped across every page (PDF only).")
	if err := parse(fs, args); err != nil {
		return err
	}
	if (*in == "") == (*id == "") {
		fs.Usage()
		return errHelp
	}
	if *out == "-" && cli.stdoutIsTerminal() {
		return errTerminal
	}

	ctx := context.Background()
	opts := paper.ExportOptions{Filename: *filename, Watermark: *watermark}
	actor := core.Person{Username: os.Getenv("USER")}

	var doc paper.Document
	var err error
	if *id != "" {
		if err = opts.Validate(cli.validate); err != nil {
			return cli.describe(err)
		}
		doc, err = cli.svc.ExportByID(ctx, kind, *id, opts, *token, actor)
	} else {
		var req paper.ExportRequest
		if req, err = cli.readRequest(*in); err != nil {
			return err
		}
		if *filename != "" {
			req.Filename = *filename
		}
		if *watermark != "" {
			req.Watermark = *watermark
		}
		if err = req.Validate(cli.validate); err != nil {
			return cli.describe(err)
		}
		doc, err = cli.svc.Export(ctx, kind, req, actor)
	}
	if err != nil {
		return cli.describe(err)
	}

	return cli.write(doc, *out)
}

func (cli *commandLine) write(doc paper.Document, out string) error {
	if out == "-" {
		_, err := cli.stdout.Write(doc.Data)
		return errors.Wrap(err, "writing document")
	}

	path := out
	if path == "" {
		path = doc.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, doc.Filename)
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return errors.Wrap(err, "writing document")
	}

	summary := fmt.Sprintf("wrote %s (%d bytes", path, len(doc.Data))
	if doc.ContentType == paper.ContentTypePDF {
		if pages, err := pdf.PageCount(doc.Data); err == nil {
			summary += fmt.Sprintf(", pages: %d", pages)
		}
	}
	fmt.Fprintln(cli.stdout, summary+")")
	return nil
}

func (cli *commandLine) preview(args []string) error {
	fs := cli.newFlagSet("preview")
	in := fs.String("in", "", "The paper file (JSON or YAML), - for stdin.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errHelp
	}

	req, err := cli.readRequest(*in)
	if err != nil {
		return err
	}
	if err = req.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	preview, err := cli.svc.Preview(context.Background(), req)
	if err != nil {
		return cli.describe(err)
	}

	enc := json.NewEncoder(cli.stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(preview), "writing preview")
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func (cli *commandLine) stdoutIsTerminal() bool {
	f, ok := cli.stdout.(interface{ Fd() uintptr })
	return ok && isTerminalFunc(int(f.Fd()))
}
