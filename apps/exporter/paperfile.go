package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

// readRequest decodes a paper from a JSON or YAML file, "-" being stdin.
func (cli *commandLine) readRequest(path string) (paper.ExportRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cli.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return paper.ExportRequest{}, errors.Wrap(err, "reading paper")
	}

	var req paper.ExportRequest
	if isYAML(path, data) {
		if data, err = yamlToJSON(data); err != nil {
			return paper.ExportRequest{}, errors.Wrapf(err, "decoding %s", path)
		}
	}
	if err = json.Unmarshal(data, &req); err != nil {
		return paper.ExportRequest{}, errors.Wrapf(err, "decoding %s", path)
	}
	return req, nil
}

func isYAML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] != '{'
}

// yamlToJSON lets the JSON decoders of the paper types read YAML documents.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(doc))
}

func stringKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = stringKeys(item)
		}
		return val
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = stringKeys(item)
		}
		return m
	case []interface{}:
		for i, item := range val {
			val[i] = stringKeys(item)
		}
		return val
	}
	return v
}
