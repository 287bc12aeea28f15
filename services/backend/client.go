// Package backend reads question papers from the external REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

const maxBodyBytes = 10 << 20

type Client struct {
	baseURL string
	http    *http.Client
	log     core.Logger
}

var _ paper.PaperSource = (*Client)(nil) // interface compliance check

func NewClient(baseURL string, timeout time.Duration, logger core.Logger) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(baseURL, "baseURL"),
		core.IsSet(logger, "logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "creating backend client")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "parsing backend url")
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}, log: logger}, nil
}

// GetPaper fetches the paper `id` on behalf of the `token` holder.
func (c *Client) GetPaper(ctx context.Context, id, token string) (paper.QuestionPaper, error) {
	endpoint := c.baseURL + "/question-papers/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return paper.QuestionPaper{}, errors.Wrap(err, "building paper request")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return paper.QuestionPaper{}, errors.Wrap(err, "requesting paper")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return paper.QuestionPaper{}, errors.Wrap(err, "reading paper")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return paper.QuestionPaper{}, errors.Wrapf(paper.ErrNotFound, "paper %q", id)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return paper.QuestionPaper{}, errors.Wrapf(paper.ErrUnauthorized, "paper %q", id)
	case resp.StatusCode >= 300:
		c.log.Warn("backend error", map[string]interface{}{"status": resp.StatusCode, "paper": id, "body": snippet(body)})
		return paper.QuestionPaper{}, errors.Errorf("backend responded %d for paper %q", resp.StatusCode, id)
	}

	p, err := decodePaper(body)
	if err != nil {
		return paper.QuestionPaper{}, errors.Wrapf(err, "decoding paper %q", id)
	}
	if p.ID == "" {
		p.ID = paper.FlexString(id)
	}
	return p, nil
}

// decodePaper accepts the paper itself or a `{"data": paper}` envelope.
func decodePaper(body []byte) (paper.QuestionPaper, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if raw := bytes.TrimSpace(envelope.Data); len(raw) > 0 && raw[0] == '{' {
			body = raw
		}
	}

	var p paper.QuestionPaper
	if err := json.Unmarshal(body, &p); err != nil {
		return paper.QuestionPaper{}, err
	}
	return p, nil
}

func snippet(body []byte) string {
	if len(body) > 200 {
		return string(body[:200]) + "..."
	}
	return string(body)
}
