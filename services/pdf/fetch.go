package pdf

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrImageTooLarge = errors.New("image exceeds the size limit")
	ErrNotAnImage    = errors.New("response is not an image")
	ErrFetchDisabled = errors.New("remote images are disabled")
)

// Fetcher downloads remote images referenced by questions.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}

type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "image/png,image/jpeg,image/gif")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetching image")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("fetching image: unexpected status %d", resp.StatusCode)
	}
	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", errors.Wrap(ErrNotAnImage, mimeType)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, "", ErrImageTooLarge
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading image")
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, "", ErrImageTooLarge
	}
	return data, mimeType, nil
}

// noFetcher is used when remote images are disabled.
type noFetcher struct{}

func (noFetcher) Fetch(context.Context, string) ([]byte, string, error) {
	return nil, "", ErrFetchDisabled
}
