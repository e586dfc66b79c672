package feed

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
)

var (
	_ catalog.Source = (*FileSource)(nil)
	_ catalog.Source = (*HTTPSource)(nil)
)

// maxFeedSize bounds the decompressed size of a feed document.
const maxFeedSize = 64 << 20

// FileSource reads the feed from a local file. Paths ending in ".gz" are
// gunzipped.
type FileSource struct {
	path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the watched file path.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and decodes the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.path)
	}
	defer func() { _ = f.Close() }()

	r, closeFn, err := maybeGunzip(f, s.path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return Decode(io.LimitReader(r, maxFeedSize))
}

// HTTPSource fetches the feed from an HTTP endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource returns an HTTPSource for url using an instrumented client.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Fetch requests the feed document and decodes the response body.
func (s *HTTPSource) Fetch(ctx context.Context) ([]product.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", s.url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get %s: unexpected status %s", s.url, resp.Status)
	}

	r, closeFn, err := maybeGunzip(resp.Body, req.URL.Path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return Decode(io.LimitReader(r, maxFeedSize))
}

// maybeGunzip wraps r in a gzip reader when name has a ".gz" suffix.
func maybeGunzip(r io.Reader, name string) (io.Reader, func(), error) {
	if !strings.HasSuffix(name, ".gz") {
		return r, func() {}, nil
	}
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create gzip reader for %s", name)
	}
	return gz, func() { _ = gz.Close() }, nil
}
