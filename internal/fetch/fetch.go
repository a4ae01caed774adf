// Package fetch retrieves raw dataset text for the engine. The engine is
// agnostic to how text arrives; this package covers the two source shapes
// the datasets are published as: local files and raw HTTPS URLs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnavailable marks a hard fetch failure: the source resource is
// missing or unreadable. This is the only load-time failure surfaced to
// the rendering layer as an error rather than diagnostics.
var ErrUnavailable = errors.New("dataset source unavailable")

// maxBodySize caps fetched text; the datasets are thousands of rows, so
// anything larger indicates a misconfigured source.
const maxBodySize = 64 << 20

// Fetcher resolves dataset source identifiers to text.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher with a bounded HTTP client. A nil logger
// falls back to the default slog logger.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With(slog.String("component", "fetcher")),
	}
}

// FetchText returns the raw text behind an identifier, which is either an
// http(s) URL or a local file path. Encoding artifacts are left intact;
// stripping them is the decoder's job.
func (f *Fetcher) FetchText(ctx context.Context, identifier string) (string, error) {
	start := time.Now()

	var (
		text string
		err  error
	)
	if strings.HasPrefix(identifier, "http://") || strings.HasPrefix(identifier, "https://") {
		text, err = f.fetchURL(ctx, identifier)
	} else {
		text, err = f.fetchFile(identifier)
	}
	if err != nil {
		f.logger.ErrorContext(ctx, "fetch failed",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		return "", err
	}

	f.logger.InfoContext(ctx, "fetched dataset text",
		slog.String("identifier", identifier),
		slog.Int("bytes", len(text)),
		slog.String("duration", time.Since(start).String()))
	return text, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", ErrUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(body), nil
}

func (f *Fetcher) fetchFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(data), nil
}
