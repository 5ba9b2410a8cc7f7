// Package upstream fetches raw per-region casualty reports over HTTP.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

const userAgent = "casualty-tracker/1.0"

// maxBodyBytes bounds a single upstream payload.
const maxBodyBytes = 64 << 20

// Client fetches region datasets from the public casualty API, optionally
// through a URL-prefix proxy.
type Client struct {
	urls       map[domain.Region]string
	proxy      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an upstream client. urls maps each region to its dataset
// endpoint. When proxy is non-empty, requests go to proxy+QueryEscape(url).
func NewClient(urls map[domain.Region]string, proxy string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		urls:       urls,
		proxy:      proxy,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// FetchRegion retrieves the raw records for region. Errors are classified as
// domain.ErrTimeout, *domain.HTTPError, *domain.NetworkError, or
// *domain.ValidationError.
func (c *Client) FetchRegion(ctx context.Context, region domain.Region) ([]domain.RawRecord, error) {
	target, ok := c.urls[region]
	if !ok || !region.Valid() {
		return nil, fmt.Errorf("fetch %q: %w", region, domain.ErrInvalidRegion)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(target), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	// Proxies reject preflight-triggering headers.
	if c.proxy == "" {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.HTTPError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	raw, err := domain.DecodeRaw(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, &domain.ValidationError{Reason: "data array is empty"}
	}

	c.logger.Debug("upstream fetch complete", "region", region, "records", len(raw))
	return raw, nil
}

func (c *Client) requestURL(target string) string {
	if c.proxy == "" {
		return target
	}
	return c.proxy + url.QueryEscape(target)
}

// classifyTransportError separates our own deadline from caller
// cancellation and plain network failures.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &domain.NetworkError{Err: err}
}
