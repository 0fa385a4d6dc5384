package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"vedexpert/internal/config"
)

const maxFetchAttempts = 5

// HTTPSource downloads the catalog document from a URL, retrying transient
// failures with exponential backoff.
type HTTPSource struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryBase  time.Duration
}

func NewHTTPSource(cfg config.Config, rawURL string) *HTTPSource {
	rps := cfg.CatalogFetchRPS
	if rps <= 0 {
		rps = 1
	}
	return &HTTPSource{
		url:        rawURL,
		token:      cfg.CatalogFetchToken,
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogFetchTimeoutMs) * time.Millisecond},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retryBase:  250 * time.Millisecond,
	}
}

func (s *HTTPSource) String() string { return s.url }

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	backoff := retry.WithJitter(100*time.Millisecond, retry.NewExponential(s.retryBase))
	backoff = retry.WithMaxRetries(maxFetchAttempts-1, backoff)

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return err
		}
		if strings.TrimSpace(s.token) != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		blob, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return retry.RetryableError(readErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := fmt.Errorf("catalog source status=%d body=%s", resp.StatusCode, truncate(string(blob), 200))
			if isRetryableStatus(resp.StatusCode) {
				return retry.RetryableError(statusErr)
			}
			return statusErr
		}
		body = blob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
