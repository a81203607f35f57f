package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// classifyFunc inspects a response and returns a provider error kind, or nil
// when the body should be decoded
type classifyFunc func(status int, body []byte) error

// fetcher performs GET requests with bounded retries on transport failures
type fetcher struct {
	provider   string
	httpClient *http.Client
	retries    uint64
	observer   Observer
	classify   classifyFunc
}

func newFetcher(provider string, timeout time.Duration, retries int, observer Observer, classify classifyFunc) *fetcher {
	if retries < 0 {
		retries = 0
	}
	return &fetcher{
		provider: provider,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:  uint64(retries),
		observer: observer,
		classify: classify,
	}
}

// getJSON fetches url and decodes the JSON body into v
func (f *fetcher) getJSON(ctx context.Context, url string, header http.Header, v any) error {
	start := time.Now()
	body, err := f.fetch(ctx, url, header)
	if f.observer != nil {
		f.observer.ObserveRequest(f.provider, time.Since(start), err)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return newError(f.provider, ErrSchema, err)
	}
	return nil
}

func (f *fetcher) fetch(ctx context.Context, url string, header http.Header) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(b, f.retries), ctx)

	return backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			body, err := f.do(ctx, url, header)
			if err != nil && !isRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return body, err
		},
		policy,
		func(err error, d time.Duration) {
			slog.Warn("Retrying upstream request", "provider", f.provider, "backoff", d, "error", err)
		},
	)
}

func (f *fetcher) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(f.provider, ErrUpstream, err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, newError(f.provider, ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(f.provider, ErrNetwork, err)
	}

	if f.classify != nil {
		if kind := f.classify(resp.StatusCode, body); kind != nil {
			return nil, newError(f.provider, kind, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 200)))
		}
	}
	if resp.StatusCode != http.StatusOK {
		kind := ErrUpstream
		if resp.StatusCode >= 500 {
			kind = ErrNetwork
		}
		return nil, newError(f.provider, kind, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	return body, nil
}

// isRetryable reports whether a failed request may succeed if repeated
func isRetryable(err error) bool {
	perr, ok := err.(*Error)
	return ok && perr.Kind == ErrNetwork
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
