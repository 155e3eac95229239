package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

const maxPageBytes = 4 * 1024 * 1024

// pageGetter fetches an HTML page and returns its body and status code.
type pageGetter func(url string, headers map[string]string) ([]byte, int, error)

// WithBrowserClient routes HTML page fetches (results and watch pages)
// through bc, which carries a Chrome TLS fingerprint and, when configured,
// a rotating proxy pool. JSON endpoints keep using the plain client.
func WithBrowserClient(bc *engine.BrowserClient) Option {
	return func(y *YouTube) {
		if bc == nil {
			return
		}
		y.browser = func(url string, headers map[string]string) ([]byte, int, error) {
			data, _, status, err := bc.Do(http.MethodGet, url, headers, nil)
			return data, status, err
		}
	}
}

func pageHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      engine.RandomUserAgent(),
		"Accept-Language": "en-US,en;q=0.9",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}
}

// fetchPage GETs pageURL and returns at most maxPageBytes of its body.
// Anything but 200 is an error.
func (y *YouTube) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	headers := pageHeaders()

	if y.browser != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, status, err := y.browser(pageURL, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", status)
		}
		if len(data) > maxPageBytes {
			data = data[:maxPageBytes]
		}
		return data, nil
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return y.client.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}
