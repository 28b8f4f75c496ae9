package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Responses larger than this are truncated on read.
	maxBodyBytes = 2 << 20
	// Bodies shorter than this are treated as interstitial or challenge
	// pages rather than real content.
	minUsefulBytes = 500
)

// Markers of bot-challenge interstitials. Matched case-insensitively
// against the response body.
var challengeMarkers = []string{
	"just a moment",
	"enable javascript and cookies",
	"checking your browser",
	"attention required! | cloudflare",
	"access denied",
}

const (
	readerProxyPrefix = "https://r.jina.ai/"
	mirrorProxyPrefix = "https://api.allorigins.win/raw?url="
)

// Fetcher retrieves page content over HTTP with proxy fallbacks for
// pages that block non-browser clients. A failed fetch yields an empty
// string, never an error: callers decide what an empty page means.
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
	readerProxy string
	mirrorProxy string
}

func NewFetcher(userAgent string, timeoutSeconds int) *Fetcher {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 8
	}

	return &Fetcher{
		httpClient:  &http.Client{},
		userAgent:   userAgent,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		readerProxy: readerProxyPrefix,
		mirrorProxy: mirrorProxyPrefix,
	}
}

// Run fetches pageURL, trying a direct request first and falling back to
// a reader proxy and then a mirror proxy. Returns the page content, or
// an empty string when every attempt fails.
func (f *Fetcher) Run(ctx context.Context, pageURL string) string {
	body, err := f.attempt(ctx, pageURL, true)
	if err == nil {
		return body
	}
	slog.Debug("Direct fetch failed, trying reader proxy", "url", pageURL, "error", err)

	body, err = f.attempt(ctx, f.readerProxy+pageURL, false)
	if err == nil {
		return body
	}
	slog.Debug("Reader proxy fetch failed, trying mirror proxy", "url", pageURL, "error", err)

	body, err = f.attempt(ctx, f.mirrorProxy+url.QueryEscape(pageURL), false)
	if err == nil {
		return body
	}
	slog.Warn("All fetch attempts failed", "url", pageURL, "error", err)

	return ""
}

// attempt performs a single GET with a bounded read. browserHeaders adds
// the header set a real browser would send, which gets past naive
// user-agent blocks.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, browserHeaders bool) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if browserHeaders {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	body := string(data)
	if blocked, marker := looksBlocked(body); blocked {
		return "", fmt.Errorf("response looks like a bot challenge page (%s)", marker)
	}

	return body, nil
}

// looksBlocked reports whether a body is too short to be real content or
// carries a known challenge-page marker. The second return names the
// reason for logging.
func looksBlocked(body string) (bool, string) {
	if len(body) < minUsefulBytes {
		return true, fmt.Sprintf("body too short: %d bytes", len(body))
	}

	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true, marker
		}
	}

	return false, ""
}
