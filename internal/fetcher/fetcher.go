package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/byteowlz/trendr/internal/logger"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 10 << 20
)

type FetchOptions struct {
	Timeout         time.Duration
	UserAgent       string // Explicit user agent, takes precedence over BrowserAgent
	BrowserAgent    string // auto|chrome|firefox|safari|edge
	FollowRedirects bool
	MaxRedirects    int
	MaxBodyBytes    int64
}

// DefaultFetchOptions mirrors the defaults shipped in the config file.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:         defaultTimeout,
		BrowserAgent:    string(UserAgentAuto),
		FollowRedirects: true,
		MaxRedirects:    defaultMaxRedirects,
		MaxBodyBytes:    defaultMaxBodyBytes,
	}
}

type FetchResult struct {
	HTML        string
	Title       string
	URL         string // Final URL after redirects
	StatusCode  int
	ContentType string
	Truncated   bool
}

// TransportError reports a failed fetch: the request could not be built or
// sent, the server answered with an error status, or the body could not be read.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var errTooManyRedirects = errors.New("too many redirects")

type ContentFetcher struct {
	userAgentSelect *UserAgentSelector
	transport       http.RoundTripper
}

func NewContentFetcher() *ContentFetcher {
	return &ContentFetcher{
		userAgentSelect: NewUserAgentSelector(),
	}
}

// WithTransport replaces the HTTP transport, mostly for tests.
func (cf *ContentFetcher) WithTransport(rt http.RoundTripper) *ContentFetcher {
	cf.transport = rt
	return cf
}

func (cf *ContentFetcher) client(opts FetchOptions) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := cf.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		}
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !opts.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
}

// Fetch performs a single GET against url with browser-like headers.
// There is no retry: any failure is returned as a *TransportError.
func (cf *ContentFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	// Set user agent (custom takes precedence, then browser agent)
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = cf.userAgentSelect.GetUserAgent(opts.BrowserAgent)
	}
	req.Header.Set("User-Agent", userAgent)

	// Add headers that make the request look more like a real browser
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Don't set Accept-Encoding - let Go's http client handle compression automatically
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")

	logger.Debug("fetching page", "url", url, "user_agent", userAgent)

	resp, err := cf.client(opts).Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to fetch URL: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Read one extra byte to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	truncated := int64(len(body)) > maxBody
	if truncated {
		body = body[:maxBody]
		logger.Warn("response body truncated", "url", url, "limit", maxBody)
	}

	html := string(body)

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	logger.Info("fetched page", "url", finalURL, "status", resp.StatusCode, "bytes", len(body))

	return &FetchResult{
		HTML:        html,
		Title:       extractTitle(html),
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Truncated:   truncated,
	}, nil
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
