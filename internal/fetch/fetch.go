// Package fetch retrieves careers pages and reduces them to visible text.
package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; cold-mailer/1.0)"

	// maxBodySize caps how much of a page is read into memory.
	maxBodySize = 10 << 20
)

// Result holds the raw and processed content of a page.
type Result struct {
	URL        string
	HTML       string
	Text       string
	StatusCode int
	// Rendered is set when the text came from the headless browser.
	Rendered bool
}

// Error is returned for every retrieval failure.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Browser enables headless rendering for pages whose static HTML has
	// almost no text.
	Browser        bool
	BrowserTimeout time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		BrowserTimeout: DefaultTimeout,
	}
}

// renderFunc returns the rendered HTML of a page.
type renderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

type Fetcher struct {
	opts   *Options
	client *http.Client
	render renderFunc
	logger *zap.Logger
}

func New(opts *Options, logger *zap.Logger) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BrowserTimeout <= 0 {
		opts.BrowserTimeout = opts.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		render: RenderWithBrowser,
		logger: logger,
	}
}

// Page downloads rawURL and extracts its visible text. There are no retries.
func (f *Fetcher) Page(ctx context.Context, rawURL string) (*Result, error) {
	rawURL = strings.TrimSpace(rawURL)

	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	// The request gets Timeout; rendering below gets its own BrowserTimeout.
	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "gzip")
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &Error{URL: rawURL, Message: "failed to decode gzip body", Cause: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	result := &Result{
		URL:        rawURL,
		HTML:       string(body),
		StatusCode: resp.StatusCode,
	}

	result.Text, err = ExtractText(result.HTML)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to extract text", Cause: err}
	}

	f.logger.Debug("page fetched",
		zap.String("url", rawURL),
		zap.Int("html_length", len(result.HTML)),
		zap.Int("text_length", len(result.Text)),
	)

	if f.opts.Browser && ShouldUseBrowser(result.Text) {
		f.renderInto(ctx, result)
	}

	return result, nil
}

// renderInto replaces the result's content with the browser-rendered page.
// A rendering failure keeps the static content.
func (f *Fetcher) renderInto(ctx context.Context, result *Result) {
	f.logger.Info("page looks script-rendered, retrying in headless browser",
		zap.String("url", result.URL),
		zap.Int("text_length", len(result.Text)),
	)

	html, err := f.render(ctx, result.URL, f.opts.BrowserTimeout)
	if err != nil {
		f.logger.Warn("browser rendering failed, using static page", zap.String("url", result.URL), zap.Error(err))
		return
	}

	text, err := ExtractText(html)
	if err != nil {
		f.logger.Warn("extracting rendered text failed, using static page", zap.String("url", result.URL), zap.Error(err))
		return
	}

	result.HTML = html
	result.Text = text
	result.Rendered = true
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &Error{URL: rawURL, Message: "invalid URL: scheme must be http or https"}
	}
	if parsed.Host == "" {
		return &Error{URL: rawURL, Message: "invalid URL: host is missing"}
	}
	return nil
}
