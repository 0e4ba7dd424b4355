// Package fetch retrieves raw catalog pages from the Qt download archive,
// failing over to a fallback mirror exactly once.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the primary archive mirror.
	DefaultBaseURL = "https://download.qt.io/online/qtsdkrepository"

	// DefaultFallbackURL is tried once when the primary attempt fails.
	DefaultFallbackURL = "https://mirrors.ocf.berkeley.edu/qt/online/qtsdkrepository"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "qtmeta/1.0"
)

// ConnectionError reports that the remote host could not be reached.
type ConnectionError struct {
	URL   string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// DownloadError reports that the remote host was reached but did not serve
// the requested content.
type DownloadError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to download %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("failed to download %s: status %d", e.URL, e.StatusCode)
}

func (e *DownloadError) Unwrap() error { return e.Cause }

// HTTPClient is the subset of http.Client used by the fetcher.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds fetcher configuration.
type Config struct {
	BaseURL     string
	FallbackURL string
	UserAgent   string
	Timeout     time.Duration
	HTTPClient  HTTPClient
}

// DefaultConfig returns the stock mirror configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		FallbackURL: DefaultFallbackURL,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		HTTPClient:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Fetcher performs GET requests against the archive with single-step mirror
// failover. It holds no mutable state and is safe for concurrent use.
type Fetcher struct {
	config Config
}

// New creates a Fetcher, filling unset config fields with defaults.
func New(config Config) *Fetcher {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.FallbackURL == "" {
		config.FallbackURL = DefaultFallbackURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &Fetcher{config: config}
}

// Fetch GETs path relative to the primary base URL. On any failure it retries
// exactly once against the fallback mirror; if the fallback also fails, the
// primary attempt's error is returned so the original failure kind is
// preserved.
func (f *Fetcher) Fetch(ctx context.Context, path string) (string, error) {
	body, primaryErr := f.get(ctx, f.config.BaseURL, path)
	if primaryErr == nil {
		return body, nil
	}
	body, fallbackErr := f.get(ctx, f.config.FallbackURL, path)
	if fallbackErr == nil {
		return body, nil
	}
	return "", primaryErr
}

func (f *Fetcher) get(ctx context.Context, base, path string) (string, error) {
	target, err := url.JoinPath(base, path)
	if err != nil {
		return "", &DownloadError{URL: base + "/" + path, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &DownloadError{URL: target, Cause: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.config.HTTPClient.Do(req)
	if err != nil {
		return "", &ConnectionError{URL: target, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{URL: target, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &DownloadError{URL: target, Cause: err}
	}
	return string(data), nil
}
