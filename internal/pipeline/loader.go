package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/extract"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
	"github.com/sambitsargam/ChainLens-sub000/internal/util"
	"github.com/sambitsargam/ChainLens-sub000/internal/worker"
)

var (
	// ErrRobotsDisallowed means robots.txt forbids fetching the article URL
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrBodyTooLarge means the article exceeds the configured size limit
	ErrBodyTooLarge = errors.New("article exceeds size limit")

	// ErrEmptyArticle means no text could be extracted
	ErrEmptyArticle = errors.New("article has no text")
)

// StatusError is a non-2xx response to an article fetch
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// DefaultFetchPolicy retries transient fetch failures three times with a short backoff
func DefaultFetchPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		Multiplier:  2,
		Retryable:   isRetryableFetchError,
	}
}

// Loader reads articles from local files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter     // nil disables per-host pacing
	extractor  *extract.Extractor
	policy     retry.Policy
	logger     *slog.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLimiter paces URL fetches per host
func WithLimiter(l *worker.Limiter) LoaderOption {
	return func(ld *Loader) { ld.limiter = l }
}

// WithFetchPolicy replaces the retry policy for URL fetches
func WithFetchPolicy(p retry.Policy) LoaderOption {
	return func(ld *Loader) { ld.policy = p }
}

// WithLoaderLogger sets the loader's logger
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader from the HTTP configuration
func NewLoader(cfg model.HTTPConfig, opts ...LoaderOption) *Loader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}

	l := &Loader{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		extractor:  extract.NewExtractor(),
		policy:     DefaultFetchPolicy(),
		logger:     slog.Default(),
	}
	if cfg.RespectRobots {
		l.robots = util.NewRobotsChecker(cfg.UserAgent, client)
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads source, which is either an http(s) URL or a file path.
// HTML is reduced to its article text; plain text is taken as is.
func (l *Loader) Load(ctx context.Context, source string) (model.Article, error) {
	if isURL(source) {
		return l.loadURL(ctx, source)
	}
	return l.loadFile(source)
}

func (l *Loader) loadFile(path string) (model.Article, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Article{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return model.Article{}, fmt.Errorf("%s is a directory", path)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return model.Article{}, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrBodyTooLarge, info.Size(), l.maxBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return model.Article{}, fmt.Errorf("read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return l.toArticle(content, "", path, "", deslugify(name))
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (model.Article, error) {
	var crawlDelay time.Duration
	if l.robots != nil {
		allowed, delay, err := l.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return model.Article{}, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return model.Article{}, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
		crawlDelay = delay
	}

	var result *fetchResult
	err := retry.Do(ctx, l.policy, func(ctx context.Context, attempt int) error {
		if l.limiter != nil {
			if err := l.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
				return err
			}
		}

		r, err := l.fetch(ctx, rawURL)
		if err != nil {
			if attempt+1 < l.policy.MaxAttempts && isRetryableFetchError(err) {
				l.logger.Warn("article fetch failed, retrying", "url", rawURL, "attempt", attempt+1, "err", err)
			}
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return model.Article{}, err
	}

	return l.toArticle(result.body, result.contentType, result.finalURL, result.finalURL, subjectFromURL(result.finalURL))
}

// fetchResult is one successful GET
type fetchResult struct {
	body        []byte
	contentType string
	finalURL    string
}

// fetch performs a single GET with the size limit applied
func (l *Loader) fetch(ctx context.Context, rawURL string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	reader := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if l.maxBytes > 0 && int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", rawURL, ErrBodyTooLarge, l.maxBytes)
	}

	return &fetchResult{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		finalURL:    resp.Request.URL.String(),
	}, nil
}

// toArticle turns raw content into an article. fallbackTitle is used when
// the document carries no title of its own.
func (l *Loader) toArticle(content []byte, contentType, source, pageURL, fallbackTitle string) (model.Article, error) {
	article := model.Article{
		Title:  fallbackTitle,
		Source: source,
	}

	if extract.IsHTML(contentType, namePath(source), content) {
		page, err := l.extractor.Extract(string(content), pageURL)
		if err != nil {
			return model.Article{}, fmt.Errorf("extract %s: %w", source, err)
		}
		if page.Title != "" {
			article.Title = page.Title
		}
		article.Text = page.Text
		l.logger.Debug("extracted article", "source", source, "adapter", page.Adapter, "chars", len(page.Text))
	} else {
		article.Text = strings.TrimSpace(string(content))
	}

	if article.Text == "" {
		return model.Article{}, fmt.Errorf("%s: %w", source, ErrEmptyArticle)
	}
	return article, nil
}

// isRetryableFetchError reports whether a fetch failure is transient:
// 429, 5xx, and transport errors other than cancellation.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// namePath returns the path component used for extension sniffing
func namePath(source string) string {
	if !isURL(source) {
		return source
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return source
	}
	return parsed.Path
}

// subjectFromURL derives a human-readable title from the last path segment
func subjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return deslugify(last)
}

func deslugify(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ReplaceAll(s, "-", " ")
}
