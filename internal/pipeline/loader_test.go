package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Laksa</title></head>
<body><nav>Home About</nav><article><h1>Laksa</h1><p>Laksa is a spicy noodle soup.</p></article></body></html>`

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "ChainLens-test/1.0",
		MaxBodyBytes:  1 << 20,
		RespectRobots: true,
	}
}

func fastFetchPolicy() retry.Policy {
	p := DefaultFetchPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = time.Millisecond
	return p
}

// articleServer serves robots.txt from robots (404 when empty) and every other path from handler
func articleServer(robots string, handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			if robots == "" {
				http.NotFound(w, r)
				return
			}
			_, _ = fmt.Fprint(w, robots)
			return
		}
		handler(w, r)
	}))
}

func TestLoader_LoadURL_HTML(t *testing.T) {
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig())
	article, err := loader.Load(context.Background(), server.URL+"/page/Laksa")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if article.Title != "Laksa" {
		t.Errorf("Expected title 'Laksa', got %q", article.Title)
	}
	if article.Text != "Laksa is a spicy noodle soup." {
		t.Errorf("Unexpected text: %q", article.Text)
	}
	if article.Source != server.URL+"/page/Laksa" {
		t.Errorf("Unexpected source: %q", article.Source)
	}
}

func TestLoader_LoadURL_PlainText(t *testing.T) {
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "  Laksa is a spicy noodle soup.\n")
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig())
	article, err := loader.Load(context.Background(), server.URL+"/notes/Laksa_history")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if article.Title != "Laksa history" {
		t.Errorf("Expected title from URL, got %q", article.Title)
	}
	if article.Text != "Laksa is a spicy noodle soup." {
		t.Errorf("Unexpected text: %q", article.Text)
	}
}

func TestLoader_LoadURL_RobotsDisallowed(t *testing.T) {
	var hits atomic.Int32
	server := articleServer("User-agent: *\nDisallow: /private/\n", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig())
	_, err := loader.Load(context.Background(), server.URL+"/private/page")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Fatalf("Expected ErrRobotsDisallowed, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("Expected no article request, got %d", hits.Load())
	}
}

func TestLoader_LoadURL_RobotsIgnored(t *testing.T) {
	server := articleServer("User-agent: *\nDisallow: /\n", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobots = false

	if _, err := NewLoader(cfg).Load(context.Background(), server.URL+"/page"); err != nil {
		t.Errorf("Expected robots.txt to be ignored, got %v", err)
	}
}

func TestLoader_LoadURL_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), WithFetchPolicy(fastFetchPolicy()))
	if _, err := loader.Load(context.Background(), server.URL+"/page"); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestLoader_LoadURL_429Retried(t *testing.T) {
	var attempts atomic.Int32
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), WithFetchPolicy(fastFetchPolicy()))
	if _, err := loader.Load(context.Background(), server.URL+"/page"); err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestLoader_LoadURL_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), WithFetchPolicy(fastFetchPolicy()))
	_, err := loader.Load(context.Background(), server.URL+"/missing")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 StatusError, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 404 not to be retried, got %d attempts", attempts.Load())
	}
}

func TestLoader_LoadURL_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	loader := NewLoader(testHTTPConfig(), WithFetchPolicy(fastFetchPolicy()))
	_, err := loader.Load(context.Background(), server.URL+"/page")
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}

	var attemptsErr *retry.AttemptsError
	if !errors.As(err, &attemptsErr) || attemptsErr.Attempts != 3 {
		t.Errorf("Expected AttemptsError after 3 attempts, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestLoader_LoadURL_BodyTooLarge(t *testing.T) {
	server := articleServer("", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	})
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 16

	_, err := NewLoader(cfg).Load(context.Background(), server.URL+"/page")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Expected ErrBodyTooLarge, got %v", err)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "laksa-notes.txt")
	if err := os.WriteFile(textPath, []byte("Laksa is a spicy noodle soup.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	htmlPath := filepath.Join(dir, "saved.html")
	if err := os.WriteFile(htmlPath, []byte(articleHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(testHTTPConfig())

	article, err := loader.Load(context.Background(), textPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if article.Title != "laksa notes" {
		t.Errorf("Expected title from file name, got %q", article.Title)
	}
	if article.Text != "Laksa is a spicy noodle soup." {
		t.Errorf("Unexpected text: %q", article.Text)
	}

	article, err = loader.Load(context.Background(), htmlPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if article.Title != "Laksa" || article.Text != "Laksa is a spicy noodle soup." {
		t.Errorf("Unexpected HTML file article: %+v", article)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(emptyPath, []byte("   \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(testHTTPConfig())

	if _, err := loader.Load(context.Background(), emptyPath); !errors.Is(err, ErrEmptyArticle) {
		t.Errorf("Expected ErrEmptyArticle, got %v", err)
	}
	if _, err := loader.Load(context.Background(), filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if _, err := loader.Load(context.Background(), dir); err == nil {
		t.Error("Expected error for directory source")
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"503", &StatusError{StatusCode: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{StatusCode: 500, Status: "500 Internal Server Error"}, true},
		{"429", &StatusError{StatusCode: 429, Status: "429 Too Many Requests"}, true},
		{"404", &StatusError{StatusCode: 404, Status: "404 Not Found"}, false},
		{"403", &StatusError{StatusCode: 403, Status: "403 Forbidden"}, false},
		{"wrapped 502", fmt.Errorf("fetch: %w", &StatusError{StatusCode: 502, Status: "502 Bad Gateway"}), true},
		{"canceled", context.Canceled, false},
		{"too large", ErrBodyTooLarge, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestSubjectFromURL(t *testing.T) {
	tests := map[string]string{
		"https://en.wikipedia.org/wiki/Laksa":          "Laksa",
		"https://grokipedia.com/page/Kievan_Rus%27":    "Kievan Rus'",
		"https://example.org/articles/noodle-soup.html": "noodle soup",
		"https://example.org/":                         "example.org",
	}
	for in, want := range tests {
		if got := subjectFromURL(in); got != want {
			t.Errorf("subjectFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
