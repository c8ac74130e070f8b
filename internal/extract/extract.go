// Package extract reduces HTML pages to article text.
//
// Site adapters know where a page keeps its prose; anything they do not
// recognize goes through the generic adapter, which reads <article>, <main>
// or the body. Output text has one block per line so sentence segmentation
// never joins separate paragraphs.
package extract

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Page is the article carried by an HTML document
type Page struct {
	Title   string
	Text    string
	Adapter string // Adapter that produced the page
}

// Extractor turns HTML into pages
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor with the built-in adapters
func NewExtractor() *Extractor {
	return &Extractor{registry: NewRegistry()}
}

// Extract parses htmlContent and extracts the article. pageURL selects the
// adapter and may be empty for local files.
func (e *Extractor) Extract(htmlContent string, pageURL string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	adapter := e.registry.FindAdapter(pageURL)
	page, err := adapter.Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}

	return &page, nil
}

// IsHTML reports whether content should be treated as HTML, judged by
// the content type when present, then by the name's extension, then by sniffing.
func IsHTML(contentType, name string, content []byte) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			return mediaType == "text/html" || mediaType == "application/xhtml+xml"
		}
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".txt", ".md", ".text":
		return false
	}

	head := strings.ToLower(strings.TrimSpace(string(content[:min(len(content), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
