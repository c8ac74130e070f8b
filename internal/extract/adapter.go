package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Adapter reduces a site's page layout to the article it carries
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter understands pages from the given URL
	CanHandle(rawURL string) bool

	// Extract returns the article title and body text
	Extract(doc *html.Node) (Page, error)
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewWikipediaAdapter())

	// Fallback for every other site and for local files
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter. Later registrations do not override earlier ones.
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given URL
func (r *Registry) FindAdapter(rawURL string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL) {
			return adapter
		}
	}
	return r.generic
}

// BaseAdapter provides node helpers shared by adapters
type BaseAdapter struct{}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}

	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate, depth first
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// FindElement finds the first element with the given tag name
func (b *BaseAdapter) FindElement(n *html.Node, tag string) *html.Node {
	return b.FindFirst(n, func(node *html.Node) bool {
		return node.Type == html.ElementNode && node.Data == tag
	})
}

// InlineText returns the collapsed text content of a node
func (b *BaseAdapter) InlineText(n *html.Node) string {
	if n == nil {
		return ""
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// DocumentTitle returns the <title> text, or the first <h1> when the title is empty
func (b *BaseAdapter) DocumentTitle(doc *html.Node) string {
	if title := b.InlineText(b.FindElement(doc, "title")); title != "" {
		return title
	}
	return b.InlineText(b.FindElement(doc, "h1"))
}
