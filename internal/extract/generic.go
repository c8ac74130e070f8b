package extract

import (
	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter for unknown sites
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(rawURL string) bool {
	return true
}

// Extract prefers <article>, then <main>, then the whole document.
// Page chrome (nav, header, footer, aside) is skipped.
func (a *GenericAdapter) Extract(doc *html.Node) (Page, error) {
	content := a.FindElement(doc, "article")
	if content == nil {
		content = a.FindElement(doc, "main")
	}
	if content == nil {
		content = doc
	}

	text := visibleText(content, func(n *html.Node) bool {
		switch n.Data {
		case "nav", "header", "footer", "aside":
			return true
		}
		return a.GetAttribute(n, "role") == "navigation" || a.GetAttribute(n, "aria-hidden") == "true"
	})

	return Page{
		Title:   a.DocumentTitle(doc),
		Text:    text,
		Adapter: a.Name(),
	}, nil
}
