package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Trailing sections that hold links and citations rather than prose
var wikipediaTrailingSections = map[string]bool{
	"see also":        true,
	"notes":           true,
	"references":      true,
	"citations":       true,
	"sources":         true,
	"bibliography":    true,
	"further reading": true,
	"external links":  true,
}

// Classes of MediaWiki chrome inside the content area
var wikipediaSkipClasses = []string{
	"reference",
	"mw-editsection",
	"navbox",
	"infobox",
	"sidebar",
	"toc",
	"reflist",
	"references",
	"hatnote",
	"metadata",
	"ambox",
	"noprint",
	"mw-empty-elt",
	"shortdescription",
}

// WikipediaAdapter extracts article prose from Wikipedia pages
type WikipediaAdapter struct {
	BaseAdapter
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// Extract reads the parser output up to the first trailing section,
// dropping citations, infoboxes and navigation templates.
func (a *WikipediaAdapter) Extract(doc *html.Node) (Page, error) {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && a.HasClass(n, "mw-parser-output")
	})
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "mw-content-text"
		})
	}
	if content == nil {
		content = doc
	}

	var blocks []string
	for c := content.FirstChild; c != nil; c = c.NextSibling {
		if a.isTrailingHeading(c) {
			break
		}
		if text := visibleText(c, a.skip); text != "" {
			blocks = append(blocks, text)
		}
	}

	return Page{
		Title:   a.title(doc),
		Text:    strings.Join(blocks, "\n"),
		Adapter: a.Name(),
	}, nil
}

func (a *WikipediaAdapter) title(doc *html.Node) string {
	heading := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "firstHeading"
	})
	if title := a.InlineText(heading); title != "" {
		return title
	}

	title := a.DocumentTitle(doc)
	if idx := strings.LastIndex(title, " - Wikipedia"); idx > 0 {
		title = title[:idx]
	}
	return title
}

func (a *WikipediaAdapter) skip(n *html.Node) bool {
	if a.GetAttribute(n, "id") == "toc" {
		return true
	}
	for _, class := range wikipediaSkipClasses {
		if a.HasClass(n, class) {
			return true
		}
	}
	return false
}

// isTrailingHeading matches both <h2> and the newer <div class="mw-heading"><h2>
func (a *WikipediaAdapter) isTrailingHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}

	heading := n
	if n.Data == "div" && a.HasClass(n, "mw-heading") {
		heading = a.FindElement(n, "h2")
	}
	if heading == nil || heading.Data != "h2" {
		return false
	}

	text := strings.ToLower(a.InlineText(heading))
	text = strings.TrimSpace(strings.TrimSuffix(text, "[edit]"))
	return wikipediaTrailingSections[text]
}
