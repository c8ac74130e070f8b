package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements that never carry article prose
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"template": true,
	"svg":      true,
	"head":     true,
	"button":   true,
	"form":     true,
}

// Headings are dropped from the body: without terminal punctuation they
// would be glued onto the following sentence.
var headingElements = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"li": true, "ul": true, "ol": true, "dl": true, "dt": true, "dd": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "td": true,
	"th": true, "figure": true, "figcaption": true, "br": true, "hr": true,
	"header": true, "footer": true, "nav": true, "aside": true, "body": true,
}

// visibleText walks root and returns its readable text, one block per line.
// skip, when non-nil, prunes additional subtrees.
func visibleText(root *html.Node, skip func(*html.Node) bool) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if hiddenElements[n.Data] || headingElements[n.Data] {
				return
			}
			if skip != nil && skip(n) {
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			buf.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			buf.WriteString("\n")
		}
	}

	walk(root)
	return normalizeLines(buf.String())
}

// normalizeLines folds whitespace inside each line and drops empty lines
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
