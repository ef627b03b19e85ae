// Package htmltext extracts readable text from HTML fragments.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LooksLikeHTML reports whether s contains at least one element tag.
func LooksLikeHTML(s string) bool {
	start := strings.IndexByte(s, '<')
	return start >= 0 && strings.IndexByte(s[start:], '>') > 0
}

// PlainText returns the text nodes of an HTML fragment separated by single
// spaces. Script and style contents are skipped. Input that fails to parse is
// returned untouched.
func PlainText(fragment string) string {
	parsed, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment
	}

	var parts []string
	for _, node := range parsed {
		collectText(node, &parts)
	}

	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return
	}

	if n.Type == html.TextNode {
		*parts = append(*parts, strings.Fields(n.Data)...)
	}

	// Traverse children
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
