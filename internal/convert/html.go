package convert

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLTitle returns the text of the document's <title>, or of its first
// <h1> when there is no title.
func HTMLTitle(contents []byte) string {
	doc, err := html.Parse(bytes.NewReader(contents))
	if err != nil {
		return ""
	}
	if t := findText(doc, atom.Title); t != "" {
		return t
	}
	return findText(doc, atom.H1)
}

func findText(n *html.Node, a atom.Atom) string {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return strings.Join(strings.Fields(textOf(n)), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findText(c, a); t != "" {
			return t
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
