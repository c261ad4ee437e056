package linker

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/seoforge/internal/content"
)

// Elements whose text never receives a link
var unlinkable = map[atom.Atom]bool{
	atom.A:      true,
	atom.Code:   true,
	atom.Pre:    true,
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Button: true,
}

// paragraph is a <p> element with its position in the document
type paragraph struct {
	node      *html.Node
	section   int
	startWord int
	text      string
}

// segment is a linkable text node inside a paragraph
type segment struct {
	node      *html.Node
	startWord int
}

type document struct {
	root       *html.Node
	paragraphs []*paragraph
	words      int
}

// parseDocument parses an HTML fragment as body content and indexes its
// paragraphs. Sections start at every h2 or h3.
func parseDocument(src string) (*document, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), root)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	doc := &document{root: root}
	section := 0
	var walk func(n *html.Node, skipped bool)
	walk = func(n *html.Node, skipped bool) {
		switch n.Type {
		case html.TextNode:
			doc.words += content.CountWords(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.H2 || n.DataAtom == atom.H3 {
				section++
			}
			if unlinkable[n.DataAtom] {
				skipped = true
			}
			if n.DataAtom == atom.P && !skipped {
				doc.paragraphs = append(doc.paragraphs, &paragraph{
					node:      n,
					section:   section,
					startWord: doc.words,
					text:      textOf(n),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skipped)
		}
	}
	walk(root, false)
	return doc, nil
}

// hrefs lists the normalized link targets already present
func (d *document) hrefs() map[string]bool {
	out := make(map[string]bool)
	goquery.NewDocumentFromNode(d.root).Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out[normalizeURL(href)] = true
	})
	return out
}

// segments returns the paragraph's text nodes that may hold a link, with
// their word offsets in the document
func (p *paragraph) segments() []segment {
	var out []segment
	offset := p.startWord
	var walk func(n *html.Node, skipped bool)
	walk = func(n *html.Node, skipped bool) {
		if n.Type == html.TextNode {
			if !skipped && strings.TrimSpace(n.Data) != "" {
				out = append(out, segment{node: n, startWord: offset})
			}
			offset += content.CountWords(n.Data)
			return
		}
		if n.Type == html.ElementNode && unlinkable[n.DataAtom] {
			skipped = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skipped)
		}
	}
	for c := p.node.FirstChild; c != nil; c = c.NextSibling {
		walk(c, false)
	}
	return out
}

// link replaces the anchor span of a text node with an <a> element
func (s segment) link(a Anchor, href string) {
	n := s.node
	parent := n.Parent
	before := n.Data[:a.Start]
	after := n.Data[a.Start+len(a.Text):]

	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, n)
	}
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: a.Text})
	parent.InsertBefore(el, n)

	if after == "" {
		parent.RemoveChild(n)
		return
	}
	n.Data = after
}

func (d *document) render() (string, error) {
	var b strings.Builder
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return b.String(), nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}
