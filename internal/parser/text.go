package parser

import (
	"strings"

	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// blockElements end a line in the rendered text so that line-anchored patterns work.
var blockElements = map[string]bool{
	"p": true, "div": true, "tr": true, "table": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"form": true, "section": true, "article": true, "header": true, "footer": true,
	"br": true, "hr": true, "center": true, "dd": true, "dt": true, "caption": true,
}

// VisibleText renders the text a user would read: script and style content is
// skipped, table cells are space separated and block elements end with a newline.
func VisibleText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(n, &b)
	}
	return b.String()
}

func writeText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}

	if n.Type == html.ElementNode {
		switch {
		case n.Data == "td" || n.Data == "th":
			b.WriteByte(' ')
		case blockElements[n.Data]:
			b.WriteByte('\n')
		}
	}
}
