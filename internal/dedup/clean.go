package dedup

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// tagExpr matches complete tags and comments. A "<" outside a match is text.
var tagExpr = regexp.MustCompile(`<(?:/?[a-zA-Z][^<>]*|!--[^<>]*--)>`)

// Clean strips markup, unescapes entities and collapses whitespace.
// Every tag, <br> included, becomes a single space. Unicode spaces such as
// the U+00A0 left by &nbsp; collapse like ASCII ones.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	if strings.ContainsAny(text, "<&") {
		text = stripMarkup(text)
	}
	return strings.Join(strings.Fields(text), " ")
}

// escapeStrayLT keeps a bare "<" (as in "c<d") from opening a tag in the parser.
func escapeStrayLT(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range tagExpr.FindAllStringIndex(text, -1) {
		b.WriteString(strings.ReplaceAll(text[last:loc[0]], "<", "&lt;"))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(text[last:], "<", "&lt;"))
	return b.String()
}

func stripMarkup(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayLT(text)))
	if err != nil {
		return html.UnescapeString(tagExpr.ReplaceAllString(text, " "))
	}

	var b strings.Builder
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				b.WriteString(node.Text())
			case "#comment":
			default:
				b.WriteByte(' ')
				walk(node)
				b.WriteByte(' ')
			}
		})
	}
	walk(doc.Find("body"))
	return b.String()
}
