package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var whitespace = regexp.MustCompile(`[\s\x{00a0}\x{202f}]+`)

// CollapseWhitespace replaces every run of whitespace (non-breaking spaces
// included) with a single space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Text is the collapsed text of the whole selection.
func Text(sel *goquery.Selection) string {
	return CollapseWhitespace(sel.Text())
}

// Rows returns the rows that belong to `table` itself, skipping the rows
// of nested tables.
func Rows(table *goquery.Selection) *goquery.Selection {
	rows := table.ChildrenFiltered("tr")
	sections := table.ChildrenFiltered("tbody, thead, tfoot")
	return rows.AddSelection(sections.ChildrenFiltered("tr"))
}

// Cells returns the direct td/th cells of a row.
func Cells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("td, th")
}
