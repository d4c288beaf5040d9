package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// RenderHTML converts a composed document to HTML for previewing. The front
// matter block is left out.
func RenderHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(stripFrontMatter(src)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Outline returns the headings of src in document order, using a full
// Markdown parse rather than the line-prefix rules of Segment.
func Outline(src string) []Heading {
	body := []byte(stripFrontMatter(src))
	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	var headings []Heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		headings = append(headings, Heading{
			Level: h.Level,
			Text:  strings.TrimSpace(inlineText(h, body)),
		})
	}
	return headings
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return buf.String()
}

// stripFrontMatter removes the front matter block so goldmark does not read
// its closing delimiter as a setext heading underline.
func stripFrontMatter(src string) string {
	fm := ExtractFrontMatter(src)
	if fm.Raw == "" {
		return src
	}
	return strings.Replace(src, fm.Raw, "", 1)
}
