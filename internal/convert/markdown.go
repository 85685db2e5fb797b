package convert

import (
	"bytes"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// MarkdownToHTML renders Markdown as HTML using GFM semantics.
func MarkdownToHTML(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert(payload, &buf); err != nil {
		return nil, newError(KindInternalError, "render markdown: %v", err)
	}
	return buf.Bytes(), nil
}

// HTMLToMarkdown converts an HTML document back to Markdown.
func HTMLToMarkdown(payload []byte) ([]byte, error) {
	conv := htmltomd.NewConverter("", true, nil)
	md, err := conv.ConvertString(string(payload))
	if err != nil {
		return nil, newError(KindMalformedInput, "parse html: %v", err)
	}
	return []byte(md), nil
}
