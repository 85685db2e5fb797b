package convert

import (
	"html"
	"strings"

	"github.com/jaytaylor/html2text"
)

// TextToHTML renders plain text as HTML, escaping markup characters and
// preserving line breaks.
func TextToHTML(payload []byte) ([]byte, error) {
	escaped := html.EscapeString(string(payload))
	return []byte(strings.ReplaceAll(escaped, "\n", "<br>\n")), nil
}

// HTMLToText strips markup from an HTML document, leaving its text
// content.
func HTMLToText(payload []byte) ([]byte, error) {
	text, err := htmlToPlain(payload)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// htmlToPlain is the shared HTML-to-text step used by every converter
// that targets a text-like or paginated format.
func htmlToPlain(payload []byte) (string, error) {
	text, err := html2text.FromString(string(payload), html2text.Options{TextOnly: true})
	if err != nil {
		return "", newError(KindMalformedInput, "parse html: %v", err)
	}
	return text, nil
}
