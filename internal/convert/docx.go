package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// HTMLToDOCX renders the text content of an HTML document as a DOCX
// file, one paragraph per non-empty source line.
func HTMLToDOCX(payload []byte) ([]byte, error) {
	text, err := htmlToPlain(payload)
	if err != nil {
		return nil, err
	}

	doc := docx.New().WithDefaultTheme()
	for _, line := range strings.Split(text, "\n") {
		para := doc.AddParagraph()
		if s := strings.TrimSpace(line); s != "" {
			para.AddText(s)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, newError(KindInternalError, "write docx: %v", err)
	}
	return buf.Bytes(), nil
}

// DOCXToText extracts the paragraph and table text of a DOCX document.
func DOCXToText(payload []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = newError(KindMalformedInput, "parse docx: %v", r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, newError(KindMalformedInput, "parse docx: %v", err)
	}

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			b.WriteString(fmt.Sprint(item))
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}
