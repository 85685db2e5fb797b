package convert

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
)

// HTMLToPDF renders the text content of an HTML document as a simple
// paginated PDF, one paragraph per source line.
func HTMLToPDF(payload []byte) ([]byte, error) {
	text, err := htmlToPlain(payload)
	if err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			doc.Ln(4)
			continue
		}
		doc.MultiCell(0, 5, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, newError(KindInternalError, "write pdf: %v", err)
	}
	return buf.Bytes(), nil
}

// PDFToText extracts the plain text of every page of a PDF document.
// The underlying parser panics on some corrupt inputs, so those are
// recovered and reported as malformed input.
func PDFToText(payload []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = newError(KindMalformedInput, "parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, newError(KindMalformedInput, "parse pdf: %v", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, newError(KindMalformedInput, "extract page %d: %v", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
