// Package format defines the closed set of document formats docpivot
// understands and the graph of direct conversions between them.
package format

import (
	"fmt"
	"strings"
)

// Format identifies one of the supported document representations.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	HTML     Format = "html"
	PDF      Format = "pdf"
	DOCX     Format = "docx"
)

// All returns the supported formats in their canonical listing order.
func All() []Format {
	return []Format{Text, Markdown, HTML, PDF, DOCX}
}

// aliases maps accepted input spellings to canonical formats.
var aliases = map[string]Format{
	"text":     Text,
	"txt":      Text,
	"plain":    Text,
	"markdown": Markdown,
	"md":       Markdown,
	"html":     HTML,
	"htm":      HTML,
	"pdf":      PDF,
	"docx":     DOCX,
}

// Parse converts a user-supplied format name to a Format.
func Parse(s string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown format %q", s)
	}
	return f, nil
}

// Valid reports whether f is a member of the supported set.
func (f Format) Valid() bool {
	switch f {
	case Text, Markdown, HTML, PDF, DOCX:
		return true
	}
	return false
}

// ContentType returns the MIME type served for payloads in this format.
func (f Format) ContentType() string {
	switch f {
	case Text:
		return "text/plain; charset=utf-8"
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	case PDF:
		return "application/pdf"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Description returns a human-readable label for the format.
func (f Format) Description() string {
	switch f {
	case Text:
		return "Plain text"
	case Markdown:
		return "Markdown"
	case HTML:
		return "HTML"
	case PDF:
		return "PDF"
	case DOCX:
		return "Microsoft Word (DOCX)"
	}
	return string(f)
}
