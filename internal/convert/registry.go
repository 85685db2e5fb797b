// Package convert implements the pure conversion functions between
// document formats and the registry that dispatches on format pairs.
package convert

import (
	"github.com/docpivot/docpivot/internal/format"
)

// Func transforms a payload from one fixed format to another. Functions
// are pure: no shared state, no retries, no knowledge of jobs.
type Func func(payload []byte) ([]byte, error)

type pair struct {
	from format.Format
	to   format.Format
}

// Registry maps ordered format pairs to conversion functions.
type Registry struct {
	converters map[pair]Func
}

// NewRegistry returns a registry with every default converter
// registered. The registered pairs match the edges of
// format.NewGraph exactly.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[pair]Func)}
	r.Register(format.Text, format.HTML, TextToHTML)
	r.Register(format.HTML, format.Text, HTMLToText)
	r.Register(format.Markdown, format.HTML, MarkdownToHTML)
	r.Register(format.HTML, format.Markdown, HTMLToMarkdown)
	r.Register(format.HTML, format.PDF, HTMLToPDF)
	r.Register(format.PDF, format.Text, PDFToText)
	r.Register(format.HTML, format.DOCX, HTMLToDOCX)
	r.Register(format.DOCX, format.Text, DOCXToText)
	return r
}

// Register binds a conversion function to an ordered format pair,
// replacing any previous binding.
func (r *Registry) Register(from, to format.Format, fn Func) {
	r.converters[pair{from: from, to: to}] = fn
}

// Supports reports whether a converter is registered for the pair.
func (r *Registry) Supports(from, to format.Format) bool {
	_, ok := r.converters[pair{from: from, to: to}]
	return ok
}

// Convert applies the converter registered for the pair. Identity pairs
// return the payload unchanged. Failures are always a classified
// *Error.
func (r *Registry) Convert(from, to format.Format, payload []byte) ([]byte, error) {
	if from == to {
		return payload, nil
	}
	fn, ok := r.converters[pair{from: from, to: to}]
	if !ok {
		return nil, newError(KindInternalError, "no converter registered for %s -> %s", from, to)
	}
	out, err := fn(payload)
	if err != nil {
		return nil, AsError(err)
	}
	return out, nil
}
