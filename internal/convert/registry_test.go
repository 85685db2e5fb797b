package convert

import (
	"strings"
	"testing"

	"github.com/docpivot/docpivot/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IdentityReturnsPayloadUnchanged(t *testing.T) {
	r := NewRegistry()

	in := []byte("# Hello\n\nWorld")
	out, err := r.Convert(format.Markdown, format.Markdown, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRegistry_UnregisteredPairIsInternalError(t *testing.T) {
	r := &Registry{converters: map[pair]Func{}}

	_, err := r.Convert(format.Text, format.PDF, []byte("x"))
	require.Error(t, err)
	assert.Equal(t, KindInternalError, AsError(err).Kind)
}

func TestTextToHTML_EscapesAndPreservesLineBreaks(t *testing.T) {
	out, err := TextToHTML([]byte("a < b\nnext"))
	require.NoError(t, err)
	assert.Equal(t, "a &lt; b<br>\nnext", string(out))
}

func TestMarkdownToHTML_RendersHeadingAndParagraph(t *testing.T) {
	out, err := MarkdownToHTML([]byte("# Hello\n\nWorld"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Hello</h1>")
	assert.Contains(t, string(out), "<p>World</p>")
}

func TestHTMLToText_StripsMarkup(t *testing.T) {
	out, err := HTMLToText([]byte("<h1>Hello</h1><p>World</p>"))
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
	assert.NotContains(t, text, "<")
}

func TestMarkdownRoundTrip_SimpleContentSurvives(t *testing.T) {
	html, err := MarkdownToHTML([]byte("# Hello\n\nWorld"))
	require.NoError(t, err)

	md, err := HTMLToMarkdown(html)
	require.NoError(t, err)

	assert.Contains(t, string(md), "# Hello")
	assert.Contains(t, string(md), "World")
}

func TestHTMLToPDF_ProducesReadablePDF(t *testing.T) {
	pdfBytes, err := HTMLToPDF([]byte("<h1>Hello</h1><p>World</p>"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(pdfBytes), "%PDF"), "missing PDF header")

	text, err := PDFToText(pdfBytes)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello")
}

func TestPDFToText_MalformedInput(t *testing.T) {
	_, err := PDFToText([]byte("not a pdf"))
	require.Error(t, err)
	assert.Equal(t, KindMalformedInput, AsError(err).Kind)
}

func TestHTMLToDOCX_ProducesReadableDOCX(t *testing.T) {
	docxBytes, err := HTMLToDOCX([]byte("<h1>Hello</h1><p>World</p>"))
	require.NoError(t, err)
	// DOCX is a zip container.
	require.True(t, strings.HasPrefix(string(docxBytes), "PK"), "missing zip header")

	text, err := DOCXToText(docxBytes)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello")
}

func TestDOCXToText_MalformedInput(t *testing.T) {
	_, err := DOCXToText([]byte("not a docx"))
	require.Error(t, err)
	assert.Equal(t, KindMalformedInput, AsError(err).Kind)
}

func TestAsError_WrapsUnclassifiedErrors(t *testing.T) {
	err := AsError(assert.AnError)
	assert.Equal(t, KindInternalError, err.Kind)

	classified := newError(KindUnsupportedFeature, "nested tables")
	assert.Same(t, classified, AsError(classified))
}

func TestRegistry_SupportsEveryGraphEdge(t *testing.T) {
	r := NewRegistry()
	g := format.NewGraph()

	for _, from := range format.All() {
		for _, to := range format.All() {
			if g.HasEdge(from, to) {
				assert.True(t, r.Supports(from, to), "%s -> %s", from, to)
			}
		}
	}

	assert.False(t, r.Supports(format.Text, format.PDF))
}
