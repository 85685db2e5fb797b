package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptsAliases(t *testing.T) {
	f, err := Parse("md")
	require.NoError(t, err)
	assert.Equal(t, Markdown, f)

	f, err = Parse(" TXT ")
	require.NoError(t, err)
	assert.Equal(t, Text, f)

	_, err = Parse("rtf")
	assert.Error(t, err)
}

func TestGraph_DirectEdge(t *testing.T) {
	g := NewGraph()

	path, ok := g.Path(Markdown, HTML)
	require.True(t, ok)
	require.Len(t, path, 1)
	assert.Equal(t, Hop{From: Markdown, To: HTML}, path[0])
}

func TestGraph_IdentityPathIsEmpty(t *testing.T) {
	g := NewGraph()

	path, ok := g.Path(PDF, PDF)
	require.True(t, ok)
	assert.Empty(t, path)
}

func TestGraph_PivotsThroughHTML(t *testing.T) {
	g := NewGraph()

	path, ok := g.Path(Markdown, PDF)
	require.True(t, ok)
	require.Len(t, path, 2)
	assert.Equal(t, Hop{From: Markdown, To: HTML}, path[0])
	assert.Equal(t, Hop{From: HTML, To: PDF}, path[1])
}

func TestGraph_ThreeHopPath(t *testing.T) {
	g := NewGraph()

	// DOCX can only be read into text, so reaching Markdown takes
	// docx -> text -> html -> markdown.
	path, ok := g.Path(DOCX, Markdown)
	require.True(t, ok)
	require.Len(t, path, 3)
	assert.Equal(t, Hop{From: DOCX, To: Text}, path[0])
	assert.Equal(t, Hop{From: Text, To: HTML}, path[1])
	assert.Equal(t, Hop{From: HTML, To: Markdown}, path[2])
}

func TestGraph_NoPath(t *testing.T) {
	g := &Graph{edges: make(map[Format][]Format)}
	g.AddEdge(Text, HTML)

	_, ok := g.Path(Text, DOCX)
	assert.False(t, ok)
}

func TestGraph_DeterministicTieBreak(t *testing.T) {
	// Two equal-length routes from text to pdf: via html and via a
	// hypothetical direct markdown writer. The html pivot must win.
	g := &Graph{edges: make(map[Format][]Format)}
	g.AddEdge(Text, Markdown)
	g.AddEdge(Text, HTML)
	g.AddEdge(Markdown, PDF)
	g.AddEdge(HTML, PDF)

	for i := 0; i < 20; i++ {
		path, ok := g.Path(Text, PDF)
		require.True(t, ok)
		require.Len(t, path, 2)
		assert.Equal(t, HTML, path[0].To)
	}
}

func TestGraph_InvalidFormatHasNoPath(t *testing.T) {
	g := NewGraph()

	_, ok := g.Path(Format("rtf"), HTML)
	assert.False(t, ok)
}

func TestAll_EveryFormatIsANode(t *testing.T) {
	g := NewGraph()

	for _, f := range All() {
		_, outbound := g.edges[f]
		inbound := false
		for _, neighbors := range g.edges {
			for _, n := range neighbors {
				if n == f {
					inbound = true
				}
			}
		}
		assert.True(t, outbound || inbound, "format %s is not in the graph", f)
	}
}
