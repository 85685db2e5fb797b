package format

import "sort"

// Hop is one directed step through the conversion graph. A direct
// converter exists for every hop the graph hands out.
type Hop struct {
	From Format
	To   Format
}

// Graph records which format pairs are directly convertible and resolves
// multi-hop paths through pivot formats when no direct edge exists. The
// zero value is an empty graph ready for AddEdge.
type Graph struct {
	edges map[Format][]Format
}

// pivotRank orders formats for deterministic tie-breaking: when two
// shortest paths exist, the one routed through the lower-ranked pivot
// wins. Lossless text pivots come first.
var pivotRank = map[Format]int{
	HTML:     0,
	Markdown: 1,
	Text:     2,
	PDF:      3,
	DOCX:     4,
}

// NewGraph returns the default conversion graph. HTML is the central
// pivot: every format can reach it or be reached from it except the
// binary formats, which are write-only (from HTML) or read-only (to
// text).
func NewGraph() *Graph {
	g := &Graph{edges: make(map[Format][]Format)}
	g.AddEdge(Text, HTML)
	g.AddEdge(HTML, Text)
	g.AddEdge(Markdown, HTML)
	g.AddEdge(HTML, Markdown)
	g.AddEdge(HTML, PDF)
	g.AddEdge(PDF, Text)
	g.AddEdge(HTML, DOCX)
	g.AddEdge(DOCX, Text)
	return g
}

// AddEdge declares that a direct converter exists from one format to
// another. Adjacency stays sorted by pivot rank so path resolution is
// deterministic.
func (g *Graph) AddEdge(from, to Format) {
	if g.edges == nil {
		g.edges = make(map[Format][]Format)
	}
	neighbors := append(g.edges[from], to)
	sort.Slice(neighbors, func(i, j int) bool {
		return pivotRank[neighbors[i]] < pivotRank[neighbors[j]]
	})
	g.edges[from] = neighbors
}

// HasEdge reports whether a direct converter is declared for the pair.
func (g *Graph) HasEdge(from, to Format) bool {
	for _, n := range g.edges[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Path resolves the shortest hop sequence from one format to another
// using breadth-first search. Identity conversions yield an empty path.
// The second return value is false when no path exists; absence of a
// path is an expected outcome, not an error.
func (g *Graph) Path(from, to Format) ([]Hop, bool) {
	if !from.Valid() || !to.Valid() {
		return nil, false
	}
	if from == to {
		return []Hop{}, true
	}

	// BFS over the adjacency lists. Neighbor order is pivot-ranked and
	// the first path found to each node is kept, so equal-length paths
	// resolve the same way every time.
	prev := map[Format]Format{from: from}
	queue := []Format{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return buildPath(prev, from, to), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func buildPath(prev map[Format]Format, from, to Format) []Hop {
	var reversed []Format
	for cur := to; cur != from; cur = prev[cur] {
		reversed = append(reversed, cur)
	}
	hops := make([]Hop, 0, len(reversed))
	cur := from
	for i := len(reversed) - 1; i >= 0; i-- {
		hops = append(hops, Hop{From: cur, To: reversed[i]})
		cur = reversed[i]
	}
	return hops
}
