package model

// Graph is the frozen, unified call graph produced by the assembler
// (internal/assemble). It is populated in strict phase order and is
// immutable thereafter — the chain extractor and contract checker only
// read from it, per spec §3's lifecycle invariant.
type Graph struct {
	Modules  map[string]*Module // keyed by Module.Path
	Symbols  map[string]*Symbol // keyed by NodeId.String()
	Routes   map[string]*Route
	Schemas  map[string]*Schema
	ApiCalls map[string]*ApiCall
	Edges    []Edge

	outgoing map[string][]Edge // src NodeId.String() -> edges
}

// NewGraph returns an empty Graph ready for population.
func NewGraph() *Graph {
	return &Graph{
		Modules:  make(map[string]*Module),
		Symbols:  make(map[string]*Symbol),
		Routes:   make(map[string]*Route),
		Schemas:  make(map[string]*Schema),
		ApiCalls: make(map[string]*ApiCall),
	}
}

// Symbol looks up a symbol by id.
func (g *Graph) Symbol(id NodeId) (*Symbol, bool) {
	s, ok := g.Symbols[id.String()]
	return s, ok
}

// Route looks up a route by id.
func (g *Graph) Route(id NodeId) (*Route, bool) {
	r, ok := g.Routes[id.String()]
	return r, ok
}

// Schema looks up a schema by id.
func (g *Graph) Schema(id NodeId) (*Schema, bool) {
	s, ok := g.Schemas[id.String()]
	return s, ok
}

// ApiCallByID looks up an API call by id.
func (g *Graph) ApiCallByID(id NodeId) (*ApiCall, bool) {
	c, ok := g.ApiCalls[id.String()]
	return c, ok
}

// BuildEdgeIndex indexes g.Edges by source NodeId for Neighbors lookups.
// Called once by the assembler after all edges are added; the graph is
// immutable afterward.
func (g *Graph) BuildEdgeIndex() {
	g.outgoing = make(map[string][]Edge, len(g.Edges))
	for _, e := range g.Edges {
		k := e.Src.String()
		g.outgoing[k] = append(g.outgoing[k], e)
	}
}

// Neighbors returns the destination NodeIds of edges of the given kind
// (or all kinds, if kind == "") leaving src.
func (g *Graph) Neighbors(src NodeId, kind EdgeKind) []NodeId {
	var out []NodeId
	for _, e := range g.outgoing[src.String()] {
		if kind == "" || e.Kind == kind {
			out = append(out, e.Dst)
		}
	}
	return out
}

// RoutesByMethodPath returns every route in g.Routes whose method and raw
// path equal the given values. Paths are compared as written; no
// path-hole normalization is applied.
func (g *Graph) RoutesByMethodPath(method HTTPMethod, path string) []*Route {
	var out []*Route
	for _, r := range g.Routes {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
