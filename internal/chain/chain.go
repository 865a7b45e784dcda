// Package chain extracts data chains (spec §4.6): ordered node sequences
// from a frontend API call through the matched backend route to any
// persisted ORM schema, each annotated with the stitches (schema
// boundaries) along the way.
//
// The model has no separate module-level NodeId (spec's Module carries
// only a path, not an identity), so "frontend entry modules" are
// represented here by their ApiCall nodes directly: each ApiCall is a
// traversal's starting point, which preserves the spec's "from entry,
// follow edges into ApiCall sites" shape without inventing a synthetic
// per-module node. This decision is recorded in the design ledger.
package chain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/openapi"
)

// defaultMaxDepth bounds traversal even when the configured
// max_recursion_depth is zero/unset, per the design note in spec §9.
const defaultMaxDepth = 32

// Options configures chain extraction.
type Options struct {
	MaxDepth int
	// PreferredBackendAdapter breaks ties among multiple matching code
	// routes in favor of the adapter explicitly referenced by this
	// configuration run (spec §4.6 tie-break rule).
	PreferredBackendAdapter model.Adapter
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return defaultMaxDepth
}

// Extract builds the full chain list from the assembled graph and the
// OpenAPI link result, sorted per spec §5's ordering guarantee.
func Extract(graph *model.Graph, link openapi.LinkResult, opts Options) []model.Chain {
	routes := allRoutes(link)
	routeIDs := make(map[string]bool, len(routes))
	for _, r := range routes {
		routeIDs[r.ID.String()] = true
	}
	usedRoutes := make(map[string]bool)

	var chains []model.Chain

	apiCallIDs := make([]string, 0, len(graph.ApiCalls))
	for id := range graph.ApiCalls {
		apiCallIDs = append(apiCallIDs, id)
	}
	sort.Strings(apiCallIDs)

	for _, id := range apiCallIDs {
		call := graph.ApiCalls[id]
		chain := extractFromApiCall(graph, call, routes, opts)
		if len(chain.Nodes) > 1 {
			for _, n := range chain.Nodes {
				if routeIDs[n.String()] {
					usedRoutes[n.String()] = true
				}
			}
		}
		chains = append(chains, chain)
	}

	for _, r := range routes {
		if usedRoutes[r.ID.String()] {
			continue
		}
		chains = append(chains, backendOnlyChain(r))
	}

	sortChains(chains)
	return chains
}

func allRoutes(link openapi.LinkResult) []model.Route {
	all := make([]model.Route, 0, len(link.EnrichedRoutes)+len(link.VirtualRoutes))
	all = append(all, link.EnrichedRoutes...)
	all = append(all, link.VirtualRoutes...)
	return all
}

func extractFromApiCall(graph *model.Graph, call *model.ApiCall, routes []model.Route, opts Options) model.Chain {
	visited := model.NewVisitSet()
	visited.Visit(call.ID)
	chain := model.Chain{Nodes: []model.NodeId{call.ID}}

	route := matchRoute(call, routes, opts.PreferredBackendAdapter)
	if route == nil {
		chain.Type = model.ChainFrontendInternal
		return chain
	}

	visited.Visit(route.ID)
	chain.Nodes = append(chain.Nodes, route.ID)
	chain.Stitches = append(chain.Stitches, httpStitch(call, route))

	if route.Origin == model.OriginCode {
		var last *model.NodeId
		if route.HasResponse {
			last = &route.ResponseSchema
		} else if route.HasRequest {
			last = &route.RequestSchema
		}
		walkBackend(graph, route.HandlerSymbol, visited, &chain, opts.maxDepth(), last)
	}

	chain.Type = model.ChainFull
	return chain
}

// matchRoute finds a route whose method and normalized path match the
// call's URL pattern, applying the spec §4.6 tie-break: prefer
// origin=code over origin=openapi-virtual, then prefer the configured
// backend adapter.
func matchRoute(call *model.ApiCall, routes []model.Route, preferredAdapter model.Adapter) *model.Route {
	var candidates []model.Route
	for _, r := range routes {
		if call.Method != "" && r.Method != call.Method && !call.MethodInferred {
			continue
		}
		if pathsMatch(call.URLPattern, r.Path) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.Origin == model.OriginCode) != (b.Origin == model.OriginCode) {
			return a.Origin == model.OriginCode
		}
		if preferredAdapter != "" {
			aPref := a.HandlerSymbol.Adapter == preferredAdapter
			bPref := b.HandlerSymbol.Adapter == preferredAdapter
			if aPref != bPref {
				return aPref
			}
		}
		return a.ID.String() < b.ID.String()
	})
	return &candidates[0]
}

func pathsMatch(callPattern, routePath string) bool {
	if callPattern == "" {
		return false
	}
	return segmentsEqual(holeNormalize(callPattern), holeNormalize(routePath))
}

func holeNormalize(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return []string{}
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = "*"
		} else if strings.HasPrefix(s, ":") {
			segs[i] = "*"
		} else if strings.HasPrefix(s, "$") || strings.Contains(s, "${") {
			segs[i] = "*"
		}
	}
	return segs
}

func segmentsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == "*" || b[i] == "*" {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func httpStitch(call *model.ApiCall, route *model.Route) model.Stitch {
	s := model.Stitch{Kind: model.StitchHTTP, Route: route.ID, HasRoute: true}
	if call.HasRequest {
		s.LeftSchema, s.HasLeft = call.RequestSchema, true
	} else if route.HasRequest {
		s.LeftSchema, s.HasLeft = route.RequestSchema, true
	}
	if route.HasResponse {
		s.RightSchema, s.HasRight = route.ResponseSchema, true
	} else if call.HasResponse {
		s.RightSchema, s.HasRight = call.ResponseSchema, true
	}
	return s
}

// walkBackend follows calls edges from a route's handler into CRUD-style
// functions and any schema they reference (an ORM schema yields a persist
// stitch, any other schema a transform stitch), bounded by maxDepth and
// guarded by visited. last tracks the most recently seen
// Pydantic-flavor schema reference, carried along so a persist stitch into
// an ORM schema can compare against the request/response schema it bridges
// from, per spec §4.7's "via from_attributes for persist stitches" rule.
func walkBackend(graph *model.Graph, from model.NodeId, visited model.VisitSet, chain *model.Chain, depth int, last *model.NodeId) {
	if depth <= 0 {
		return
	}
	if !visited.Visit(from) {
		return
	}
	chain.Nodes = append(chain.Nodes, from)

	for _, dst := range graph.Neighbors(from, model.EdgeCalls) {
		if schema, ok := graph.Schema(dst); ok {
			if !visited.Visit(dst) {
				continue
			}
			stitch := schemaStitch(schema, last)
			chain.Nodes = append(chain.Nodes, dst)
			chain.Stitches = append(chain.Stitches, stitch)
			if schema.Flavor == model.FlavorPydantic {
				id := dst
				last = &id
			}
			continue
		}
		walkBackend(graph, dst, visited, chain, depth-1, last)
	}
}

func schemaStitch(schema *model.Schema, last *model.NodeId) model.Stitch {
	kind := model.StitchTransform
	if schema.Flavor == model.FlavorORM {
		kind = model.StitchPersist
	}
	s := model.Stitch{Kind: kind, RightSchema: schema.ID, HasRight: true}
	if last != nil {
		s.LeftSchema, s.HasLeft = *last, true
	}
	return s
}

func backendOnlyChain(r model.Route) model.Chain {
	return model.Chain{Nodes: []model.NodeId{r.ID}, Type: model.ChainBackendInternal}
}

// sortChains enforces the stable ordering guarantee of spec §5: by
// (frontend-entry path, first-ApiCall source span, route method, route
// path).
func sortChains(chains []model.Chain) {
	sort.SliceStable(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if len(a.Nodes) == 0 || len(b.Nodes) == 0 {
			return len(a.Nodes) < len(b.Nodes)
		}
		first := a.Nodes[0]
		second := b.Nodes[0]
		if first.Path != second.Path {
			return first.Path < second.Path
		}
		ar, ac := spanOf(first)
		br, bc := spanOf(second)
		if ar != br {
			return ar < br
		}
		if ac != bc {
			return ac < bc
		}
		return routeKey(a) < routeKey(b)
	})
}

// spanOf parses the row/col pair encoded in an ApiCall's synthetic symbol
// ("apicall:row:col") for stable span-ordering; non-ApiCall nodes sort by
// zero span.
func spanOf(id model.NodeId) (int, int) {
	const prefix = "apicall:"
	if !strings.HasPrefix(id.Symbol, prefix) {
		return 0, 0
	}
	parts := strings.SplitN(strings.TrimPrefix(id.Symbol, prefix), ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	row, _ := strconv.Atoi(parts[0])
	col, _ := strconv.Atoi(parts[1])
	return row, col
}

func routeKey(c model.Chain) string {
	for _, n := range c.Nodes {
		if strings.HasPrefix(n.Symbol, "route:") {
			return n.Symbol
		}
	}
	return ""
}
