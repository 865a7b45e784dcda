// Package assemble merges per-file extract.Result values into a single
// frozen model.Graph (spec §3, §5). This is the only phase allowed to
// mutate the graph; once Assemble returns, every later phase treats the
// graph as read-only, matching the concurrency model's "parse/extract may
// run concurrently, merge is single-threaded" rule.
package assemble

import (
	"fmt"

	"github.com/stitchlint/stitchlint/internal/extract"
	"github.com/stitchlint/stitchlint/internal/model"
)

// CollisionError reports two distinct symbols claiming the same NodeId, a
// programmer/extractor-bug invariant violation rather than a recoverable
// diagnostic: spec §8 states "no two distinct symbols share a NodeId" as a
// universal invariant, so a violation here means an extractor emitted bad
// output, not that the analyzed source is malformed.
type CollisionError struct {
	ID model.NodeId
}

func (e CollisionError) Error() string {
	return fmt.Sprintf("duplicate NodeId %s from two distinct extractor outputs", e.ID.String())
}

// Assemble merges results, one per parsed file, into a single graph. It
// fails only on NodeId collision; every other input is accepted as-is.
func Assemble(results []*extract.Result) (*model.Graph, error) {
	g := model.NewGraph()

	for _, r := range results {
		if r == nil {
			continue
		}
		mod := r.Module
		g.Modules[mod.Path] = &mod

		for _, s := range r.Symbols {
			sym := s
			if existing, ok := g.Symbols[sym.ID.String()]; ok && !sameSymbol(existing, &sym) {
				return nil, CollisionError{ID: sym.ID}
			}
			g.Symbols[sym.ID.String()] = &sym
		}

		for _, route := range r.Routes {
			route := route
			if existing, ok := g.Routes[route.ID.String()]; ok && !sameRoute(existing, &route) {
				return nil, CollisionError{ID: route.ID}
			}
			g.Routes[route.ID.String()] = &route
		}

		for _, schema := range r.Schemas {
			schema := schema
			if existing, ok := g.Schemas[schema.ID.String()]; ok && !sameSchema(existing, &schema) {
				return nil, CollisionError{ID: schema.ID}
			}
			g.Schemas[schema.ID.String()] = &schema
		}

		for _, call := range r.ApiCalls {
			call := call
			g.ApiCalls[call.ID.String()] = &call
		}

		g.Edges = append(g.Edges, r.Edges...)
	}

	g.BuildEdgeIndex()
	return g, nil
}

func sameSymbol(a, b *model.Symbol) bool {
	return a.Kind == b.Kind && a.Module == b.Module && a.Name == b.Name && a.Span == b.Span
}

func sameRoute(a, b *model.Route) bool {
	return a.Method == b.Method && a.Path == b.Path && a.HandlerSymbol == b.HandlerSymbol
}

func sameSchema(a, b *model.Schema) bool {
	return a.Flavor == b.Flavor && a.Name == b.Name && len(a.Fields) == len(b.Fields)
}
