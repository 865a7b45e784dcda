// Package extract defines the per-adapter extractor contract (spec §4.2):
// a function from one parsed file to the graph fragments it contributes.
package extract

import "github.com/stitchlint/stitchlint/internal/model"

// Result holds everything one file's extractor emits. The assembler
// (internal/assemble) merges Results from every file of every adapter into
// a single model.Graph.
type Result struct {
	Module   model.Module
	Symbols  []model.Symbol
	Edges    []model.Edge
	Routes   []model.Route
	Schemas  []model.Schema
	ApiCalls []model.ApiCall
}
