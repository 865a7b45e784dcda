package model

// EdgeKind enumerates the directed relations between nodes in the unified
// graph.
type EdgeKind string

const (
	EdgeCalls           EdgeKind = "calls"
	EdgeImports         EdgeKind = "imports"
	EdgeDefines         EdgeKind = "defines"
	EdgeImplementsRoute EdgeKind = "implements-route"
	EdgeParsesWith      EdgeKind = "parses-with"
	EdgePersistsAs      EdgeKind = "persists-as"
	EdgeSDKShim         EdgeKind = "sdk-shim"
)

// Edge is a directed relation between two nodes, identified by NodeId.
type Edge struct {
	Kind EdgeKind
	Src  NodeId
	Dst  NodeId
}
