// Package model defines the language-agnostic call-graph and schema model:
// the nodes, edges, chains, and mismatches that flow through the rest of
// the pipeline. Schema flavor is represented as a tagged variant rather
// than a class hierarchy, so the contract checker can stay a total
// function over a small, finite cross-product of flavors.
package model

import (
	"crypto/sha256"
	"fmt"
)

// Adapter identifies which source-language adapter produced a node.
type Adapter string

const (
	AdapterFastAPI    Adapter = "fastapi"
	AdapterTypeScript Adapter = "typescript"
	AdapterNestJS     Adapter = "nestjs"
	AdapterOpenAPI    Adapter = "openapi"
)

// NodeId is the stable, content-independent identity of a graph entity:
// (adapter tag, source path, symbol path). Two runs over the same bytes
// must produce identical NodeIds so the on-disk cache can match across
// runs.
type NodeId struct {
	Adapter Adapter
	Path    string
	Symbol  string
}

// String renders the NodeId as a compact, deterministic key suitable for
// map indexing and cache serialization.
func (id NodeId) String() string {
	return fmt.Sprintf("%s:%s:%s", id.Adapter, id.Path, id.Symbol)
}

// Hash returns a short hex digest of the NodeId (the first 12 bytes of its
// SHA-256), a compact, collision-resistant alternative to the full
// path+symbol string.
func (id NodeId) Hash() string {
	h := sha256.Sum256([]byte(id.String()))
	return fmt.Sprintf("%x", h[:12])
}

// NewNodeId builds a NodeId from its three components.
func NewNodeId(adapter Adapter, path, symbol string) NodeId {
	return NodeId{Adapter: adapter, Path: path, Symbol: symbol}
}
