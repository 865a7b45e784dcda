// Package parse holds the per-dialect parsers (spec §4.1). Each parser is
// pure: source bytes in, a syntax tree plus a positional index out. They
// never follow imports — that is internal/resolve's job.
package parse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/stitchlint/stitchlint/internal/model"
)

// Language is a parseable source dialect.
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
)

// FileExtensions maps each language to its recognized file extensions.
var FileExtensions = map[Language][]string{
	LangPython:     {".py", ".pyi"},
	LangTypeScript: {".ts", ".tsx"},
}

// Diagnostic is a non-fatal parse-time finding; the tree is still usable
// unless Fatal is set.
type Diagnostic struct {
	Message string
	Fatal   bool
}

// Tree is a parsed file: its tree-sitter AST, the original bytes (needed
// to recover node text), and a positional index from byte offset to
// line/column.
type Tree struct {
	FilePath    string
	Language    Language
	Content     []byte
	Root        *sitter.Node
	Underlying  *sitter.Tree
	Diagnostics []Diagnostic
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.Underlying != nil {
		t.Underlying.Close()
	}
}

// Text returns the source text spanned by node.
func (t *Tree) Text(node *sitter.Node) string {
	return node.Content(t.Content)
}

// Line returns the 1-indexed start line of node, using the positional
// index tree-sitter already tracks per node.
func (t *Tree) Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-indexed end line of node.
func (t *Tree) EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}

// Column returns the 0-indexed start column of node.
func (t *Tree) Column(node *sitter.Node) int {
	return int(node.StartPoint().Column)
}

// Span builds a model.Span from a tree-sitter node.
func (t *Tree) Span(node *sitter.Node) model.Span {
	return model.Span{StartLine: t.Line(node), EndLine: t.EndLine(node), Column: t.Column(node)}
}

// Parser parses one file of its language into a Tree.
type Parser interface {
	Language() Language
	Extensions() []string
	Parse(filePath string, content []byte) (*Tree, error)
}
