// Package python wraps tree-sitter's Python grammar behind the parse.Parser
// interface. It is grounded on the teacher's internal/parser/python/parser.go,
// trimmed down to the "pure parse" half of that file — node/edge extraction
// now lives in internal/extract/fastapi, which walks the tree this package
// returns.
package python

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tssitter "github.com/smacker/go-tree-sitter/python"

	"github.com/stitchlint/stitchlint/internal/parse"
)

// Parser parses Python source into a parse.Tree.
type Parser struct{}

// New creates a Python parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() parse.Language { return parse.LangPython }

func (p *Parser) Extensions() []string { return parse.FileExtensions[parse.LangPython] }

func (p *Parser) Parse(filePath string, content []byte) (*parse.Tree, error) {
	lang := tssitter.GetLanguage()
	sp := sitter.NewParser()
	sp.SetLanguage(lang)

	tree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	root := tree.RootNode()
	var diags []parse.Diagnostic
	if root.HasError() {
		diags = append(diags, parse.Diagnostic{Message: "syntax errors in parse tree", Fatal: false})
	}

	return &parse.Tree{
		FilePath:    filePath,
		Language:    parse.LangPython,
		Content:     content,
		Root:        root,
		Underlying:  tree,
		Diagnostics: diags,
	}, nil
}
