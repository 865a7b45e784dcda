// Package typescript wraps tree-sitter's TypeScript grammar behind the
// parse.Parser interface, grounded on the teacher's
// internal/parser/typescript/parser.go (the "pure parse" half — extraction
// moved to internal/extract/tszod and internal/extract/nestjs).
package typescript

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tsgrammar "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/stitchlint/stitchlint/internal/parse"
)

// Parser parses TypeScript source into a parse.Tree.
type Parser struct{}

// New creates a TypeScript parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() parse.Language { return parse.LangTypeScript }

func (p *Parser) Extensions() []string { return parse.FileExtensions[parse.LangTypeScript] }

func (p *Parser) Parse(filePath string, content []byte) (*parse.Tree, error) {
	lang := tsgrammar.GetLanguage()
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
		Language:    parse.LangTypeScript,
		Content:     content,
		Root:        root,
		Underlying:  tree,
		Diagnostics: diags,
	}, nil
}
