package parse_test

import (
	"testing"

	"github.com/stitchlint/stitchlint/internal/parse"
	"github.com/stitchlint/stitchlint/internal/parse/python"
)

func TestTreeSpanAndTextHelpers(t *testing.T) {
	p := python.New()
	src := []byte("def greet():\n    pass\n")
	tree, err := p.Parse("greet.py", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer tree.Close()

	fn := tree.Root.NamedChild(0)
	if fn == nil {
		t.Fatal("expected a top-level function definition node")
	}

	if tree.Line(fn) != 1 {
		t.Errorf("Line() = %d, want 1", tree.Line(fn))
	}
	if tree.EndLine(fn) != 2 {
		t.Errorf("EndLine() = %d, want 2", tree.EndLine(fn))
	}
	if tree.Column(fn) != 0 {
		t.Errorf("Column() = %d, want 0", tree.Column(fn))
	}

	span := tree.Span(fn)
	if span.StartLine != 1 || span.EndLine != 2 || span.Column != 0 {
		t.Errorf("Span() = %+v, want {StartLine:1 EndLine:2 Column:0}", span)
	}

	text := tree.Text(fn)
	if text == "" {
		t.Error("Text() returned empty string for a well-formed node")
	}
}

func TestFileExtensionsTable(t *testing.T) {
	if exts := parse.FileExtensions[parse.LangPython]; len(exts) != 2 {
		t.Errorf("FileExtensions[LangPython] = %v, want 2 entries", exts)
	}
	if exts := parse.FileExtensions[parse.LangTypeScript]; len(exts) != 2 {
		t.Errorf("FileExtensions[LangTypeScript] = %v, want 2 entries", exts)
	}
}
