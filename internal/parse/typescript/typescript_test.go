package typescript

import "testing"

func TestParserLanguageAndExtensions(t *testing.T) {
	p := New()
	if p.Language() != "typescript" {
		t.Errorf("Language() = %q, want %q", p.Language(), "typescript")
	}
	exts := p.Extensions()
	want := map[string]bool{".ts": true, ".tsx": true}
	if len(exts) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", exts, want)
	}
	for _, e := range exts {
		if !want[e] {
			t.Errorf("unexpected extension %q", e)
		}
	}
}

func TestParseWellFormedSource(t *testing.T) {
	p := New()
	src := []byte("export function greet(name: string): string {\n  return `hello ${name}`;\n}\n")
	tree, err := p.Parse("greet.ts", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer tree.Close()

	if tree.FilePath != "greet.ts" {
		t.Errorf("FilePath = %q, want %q", tree.FilePath, "greet.ts")
	}
	if tree.Root == nil {
		t.Fatal("Root is nil")
	}
	if tree.Root.HasError() {
		t.Error("well-formed source produced a parse error")
	}
	for _, d := range tree.Diagnostics {
		t.Errorf("unexpected diagnostic on well-formed source: %+v", d)
	}
}

func TestParseSyntaxErrorSetsDiagnostic(t *testing.T) {
	p := New()
	src := []byte("export function broken(: {\n")
	tree, err := p.Parse("broken.ts", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer tree.Close()

	if !tree.Root.HasError() {
		t.Fatal("expected malformed source to produce a parse error")
	}
	if len(tree.Diagnostics) == 0 {
		t.Error("expected a diagnostic for malformed source")
	}
}
