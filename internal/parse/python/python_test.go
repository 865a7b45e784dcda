package python

import "testing"

func TestParserLanguageAndExtensions(t *testing.T) {
	p := New()
	if p.Language() != "python" {
		t.Errorf("Language() = %q, want %q", p.Language(), "python")
	}
	exts := p.Extensions()
	want := map[string]bool{".py": true, ".pyi": true}
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
	src := []byte("def greet(name: str) -> str:\n    return f\"hello {name}\"\n")
	tree, err := p.Parse("greet.py", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer tree.Close()

	if tree.FilePath != "greet.py" {
		t.Errorf("FilePath = %q, want %q", tree.FilePath, "greet.py")
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
	src := []byte("def broken(:\n")
	tree, err := p.Parse("broken.py", src)
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
