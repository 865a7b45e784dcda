package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stitchlint/stitchlint/internal/config"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/report"
)

// chainsTestdata resolves a directory under testdata/chains, the fixture
// root for the end-to-end scenario tests below, grounded on the teacher's
// internal/parser/golang/testdata fixture convention: one directory per
// scenario, read straight off disk rather than built with t.TempDir, since
// nothing in the run mutates the source tree.
func chainsTestdata(name string) string {
	return filepath.Join("..", "..", "testdata", "chains", name)
}

// findFullChain returns the first Full chain in chains, if any.
func findFullChain(chains []report.ChainReport) (report.ChainReport, bool) {
	for _, c := range chains {
		if c.Type == model.ChainFull {
			return c, true
		}
	}
	return report.ChainReport{}, false
}

// mismatchesOfKind flattens every mismatch of the given kind across a
// chain's stitches.
func mismatchesOfKind(c report.ChainReport, kind model.MismatchKind) []report.MismatchReport {
	var out []report.MismatchReport
	for _, s := range c.Stitches {
		for _, m := range s.Mismatches {
			if m.Kind == kind {
				out = append(out, m)
			}
		}
	}
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ProjectName: "demo",
		Adapters: []config.AdapterConfig{
			{Type: string(config.AdapterTypeFastAPI), AppPath: "backend/app"},
		},
	}
}

func TestFingerprintStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "backend/app/users.py"), "def f(): pass\n")
	cfg := testConfig()

	a := Fingerprint(cfg, dir)
	b := Fingerprint(cfg, dir)
	if a != b {
		t.Errorf("Fingerprint() not stable across calls: %q != %q", a, b)
	}
}

func TestFingerprintChangesWhenFileContentChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backend/app/users.py")
	writeFile(t, path, "def f(): pass\n")
	cfg := testConfig()

	before := Fingerprint(cfg, dir)

	// Force a distinct mtime: some filesystems have coarse mtime resolution.
	future := time.Now().Add(time.Hour)
	writeFile(t, path, "def f(): return 1\n")
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	after := Fingerprint(cfg, dir)
	if before == after {
		t.Error("Fingerprint() unchanged after editing a tracked source file")
	}
}

func TestFingerprintChangesWhenFileAdded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "backend/app/users.py"), "def f(): pass\n")
	cfg := testConfig()

	before := Fingerprint(cfg, dir)
	writeFile(t, filepath.Join(dir, "backend/app/orders.py"), "def g(): pass\n")
	after := Fingerprint(cfg, dir)

	if before == after {
		t.Error("Fingerprint() unchanged after adding a new source file")
	}
}

func TestCacheDirUsesProjectName(t *testing.T) {
	dir := "/tmp/project"
	cfg := &config.Config{ProjectName: "my/app"}
	got := CacheDir(cfg, dir)
	want := filepath.Join(dir, ".stitchlint-cache", "my_app")
	if got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

func TestCacheDirDefaultsWhenProjectNameUnset(t *testing.T) {
	got := CacheDir(&config.Config{}, "/tmp/project")
	want := filepath.Join("/tmp/project", ".stitchlint-cache", "default")
	if got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

// fullStackConfig configures a fastapi backend plus a typescript frontend
// adapter rooted at dir, the shape every testdata/chains fixture below uses.
func fullStackConfig() *config.Config {
	return &config.Config{
		ProjectName: "demo",
		Adapters: []config.AdapterConfig{
			{Type: string(config.AdapterTypeFastAPI), AppPath: "backend/app"},
			{Type: string(config.AdapterTypeTypeScript), SrcPaths: []string{"frontend/src"}},
		},
	}
}

// TestRunCleanChainHasNoCriticalMismatches runs the full parse through
// report pipeline over a matched GET /users/{id} endpoint whose Pydantic
// response model and SQLAlchemy model agree, alongside an unrelated Zod
// schema and TS interface on the frontend side. Every schema flavor the
// two adapters can produce should show up in the summary, and the route's
// own Full chain should carry zero critical findings.
func TestRunCleanChainHasNoCriticalMismatches(t *testing.T) {
	dir := chainsTestdata("clean")
	result, err := Run(fullStackConfig(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %+v, want none", result.Diagnostics)
	}

	for _, flavor := range []model.SchemaFlavor{
		model.FlavorZod, model.FlavorTSInterface, model.FlavorPydantic, model.FlavorORM,
	} {
		if result.Report.Summary.Schemas.ByType[flavor] == 0 {
			t.Errorf("Summary.Schemas.ByType[%s] = 0, want at least one", flavor)
		}
	}

	full, ok := findFullChain(result.Report.Chains)
	if !ok {
		t.Fatalf("no Full chain in report, chains: %+v", result.Report.Chains)
	}
	for _, s := range full.Stitches {
		for _, m := range s.Mismatches {
			if m.Severity == model.SeverityCritical {
				t.Errorf("clean chain has a critical mismatch: %+v", m)
			}
		}
	}
}

// TestRunTypeMismatchAtHTTPStitch matches a POST /users call whose handler
// takes a request DTO typed id:string and returns a response model typed
// id:integer. httpStitch carries the route's own request/response schemas
// as the stitch's two sides, so a type disagreement between them (rather
// than a disagreement with the frontend Zod schema, which the chain never
// wires in today) is what the real pipeline can actually surface; see
// DESIGN.md for why this is the faithful reproduction of that boundary.
func TestRunTypeMismatchAtHTTPStitch(t *testing.T) {
	dir := chainsTestdata("type_mismatch")
	result, err := Run(fullStackConfig(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	full, ok := findFullChain(result.Report.Chains)
	if !ok {
		t.Fatalf("no Full chain in report, chains: %+v", result.Report.Chains)
	}
	found := mismatchesOfKind(full, model.MismatchType)
	if len(found) == 0 {
		t.Fatalf("expected a TypeMismatch on the HTTP stitch, chain: %+v", full)
	}
	if found[0].Field != "id" {
		t.Errorf("TypeMismatch field = %q, want %q", found[0].Field, "id")
	}
	if result.Report.Summary.CriticalIssues == 0 {
		t.Errorf("Summary.CriticalIssues = 0, want at least one for a default-severity TypeMismatch")
	}
}

// TestRunMissingRequiredFieldAtHTTPStitch matches a POST /users handler
// whose response model declares a required created_at field the request
// DTO never had, producing a MissingField finding on the right-only field.
func TestRunMissingRequiredFieldAtHTTPStitch(t *testing.T) {
	dir := chainsTestdata("missing_field")
	result, err := Run(fullStackConfig(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	full, ok := findFullChain(result.Report.Chains)
	if !ok {
		t.Fatalf("no Full chain in report, chains: %+v", result.Report.Chains)
	}
	found := mismatchesOfKind(full, model.MismatchMissingField)
	if len(found) == 0 {
		t.Fatalf("expected a MissingField finding, chain: %+v", full)
	}
	hasCreatedAt := false
	for _, m := range found {
		if m.Field == "created_at" {
			hasCreatedAt = true
		}
	}
	if !hasCreatedAt {
		t.Errorf("MissingField findings = %+v, want one naming created_at", found)
	}
}

// TestRunUnnormalizedEmailAtHTTPStitch matches a POST /users handler whose
// response model types email as EmailStr while the request DTO types it as
// a bare str, so the two sides agree on the canonical "string" type but
// disagree on the email validator, producing UnnormalizedData rather than
// TypeMismatch.
func TestRunUnnormalizedEmailAtHTTPStitch(t *testing.T) {
	dir := chainsTestdata("unnormalized")
	result, err := Run(fullStackConfig(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	full, ok := findFullChain(result.Report.Chains)
	if !ok {
		t.Fatalf("no Full chain in report, chains: %+v", result.Report.Chains)
	}
	if len(mismatchesOfKind(full, model.MismatchType)) != 0 {
		t.Errorf("unexpected TypeMismatch on an email validator disagreement, chain: %+v", full)
	}
	found := mismatchesOfKind(full, model.MismatchUnnormalized)
	if len(found) == 0 {
		t.Fatalf("expected an UnnormalizedData finding, chain: %+v", full)
	}
	if found[0].Field != "email" {
		t.Errorf("UnnormalizedData field = %q, want %q", found[0].Field, "email")
	}
}

// TestRunOpenAPIOnlyEndpointProducesDriftAndVirtualRoute configures only an
// OpenAPI document (no adapters at all) declaring DELETE /items/{id}. With
// no code route to match, linking synthesizes a virtual route and a
// component-without-code drift finding, which surfaces as a BackendInternal
// chain carrying an OpenAPIDrift mismatch.
func TestRunOpenAPIOnlyEndpointProducesDriftAndVirtualRoute(t *testing.T) {
	dir := chainsTestdata("openapi_only")
	cfg := &config.Config{ProjectName: "demo", OpenAPIPath: "openapi.json"}

	result, err := Run(cfg, dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Report.Summary.TotalChains != 1 {
		t.Fatalf("TotalChains = %d, want 1, chains: %+v", result.Report.Summary.TotalChains, result.Report.Chains)
	}
	chain := result.Report.Chains[0]
	if chain.Type != model.ChainBackendInternal {
		t.Errorf("chain.Type = %q, want %q", chain.Type, model.ChainBackendInternal)
	}
	drift := mismatchesOfKind(chain, model.MismatchOpenAPIDrift)
	if len(drift) == 0 {
		t.Fatalf("expected an OpenAPIDrift finding, chain: %+v", chain)
	}
}

// TestRunFrontendCallWithoutMatchingRouteStaysPartial exercises a
// frontend-only file that imports from a module path no adapter ever
// extracts (a stand-in for an unresolvable import): the driver never
// resolves cross-file imports at all today (see DESIGN.md), so this
// documents the real degradation path a strict_imports-style scenario
// would hit once wired — the call simply finds no matching route and
// produces a FrontendInternal chain, with no parse/extract diagnostics and
// no panic.
func TestRunFrontendCallWithoutMatchingRouteStaysPartial(t *testing.T) {
	dir := chainsTestdata("frontend_only")
	cfg := &config.Config{
		ProjectName: "demo",
		Adapters: []config.AdapterConfig{
			{Type: string(config.AdapterTypeTypeScript), SrcPaths: []string{"frontend/src"}},
		},
	}

	result, err := Run(cfg, dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %+v, want none", result.Diagnostics)
	}
	if result.Report.Summary.TotalChains != 1 {
		t.Fatalf("TotalChains = %d, want 1, chains: %+v", result.Report.Summary.TotalChains, result.Report.Chains)
	}
	if result.Report.Chains[0].Type != model.ChainFrontendInternal {
		t.Errorf("chain.Type = %q, want %q", result.Report.Chains[0].Type, model.ChainFrontendInternal)
	}
}
