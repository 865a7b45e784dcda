package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stitchlint/stitchlint/internal/model"
)

func sampleChains() []model.Chain {
	return []model.Chain{
		{
			Type: model.ChainFull,
			Nodes: []model.NodeId{
				model.NewNodeId(model.AdapterTypeScript, "frontend/src/api.ts", "apicall:1:1"),
				model.NewNodeId(model.AdapterFastAPI, "backend/app/users.py", "route:POST:/users"),
			},
			Stitches: []model.Stitch{{
				Kind: model.StitchHTTP,
				Mismatches: []model.Mismatch{
					{Kind: model.MismatchType, Severity: model.SeverityCritical, Field: "id", Message: "type mismatch"},
					{Kind: model.MismatchUnnormalized, Severity: model.SeverityWarning, Field: "email", Message: "missing validator"},
				},
			}},
		},
		{
			Type:  model.ChainBackendInternal,
			Nodes: []model.NodeId{model.NewNodeId(model.AdapterFastAPI, "backend/app/admin.py", "route:GET:/admin")},
		},
	}
}

func TestBuildSummaryCounts(t *testing.T) {
	schemas := map[string]*model.Schema{
		"a": {Flavor: model.FlavorPydantic},
		"b": {Flavor: model.FlavorZod},
	}

	r := Build(sampleChains(), schemas, time.Unix(0, 0).UTC())

	if r.Summary.TotalChains != 2 {
		t.Errorf("TotalChains = %d, want 2", r.Summary.TotalChains)
	}
	if r.Summary.CriticalIssues != 1 {
		t.Errorf("CriticalIssues = %d, want 1", r.Summary.CriticalIssues)
	}
	if r.Summary.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", r.Summary.Warnings)
	}
	if r.Summary.ValidChains != 1 {
		t.Errorf("ValidChains = %d, want 1 (the backend-internal chain has no mismatches)", r.Summary.ValidChains)
	}
	if r.Summary.ChainsByType[model.ChainFull] != 1 || r.Summary.ChainsByType[model.ChainBackendInternal] != 1 {
		t.Errorf("ChainsByType = %+v, want Full:1 BackendInternal:1", r.Summary.ChainsByType)
	}
	if r.Summary.Schemas.ByType[model.FlavorPydantic] != 1 || r.Summary.Schemas.ByType[model.FlavorZod] != 1 {
		t.Errorf("Schemas.ByType = %+v, want Pydantic:1 Zod:1", r.Summary.Schemas.ByType)
	}
}

func TestJSONWriterRoundTripsVersion(t *testing.T) {
	r := Build(sampleChains(), nil, time.Unix(0, 0).UTC())
	var buf bytes.Buffer
	if err := (JSONWriter{}).Write(r, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "1"`) {
		t.Errorf("JSON output missing version field:\n%s", buf.String())
	}
}

func TestMarkdownWriterIncludesTitleAndMismatches(t *testing.T) {
	r := Build(sampleChains(), nil, time.Unix(0, 0).UTC())
	var buf bytes.Buffer
	if err := (MarkdownWriter{ProjectName: "demo"}).Write(r, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "demo — stitchlint report") {
		t.Errorf("missing project title:\n%s", out)
	}
	if !strings.Contains(out, "TypeMismatch") {
		t.Errorf("missing mismatch kind in recommendations:\n%s", out)
	}
}

func TestDOTWriterGroupsByAdapter(t *testing.T) {
	graph := model.NewGraph()
	graph.Edges = []model.Edge{
		{Kind: model.EdgeCalls,
			Src: model.NewNodeId(model.AdapterFastAPI, "backend/app/users.py", "create_user"),
			Dst: model.NewNodeId(model.AdapterFastAPI, "backend/app/crud.py", "insert_user")},
	}
	var buf bytes.Buffer
	if err := (DOTWriter{}).Write(graph, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), "digraph fastapi {") {
		t.Errorf("expected a digraph block for the fastapi adapter:\n%s", buf.String())
	}
}
