package check

import (
	"testing"

	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/openapi"
)

var testRules = Rules{
	TypeMismatch:     model.SeverityCritical,
	MissingField:     model.SeverityCritical,
	UnnormalizedData: model.SeverityWarning,
}

func schemaNode(path, symbol string) model.NodeId {
	return model.NewNodeId(model.AdapterFastAPI, path, symbol)
}

func TestCheckDetectsTypeAndMissingFieldMismatches(t *testing.T) {
	graph := model.NewGraph()

	left := &model.Schema{
		ID:     schemaNode("backend/app/users.py", "UserOut"),
		Flavor: model.FlavorPydantic,
		Name:   "UserOut",
		Fields: []model.Field{
			{Name: "id", DeclaredType: "int", Required: true},
			{Name: "email", DeclaredType: "EmailStr", Required: true, Validators: map[model.Validator]bool{model.ValidatorEmail: true}},
			{Name: "nickname", DeclaredType: "str", Required: true},
		},
	}
	right := &model.Schema{
		ID:     model.NewNodeId(model.AdapterTypeScript, "frontend/src/users.ts", "User"),
		Flavor: model.FlavorZod,
		Name:   "User",
		Fields: []model.Field{
			{Name: "id", DeclaredType: "string", Required: true},
			{Name: "email", DeclaredType: "string", Required: true},
		},
	}
	graph.Schemas[left.ID.String()] = left
	graph.Schemas[right.ID.String()] = right

	chains := []model.Chain{{
		Type: model.ChainFull,
		Stitches: []model.Stitch{{
			Kind:       model.StitchHTTP,
			LeftSchema: left.ID,
			HasLeft:    true,
			RightSchema: right.ID,
			HasRight:    true,
		}},
	}}

	got := Check(chains, graph, map[string]openapi.Bridge{}, nil, testRules)
	mismatches := got[0].Stitches[0].Mismatches

	var sawType, sawMissing, sawUnnormalized bool
	for _, m := range mismatches {
		switch {
		case m.Kind == model.MismatchType && m.Field == "id":
			sawType = true
		case m.Kind == model.MismatchMissingField && m.Field == "nickname":
			sawMissing = true
		case m.Kind == model.MismatchUnnormalized && m.Field == "email":
			sawUnnormalized = true
		}
	}
	if !sawType {
		t.Errorf("expected a MismatchType on field %q, got %+v", "id", mismatches)
	}
	if !sawMissing {
		t.Errorf("expected a MissingField on field %q (required, absent on the other side), got %+v", "nickname", mismatches)
	}
	if !sawUnnormalized {
		t.Errorf("expected an Unnormalized mismatch on field %q (email validator dropped), got %+v", "email", mismatches)
	}
}

func TestCompareFieldsMultiValidatorDiffIsDeterministic(t *testing.T) {
	l := model.Field{
		Name: "code", DeclaredType: "str", Required: true,
		Validators: map[model.Validator]bool{model.ValidatorEmail: true, model.ValidatorRegex: true, model.ValidatorURL: true},
	}
	r := model.Field{Name: "code", DeclaredType: "str", Required: true}

	var firstRun []model.Mismatch
	for i := 0; i < 20; i++ {
		got := compareFields(l, r, testRules)
		if i == 0 {
			firstRun = got
			continue
		}
		if len(got) != len(firstRun) {
			t.Fatalf("run %d: len(mismatches) = %d, want %d (same every run)", i, len(got), len(firstRun))
		}
		for j := range got {
			if got[j].Message != firstRun[j].Message {
				t.Fatalf("run %d: mismatch order differs from run 0 at index %d:\nrun0: %+v\nrun%d: %+v",
					i, j, firstRun, i, got)
			}
		}
	}

	var unnormalized []model.Mismatch
	for _, m := range firstRun {
		if m.Kind == model.MismatchUnnormalized {
			unnormalized = append(unnormalized, m)
		}
	}
	if len(unnormalized) != 3 {
		t.Fatalf("len(unnormalized) = %d, want 3 (email, regex, url all dropped)", len(unnormalized))
	}
	wantOrder := []string{string(model.ValidatorEmail), string(model.ValidatorRegex), string(model.ValidatorURL)}
	for i, m := range unnormalized {
		if m.Message != fmtUnnormalized("code", wantOrder[i]) {
			t.Errorf("unnormalized[%d].Message = %q, want validator %q in sorted position", i, m.Message, wantOrder[i])
		}
	}
}

func fmtUnnormalized(field, validator string) string {
	return "field \"" + field + "\" enforces " + validator + " on one side but not the other"
}

func TestCheckSkipsStitchMissingEitherSide(t *testing.T) {
	graph := model.NewGraph()
	chains := []model.Chain{{
		Stitches: []model.Stitch{{Kind: model.StitchPersist, HasLeft: false, HasRight: true}},
	}}

	got := Check(chains, graph, map[string]openapi.Bridge{}, nil, testRules)
	if got[0].Stitches[0].Mismatches != nil {
		t.Errorf("Mismatches = %+v, want nil for a stitch missing its left side", got[0].Stitches[0].Mismatches)
	}
}

func TestCheckFoldsOpenAPIDriftIntoChain(t *testing.T) {
	graph := model.NewGraph()
	routeID := schemaNode("backend/app/users.py", "list_users")
	route := &model.Route{ID: routeID, Method: model.MethodGET, Path: "/users", Origin: model.OriginCode}
	graph.Routes[routeID.String()] = route

	chains := []model.Chain{{Nodes: []model.NodeId{routeID}}}
	drift := []openapi.DriftFinding{{Kind: openapi.DriftCodeWithoutComponent, Route: *route}}

	got := Check(chains, graph, map[string]openapi.Bridge{}, drift, testRules)
	if len(got[0].Stitches) != 1 {
		t.Fatalf("len(Stitches) = %d, want 1 drift stitch appended", len(got[0].Stitches))
	}
	if got[0].Stitches[0].Mismatches[0].Kind != model.MismatchOpenAPIDrift {
		t.Errorf("Mismatches[0].Kind = %q, want %q", got[0].Stitches[0].Mismatches[0].Kind, model.MismatchOpenAPIDrift)
	}
}
