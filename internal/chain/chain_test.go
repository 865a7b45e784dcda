package chain

import (
	"testing"

	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/openapi"
)

func TestExtractFullChainThroughHandlerToORM(t *testing.T) {
	graph := model.NewGraph()

	handler := model.NewNodeId(model.AdapterFastAPI, "backend/app/users.py", "create_user")
	crud := model.NewNodeId(model.AdapterFastAPI, "backend/app/crud.py", "insert_user")
	orm := model.NewNodeId(model.AdapterFastAPI, "backend/app/db.py", "UserRow")

	graph.Schemas[orm.String()] = &model.Schema{ID: orm, Flavor: model.FlavorORM, Name: "UserRow"}
	graph.Edges = []model.Edge{
		{Kind: model.EdgeCalls, Src: handler, Dst: crud},
		{Kind: model.EdgeCalls, Src: crud, Dst: orm},
	}
	graph.BuildEdgeIndex()

	route := model.Route{
		ID: model.NewNodeId(model.AdapterFastAPI, "backend/app/users.py", "route:POST:/users"),
		Method: model.MethodPOST, Path: "/users", Origin: model.OriginCode,
		HandlerSymbol: handler,
	}
	call := &model.ApiCall{
		ID:         model.NewNodeId(model.AdapterTypeScript, "frontend/src/api.ts", "apicall:1:1"),
		Method:     model.MethodPOST,
		URLPattern: "/users",
	}
	graph.ApiCalls[call.ID.String()] = call

	link := openapi.LinkResult{EnrichedRoutes: []model.Route{route}, Bridges: map[string]openapi.Bridge{}}

	chains := Extract(graph, link, Options{})
	if len(chains) != 1 {
		t.Fatalf("len(chains) = %d, want 1", len(chains))
	}
	c := chains[0]
	if c.Type != model.ChainFull {
		t.Errorf("Type = %q, want %q", c.Type, model.ChainFull)
	}
	if len(c.Nodes) != 5 {
		t.Fatalf("Nodes = %v, want 5 (call, route, handler, crud, orm)", c.Nodes)
	}
	lastStitch := c.Stitches[len(c.Stitches)-1]
	if lastStitch.Kind != model.StitchPersist {
		t.Errorf("last stitch kind = %q, want %q", lastStitch.Kind, model.StitchPersist)
	}
}

func TestExtractFrontendInternalWhenNoRouteMatches(t *testing.T) {
	graph := model.NewGraph()
	call := &model.ApiCall{
		ID:         model.NewNodeId(model.AdapterTypeScript, "frontend/src/api.ts", "apicall:1:1"),
		Method:     model.MethodGET,
		URLPattern: "/does-not-exist",
	}
	graph.ApiCalls[call.ID.String()] = call

	chains := Extract(graph, openapi.LinkResult{Bridges: map[string]openapi.Bridge{}}, Options{})
	if len(chains) != 1 || chains[0].Type != model.ChainFrontendInternal {
		t.Fatalf("chains = %+v, want one ChainFrontendInternal", chains)
	}
}

func TestExtractBackendOnlyForUnreferencedRoute(t *testing.T) {
	graph := model.NewGraph()
	route := model.Route{
		ID:     model.NewNodeId(model.AdapterFastAPI, "backend/app/admin.py", "route:GET:/admin"),
		Method: model.MethodGET, Path: "/admin", Origin: model.OriginCode,
	}
	link := openapi.LinkResult{EnrichedRoutes: []model.Route{route}, Bridges: map[string]openapi.Bridge{}}

	chains := Extract(graph, link, Options{})
	if len(chains) != 1 || chains[0].Type != model.ChainBackendInternal {
		t.Fatalf("chains = %+v, want one ChainBackendInternal", chains)
	}
}

func TestPathsMatchHoleEquivalence(t *testing.T) {
	tests := []struct {
		call, route string
		want        bool
	}{
		{"/users/{id}", "/users/:id", true},
		{"/users/${userId}", "/users/:id", true},
		{"/users", "/users/{id}", false},
		{"", "/users", false},
	}
	for _, tt := range tests {
		if got := pathsMatch(tt.call, tt.route); got != tt.want {
			t.Errorf("pathsMatch(%q, %q) = %v, want %v", tt.call, tt.route, got, tt.want)
		}
	}
}
