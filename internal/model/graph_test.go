package model

import "testing"

func TestGraphNeighborsByKind(t *testing.T) {
	g := NewGraph()

	call := NewNodeId(AdapterFastAPI, "backend/app/users.py", "create_user")
	schema := NewNodeId(AdapterFastAPI, "backend/app/users.py", "UserCreate")
	other := NewNodeId(AdapterFastAPI, "backend/app/db.py", "User")

	g.Edges = []Edge{
		{Kind: EdgeParsesWith, Src: call, Dst: schema},
		{Kind: EdgeCalls, Src: call, Dst: other},
	}
	g.BuildEdgeIndex()

	parsesWith := g.Neighbors(call, EdgeParsesWith)
	if len(parsesWith) != 1 || parsesWith[0] != schema {
		t.Fatalf("Neighbors(call, EdgeParsesWith) = %v, want [%v]", parsesWith, schema)
	}

	all := g.Neighbors(call, "")
	if len(all) != 2 {
		t.Fatalf("Neighbors(call, \"\") = %v, want 2 entries", all)
	}

	none := g.Neighbors(other, EdgeCalls)
	if len(none) != 0 {
		t.Fatalf("Neighbors(other, EdgeCalls) = %v, want none", none)
	}
}

func TestGraphRoutesByMethodPath(t *testing.T) {
	g := NewGraph()

	r1 := &Route{ID: NewNodeId(AdapterFastAPI, "backend/app/users.py", "get_user"), Method: MethodGET, Path: "/users/{id}", Origin: OriginCode}
	r2 := &Route{ID: NewNodeId(AdapterFastAPI, "backend/app/users.py", "list_users"), Method: MethodGET, Path: "/users", Origin: OriginCode}
	g.Routes[r1.ID.String()] = r1
	g.Routes[r2.ID.String()] = r2

	matches := g.RoutesByMethodPath(MethodGET, "/users/{id}")
	if len(matches) != 1 || matches[0] != r1 {
		t.Fatalf("RoutesByMethodPath(GET, /users/{id}) = %v, want [%v]", matches, r1)
	}

	if got := g.RoutesByMethodPath(MethodPOST, "/users"); len(got) != 0 {
		t.Fatalf("RoutesByMethodPath(POST, /users) = %v, want none", got)
	}
}
