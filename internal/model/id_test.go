package model

import "testing"

func TestNodeIdString(t *testing.T) {
	id := NewNodeId(AdapterFastAPI, "backend/app/users.py", "UserOut")
	want := "fastapi:backend/app/users.py:UserOut"
	if got := id.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNodeIdHashStableAndDistinct(t *testing.T) {
	a := NewNodeId(AdapterFastAPI, "backend/app/users.py", "UserOut")
	b := NewNodeId(AdapterFastAPI, "backend/app/users.py", "UserOut")
	c := NewNodeId(AdapterTypeScript, "frontend/src/users.ts", "UserOut")

	if a.Hash() != b.Hash() {
		t.Errorf("Hash() not stable across equal NodeIds: %q != %q", a.Hash(), b.Hash())
	}
	if a.Hash() == c.Hash() {
		t.Errorf("Hash() collided for distinct NodeIds: %q", a.Hash())
	}
	if len(a.Hash()) != 24 {
		t.Errorf("len(Hash()) = %d, want 24 (12 bytes hex-encoded)", len(a.Hash()))
	}
}
