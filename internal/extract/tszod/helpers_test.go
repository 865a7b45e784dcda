package tszod

import "testing"

func TestStripTSString(t *testing.T) {
	tests := []struct{ in, want string }{
		{`"/users"`, "/users"},
		{"`/users/${id}`", "/users/${id}"},
		{`'/users'`, "/users"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := stripTSString(tt.in); got != tt.want {
			t.Errorf("stripTSString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"z.string", "string"},
		{"api.users.get", "get"},
		{"fetch", "fetch"},
	}
	for _, tt := range tests {
		if got := lastSegment(tt.in); got != tt.want {
			t.Errorf("lastSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTRPCCallee(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"trpc.users.getById.useQuery", true},
		{"trpc.users.create.useMutation", true},
		{"api.users.list.useQuery", false},
		{"apiSlice.useGetUsersQuery", false},
	}
	for _, tt := range tests {
		if got := isTRPCCallee(tt.in); got != tt.want {
			t.Errorf("isTRPCCallee(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsHTTPMethodName(t *testing.T) {
	for _, m := range []string{"get", "Post", "PUT", "patch", "delete"} {
		if !isHTTPMethodName(m) {
			t.Errorf("isHTTPMethodName(%q) = false, want true", m)
		}
	}
	if isHTTPMethodName("fetchUsers") {
		t.Error("isHTTPMethodName(\"fetchUsers\") = true, want false")
	}
}
