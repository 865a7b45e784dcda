package fastapi

import (
	"testing"

	"github.com/stitchlint/stitchlint/internal/model"
)

func TestStripPyString(t *testing.T) {
	tests := []struct{ in, want string }{
		{`"/users/{id}"`, "/users/{id}"},
		{`'/users'`, "/users"},
		{`"""docstring"""`, "docstring"},
		{`/users`, "/users"},
	}
	for _, tt := range tests {
		if got := stripPyString(tt.in); got != tt.want {
			t.Errorf("stripPyString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"app.get", "get"},
		{"models.User", "User"},
		{"User", "User"},
		{"a.b.c", "c"},
	}
	for _, tt := range tests {
		if got := lastSegment(tt.in); got != tt.want {
			t.Errorf("lastSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnIsNullable(t *testing.T) {
	if !columnIsNullable(`Column(String, nullable=True)`) {
		t.Error("expected nullable=True to be detected")
	}
	if columnIsNullable(`Column(String, nullable=False)`) {
		t.Error("did not expect nullable=False to be treated as nullable")
	}
	if columnIsNullable(`Column(String)`) {
		t.Error("did not expect a bare Column() to be treated as nullable")
	}
}

func TestAddTypeValidators(t *testing.T) {
	out := make(map[model.Validator]bool)
	addTypeValidators("EmailStr", out)
	if !out[model.ValidatorEmail] {
		t.Error("expected EmailStr to set ValidatorEmail")
	}

	out = make(map[model.Validator]bool)
	addTypeValidators("HttpUrl", out)
	if !out[model.ValidatorURL] {
		t.Error("expected HttpUrl to set ValidatorURL")
	}

	out = make(map[model.Validator]bool)
	addTypeValidators("Optional[UUID]", out)
	if !out[model.ValidatorUUID] {
		t.Error("expected a UUID-containing type to set ValidatorUUID")
	}

	out = make(map[model.Validator]bool)
	addTypeValidators("str", out)
	if len(out) != 0 {
		t.Errorf("expected a plain str to set no validators, got %+v", out)
	}
}

func TestIsFrameworkType(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"str", true},
		{"int", true},
		{"Session", true},
		{"Annotated[Session, Depends(get_db)]", true},
		{"UserCreate", false},
		{"Optional[UserCreate]", false},
	}
	for _, tt := range tests {
		if got := isFrameworkType(tt.typ); got != tt.want {
			t.Errorf("isFrameworkType(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
