package model

// SchemaFlavor is the tagged variant distinguishing how a Schema was
// declared. The contract checker (internal/check) is a total function
// over the cross-product of these flavors at a stitch; keeping flavor as
// a flat enum instead of a type hierarchy keeps that cross-product small
// and enumerable.
type SchemaFlavor string

const (
	FlavorPydantic        SchemaFlavor = "pydantic"
	FlavorZod             SchemaFlavor = "zod"
	FlavorTSInterface     SchemaFlavor = "ts-interface"
	FlavorTSAlias         SchemaFlavor = "ts-alias"
	FlavorOpenAPIComponent SchemaFlavor = "openapi-component"
	FlavorDTO             SchemaFlavor = "dto"
	FlavorORM             SchemaFlavor = "orm"
)

// Validator is a normalization predicate attached to a Field.
type Validator string

const (
	ValidatorEmail Validator = "email"
	ValidatorURL   Validator = "url"
	ValidatorRegex Validator = "regex"
	ValidatorInt   Validator = "int"
	ValidatorUUID  Validator = "uuid"
)

// Field is one field of a Schema.
type Field struct {
	Name           string
	DeclaredType   string // type expression as written in source; canonicalized at check time, see internal/check/canon.go
	Required       bool
	Validators     map[Validator]bool
	HasDefault     bool
}

// Schema is a data shape: a Pydantic model, a Zod schema, a TS interface or
// alias, an OpenAPI component, a class-validator DTO, or an ORM model.
type Schema struct {
	ID             NodeId
	Flavor         SchemaFlavor
	Name           string
	Fields         []Field
	FromAttributes bool // ORM-bridged: Pydantic Config/ConfigDict from_attributes=True
}

// FieldByName returns the field with the given name, or ok=false.
func (s *Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
