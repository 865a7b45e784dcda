// Package nestjs specializes internal/extract/tszod: a NestJS controller
// class decorated with @Controller becomes a route host, its
// @Get/@Post/... methods become Routes, parameter decorators become
// request-field references, and class-validator-decorated classes become
// dto Schemas. Grounded on the same teacher tree-walking shape as tszod,
// extended the way the teacher's golang extractor layers route-detection
// on top of generic symbol extraction.
package nestjs

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/stitchlint/stitchlint/internal/extract"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/parse"
	"github.com/stitchlint/stitchlint/internal/extract/tszod"
)

var methodDecorators = map[string]model.HTTPMethod{
	"Get":    model.MethodGET,
	"Post":   model.MethodPOST,
	"Put":    model.MethodPUT,
	"Patch":  model.MethodPATCH,
	"Delete": model.MethodDELETE,
}

var classValidatorDecorators = map[string]model.Validator{
	"IsEmail": model.ValidatorEmail,
	"IsUrl":   model.ValidatorURL,
	"Matches": model.ValidatorRegex,
	"IsUUID":  model.ValidatorUUID,
	"IsInt":   model.ValidatorInt,
}

// Extract runs the generic TS/Zod pass then layers the NestJS
// controller/DTO pass on top, both contributing to the same Result.
func Extract(t *parse.Tree) (*extract.Result, error) {
	base := tszod.New(t)
	base.Walk()
	base.ExtractApiCalls()
	base.Result.Module.Adapter = model.AdapterNestJS

	e := &extractor{tree: t, path: t.FilePath, result: base.Result}
	e.walk(t.Root)
	return e.result, nil
}

type extractor struct {
	tree   *parse.Tree
	path   string
	result *extract.Result
}

func (e *extractor) id(symbol string) model.NodeId {
	return model.NewNodeId(model.AdapterNestJS, e.path, symbol)
}

func (e *extractor) text(n *sitter.Node) string { return e.tree.Text(n) }

func (e *extractor) walk(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		e.walkTop(root.NamedChild(i))
	}
}

func (e *extractor) walkTop(node *sitter.Node) {
	switch node.Type() {
	case "export_statement":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			e.walkTop(node.NamedChild(i))
		}
	case "class_declaration":
		e.extractPlainClass(node)
	case "decorated_definition", "class_declaration_with_decorators":
		e.extractDecoratedClass(node)
	}
	// tree-sitter-typescript attaches decorators as preceding siblings of
	// the class in some grammar versions; handle that shape too.
	if node.Type() == "class_declaration" {
		var dec []*sitter.Node
		for p := node.PrevNamedSibling(); p != nil && p.Type() == "decorator"; p = p.PrevNamedSibling() {
			dec = append(dec, p)
		}
		if len(dec) > 0 {
			e.handleControllerClass(node, dec)
		}
	}
}

// precedingDecorators collects decorator nodes that are named children of
// the class_declaration itself (the shape tree-sitter-typescript uses).
func (e *extractor) precedingDecorators(node *sitter.Node) []*sitter.Node {
	var decs []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "decorator" {
			decs = append(decs, c)
		}
	}
	return decs
}

func (e *extractor) extractPlainClass(node *sitter.Node) {
	if decs := e.precedingDecorators(node); len(decs) > 0 {
		e.handleControllerClass(node, decs)
	}
}

func (e *extractor) extractDecoratedClass(node *sitter.Node) {
	var decs []*sitter.Node
	var classNode *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		switch c.Type() {
		case "decorator":
			decs = append(decs, c)
		case "class_declaration":
			classNode = c
		}
	}
	if classNode != nil {
		e.handleControllerClass(classNode, decs)
	}
}

func (e *extractor) handleControllerClass(node *sitter.Node, decorators []*sitter.Node) {
	className := firstTypeIdentifier(e, node)
	if className == "" {
		return
	}

	prefix, isController := e.controllerPrefix(decorators)
	if isController {
		e.extractControllerMethods(node, className, prefix)
		return
	}

	if e.hasClassValidatorFields(node) {
		e.extractDTO(node, className)
	}
}

func firstTypeIdentifier(e *extractor, node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == "type_identifier" || c.Type() == "identifier" {
			return e.text(c)
		}
	}
	return ""
}

func (e *extractor) controllerPrefix(decorators []*sitter.Node) (string, bool) {
	for _, dec := range decorators {
		call := e.findChild(dec, "call_expression")
		if call == nil {
			continue
		}
		fn := call.NamedChild(0)
		if fn == nil || e.text(fn) != "Controller" {
			continue
		}
		prefix := ""
		args := e.findChild(call, "arguments")
		if args != nil && args.NamedChildCount() > 0 {
			arg := args.NamedChild(0)
			if arg.Type() == "string" || arg.Type() == "template_string" {
				prefix = stripTSString(e.text(arg))
			}
		}
		return prefix, true
	}
	return "", false
}

func (e *extractor) findChild(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func (e *extractor) extractControllerMethods(classNode *sitter.Node, className, prefix string) {
	body := e.findChild(classNode, "class_body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		var decs []*sitter.Node
		var methodDef *sitter.Node
		switch member.Type() {
		case "method_definition":
			methodDef = member
		default:
			continue
		}
		for j := 0; j < int(member.NamedChildCount()); j++ {
			if c := member.NamedChild(j); c.Type() == "decorator" {
				decs = append(decs, c)
			}
		}
		for p := member.PrevNamedSibling(); p != nil && p.Type() == "decorator"; p = p.PrevNamedSibling() {
			decs = append(decs, p)
		}
		if methodDef == nil || len(decs) == 0 {
			continue
		}
		e.maybeEmitRoute(methodDef, decs, className, prefix)
	}
}

func (e *extractor) maybeEmitRoute(method *sitter.Node, decs []*sitter.Node, className, prefix string) {
	methodName := ""
	for i := 0; i < int(method.NamedChildCount()); i++ {
		if c := method.NamedChild(i); c.Type() == "property_identifier" {
			methodName = e.text(c)
			break
		}
	}
	if methodName == "" {
		return
	}

	var httpMethod model.HTTPMethod
	var sub string
	matched := false
	for _, dec := range decs {
		call := e.findChild(dec, "call_expression")
		var decoratorName string
		var args *sitter.Node
		if call != nil {
			fn := call.NamedChild(0)
			if fn != nil {
				decoratorName = e.text(fn)
			}
			args = e.findChild(call, "arguments")
		} else {
			decoratorName = firstTypeIdentifier(e, dec)
		}
		if m, ok := methodDecorators[decoratorName]; ok {
			httpMethod = m
			matched = true
			if args != nil && args.NamedChildCount() > 0 {
				arg := args.NamedChild(0)
				if arg.Type() == "string" || arg.Type() == "template_string" {
					sub = stripTSString(e.text(arg))
				}
			}
		}
	}
	if !matched {
		return
	}

	handlerID := e.id(className + "." + methodName)
	e.result.Symbols = append(e.result.Symbols, model.Symbol{
		ID: handlerID, Kind: model.SymbolMethod, Module: e.path, Name: methodName, Span: e.tree.Span(method),
	})

	path := joinPath(prefix, sub)
	route := model.Route{
		ID:            e.id("route:" + string(httpMethod) + ":" + path),
		Method:        httpMethod,
		Path:          path,
		HandlerSymbol: handlerID,
		Origin:        model.OriginCode,
	}

	if reqType, reqName, invalid, msg := e.bodyParamType(method); invalid {
		route.DecoratorInvalid = true
		route.DecoratorField = reqName
		route.DecoratorMessage = msg
	} else if reqType != "" {
		route.RequestSchema = e.id(reqType)
		route.HasRequest = true
		_ = reqName
	}

	e.result.Routes = append(e.result.Routes, route)
}

func joinPath(prefix, sub string) string {
	prefix = strings.Trim(prefix, "/")
	sub = strings.Trim(sub, "/")
	switch {
	case prefix == "" && sub == "":
		return "/"
	case prefix == "":
		return "/" + sub
	case sub == "":
		return "/" + prefix
	default:
		return "/" + prefix + "/" + sub
	}
}

// bodyParamType finds the first parameter decorated with @Body() and
// returns its declared type name (resolved to a local reference; the
// import resolver links it cross-file) along with the parameter name.
// When the decorated parameter is typed as a bare TypeScript primitive
// instead of a DTO class, invalid is true and message explains why
// (spec §4.7's DecoratorInvalid kind: a decorator whose binding
// disagrees with the declared type).
func (e *extractor) bodyParamType(method *sitter.Node) (typeName, paramName string, invalid bool, message string) {
	params := e.findChild(method, "formal_parameters")
	if params == nil {
		return "", "", false, ""
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
			continue
		}
		if !e.hasParamDecorator(p, "Body") {
			continue
		}
		name, typ := e.paramNameAndType(p)
		if typ == "" {
			continue
		}
		if isPrimitiveBodyType(typ) {
			return "", name, true, fmt.Sprintf(
				"@Body() parameter %q is typed %q, a primitive; expected a DTO class", name, typ)
		}
		return lastSegment(typ), name, false, ""
	}
	return "", "", false, ""
}

// primitiveBodyTypes are TypeScript types that carry no field shape of
// their own, so binding @Body() (or any request-body decorator) to one
// discards the request schema entirely.
var primitiveBodyTypes = map[string]bool{
	"string": true, "number": true, "boolean": true, "any": true,
	"unknown": true, "void": true, "object": true, "never": true,
	"bigint": true, "symbol": true, "null": true, "undefined": true,
}

func isPrimitiveBodyType(t string) bool {
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "[]")
	if strings.HasPrefix(t, "Array<") && strings.HasSuffix(t, ">") {
		t = t[len("Array<") : len(t)-1]
	}
	return primitiveBodyTypes[strings.ToLower(strings.TrimSpace(t))]
}

func (e *extractor) hasParamDecorator(param *sitter.Node, decoratorName string) bool {
	for i := 0; i < int(param.NamedChildCount()); i++ {
		c := param.NamedChild(i)
		if c.Type() != "decorator" {
			continue
		}
		if strings.Contains(e.text(c), decoratorName) {
			return true
		}
	}
	return false
}

func (e *extractor) paramNameAndType(param *sitter.Node) (name, typ string) {
	for i := 0; i < int(param.NamedChildCount()); i++ {
		c := param.NamedChild(i)
		switch c.Type() {
		case "identifier":
			if name == "" {
				name = e.text(c)
			}
		case "type_annotation":
			typ = strings.TrimPrefix(strings.TrimSpace(e.text(c)), ":")
			typ = strings.TrimSpace(typ)
		}
	}
	return name, typ
}

func lastSegment(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

func stripTSString(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{"`", `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

func (e *extractor) hasClassValidatorFields(classNode *sitter.Node) bool {
	body := e.findChild(classNode, "class_body")
	if body == nil {
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "public_field_definition" && member.Type() != "property_declaration" {
			continue
		}
		for j := 0; j < int(member.NamedChildCount()); j++ {
			if c := member.NamedChild(j); c.Type() == "decorator" {
				name := firstTypeIdentifier(e, c)
				if _, ok := classValidatorDecorators[name]; ok {
					return true
				}
				if name == "IsString" || name == "IsOptional" || name == "IsNumber" || name == "IsBoolean" {
					return true
				}
			}
		}
	}
	return false
}

func (e *extractor) extractDTO(classNode *sitter.Node, className string) {
	body := e.findChild(classNode, "class_body")
	if body == nil {
		return
	}
	var fields []model.Field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "public_field_definition" && member.Type() != "property_declaration" {
			continue
		}
		f := e.extractDTOField(member)
		if f.Name != "" {
			fields = append(fields, f)
		}
	}
	e.result.Schemas = append(e.result.Schemas, model.Schema{
		ID:     e.id(className),
		Flavor: model.FlavorDTO,
		Name:   className,
		Fields: fields,
	})
}

func (e *extractor) extractDTOField(member *sitter.Node) model.Field {
	f := model.Field{Required: true, Validators: make(map[model.Validator]bool)}
	optional := false
	for i := 0; i < int(member.NamedChildCount()); i++ {
		c := member.NamedChild(i)
		switch c.Type() {
		case "property_identifier":
			if f.Name == "" {
				f.Name = e.text(c)
			}
		case "type_annotation":
			f.DeclaredType = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(e.text(c)), ":"))
		case "decorator":
			name := firstTypeIdentifier(e, c)
			if v, ok := classValidatorDecorators[name]; ok {
				f.Validators[v] = true
			}
			if name == "IsOptional" {
				optional = true
			}
		}
	}
	if optional {
		f.Required = false
	}
	return f
}
