// Package tszod extracts Zod schemas, TS interfaces/aliases, and frontend
// API calls from a parsed TypeScript file. It is grounded on the teacher's
// internal/parser/typescript/parser.go tree-walking shape, generalized
// from import/export/symbol extraction to schema- and call-site
// extraction per spec §4.2's TypeScript extractor bullet list.
//
// internal/extract/nestjs embeds this package's extractor and adds the
// Controller/Get/Post-style decorator pass on top.
package tszod

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/stitchlint/stitchlint/internal/extract"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/parse"
)

// sdkPathMarkers identify a module as an SDK client by path, per §4.2.
var sdkPathMarkers = []string{"sdk.gen.ts", "openapi-client", "api-client"}

// libraryHeads maps a call-expression's head function/method name to
// a library tag, per the §4.5 table. Values recognized purely by callee
// name; disambiguation that needs the surrounding chain (rtk/trpc) happens
// in classifyCall.
var libraryHeads = map[string]model.LibraryTag{
	"useQuery":        model.LibTanstack,
	"useMutation":     model.LibTanstack,
	"useSWR":          model.LibSWR,
	"useSWRMutation":  model.LibSWR,
}

// Extractor walks a TypeScript parse tree. It is exported (rather than a
// bare Extract function) so nestjs can embed it and reuse its schema/field
// helpers while adding its own decorator pass.
type Extractor struct {
	Tree   *parse.Tree
	Path   string
	Result *extract.Result

	zodNames  map[string]bool // schema names already emitted as zod, for XSchema/X co-location linking
	tsNames   map[string]bool
}

// Extract walks t and emits TypeScript/Zod graph fragments.
func Extract(t *parse.Tree) (*extract.Result, error) {
	e := New(t)
	e.Walk()
	e.ExtractApiCalls()
	return e.Result, nil
}

// New builds an Extractor over t; exported for nestjs's reuse.
func New(t *parse.Tree) *Extractor {
	return &Extractor{
		Tree: t,
		Path: t.FilePath,
		Result: &extract.Result{
			Module: model.Module{Path: t.FilePath, Adapter: model.AdapterTypeScript, Language: model.LangTypeScript},
		},
		zodNames: make(map[string]bool),
		tsNames:  make(map[string]bool),
	}
}

func (e *Extractor) id(symbol string) model.NodeId {
	return model.NewNodeId(model.AdapterTypeScript, e.Path, symbol)
}

func (e *Extractor) text(n *sitter.Node) string { return e.Tree.Text(n) }

// Walk performs the top-level pass: Zod schemas, interfaces/aliases,
// function symbols, `export * from` re-export edges, and Zod↔TS name
// links. API calls are collected separately by ExtractApiCalls.
// nestjs.Extract calls both, then layers its own decorator-based route
// pass on top.
func (e *Extractor) Walk() {
	e.isSDKModule()
	root := e.Tree.Root
	for i := 0; i < int(root.NamedChildCount()); i++ {
		e.walkStatement(root.NamedChild(i))
	}
	e.linkZodToTS()
}

func (e *Extractor) isSDKModule() bool {
	for _, marker := range sdkPathMarkers {
		if strings.Contains(e.Path, marker) {
			return true
		}
	}
	return false
}

func (e *Extractor) walkStatement(stmt *sitter.Node) {
	switch stmt.Type() {
	case "lexical_declaration", "variable_declaration":
		e.walkVariableDeclaration(stmt)
	case "interface_declaration":
		e.extractInterface(stmt)
	case "type_alias_declaration":
		e.extractTypeAlias(stmt)
	case "export_statement":
		e.walkExportStatement(stmt)
	case "function_declaration":
		e.extractFunctionSymbol(stmt)
	}
}

func (e *Extractor) walkExportStatement(stmt *sitter.Node) {
	if e.extractReExport(stmt) {
		return
	}
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		e.walkStatement(stmt.NamedChild(i))
	}
}

// extractReExport recognizes `export * from "m"` and records an Imports
// edge from this module to m so the resolver can propagate m's public
// symbols into this module's namespace (spec §4.3 rule 3).
func (e *Extractor) extractReExport(stmt *sitter.Node) bool {
	if e.findChild(stmt, "*") == nil {
		return false
	}
	src := e.findChild(stmt, "string")
	if src == nil {
		return false
	}
	target := stripTSString(e.text(src))
	e.Result.Edges = append(e.Result.Edges, model.Edge{
		Kind: model.EdgeImports,
		Src:  e.id("module"),
		Dst:  model.NewNodeId(model.AdapterTypeScript, target, "*"),
	})
	return true
}

func (e *Extractor) findChild(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	if typ == "*" {
		for i := 0; i < int(node.ChildCount()); i++ {
			if c := node.Child(i); c.Type() == "*" {
				return c
			}
		}
	}
	return nil
}

// walkVariableDeclaration recognizes `const XSchema = z.object({...})`.
// A `z.infer<typeof XSchema>` type is not inspected here.
func (e *Extractor) walkVariableDeclaration(decl *sitter.Node) {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := firstNamed(e, d, "identifier")
		if name == "" {
			continue
		}
		value := d.NamedChild(int(d.NamedChildCount()) - 1)
		if value == nil || value.Type() == "identifier" {
			continue
		}
		if zodCall, ok := e.unwrapZodChain(value); ok {
			e.extractZodSchema(name, zodCall)
		}
	}
}

func firstNamed(e *Extractor, node *sitter.Node, typ string) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == typ {
			return e.text(c)
		}
	}
	return ""
}

// unwrapZodChain checks whether node's outermost call is rooted in a `z.`
// member-expression chain and returns the outermost call node.
func (e *Extractor) unwrapZodChain(node *sitter.Node) (*sitter.Node, bool) {
	if node.Type() != "call_expression" {
		return nil, false
	}
	head := node
	for head.Type() == "call_expression" {
		fn := head.NamedChild(0)
		if fn == nil {
			return nil, false
		}
		if fn.Type() == "identifier" {
			return nil, false
		}
		if fn.Type() == "member_expression" {
			obj := fn.NamedChild(0)
			if obj == nil {
				return nil, false
			}
			if obj.Type() == "identifier" && e.text(obj) == "z" {
				return node, true
			}
			head = obj
			continue
		}
		return nil, false
	}
	return nil, false
}

// extractZodSchema builds a Schema from a `z.object({...})` (optionally
// wrapped in `.optional()`/chained validators at the top level) call.
func (e *Extractor) extractZodSchema(name string, call *sitter.Node) {
	objectCall := e.findZodObjectCall(call)
	var fields []model.Field
	if objectCall != nil {
		args := e.findChild(objectCall, "arguments")
		if args != nil && args.NamedChildCount() > 0 {
			obj := args.NamedChild(0)
			if obj.Type() == "object" {
				fields = e.extractZodFields(obj)
			}
		}
	}

	e.zodNames[name] = true
	e.Result.Schemas = append(e.Result.Schemas, model.Schema{
		ID:     e.id(name),
		Flavor: model.FlavorZod,
		Name:   name,
		Fields: fields,
	})
}

// findZodObjectCall walks down a call chain looking for the `z.object(...)`
// call at its root.
func (e *Extractor) findZodObjectCall(call *sitter.Node) *sitter.Node {
	cur := call
	for cur != nil && cur.Type() == "call_expression" {
		fn := cur.NamedChild(0)
		if fn == nil {
			return nil
		}
		if fn.Type() == "member_expression" {
			prop := e.text(fn)
			if strings.HasSuffix(prop, ".object") || strings.HasSuffix(prop, ".array") {
				return cur
			}
			obj := fn.NamedChild(0)
			if obj != nil && obj.Type() == "call_expression" {
				cur = obj
				continue
			}
			return nil
		}
		return nil
	}
	return nil
}

func (e *Extractor) extractZodFields(obj *sitter.Node) []model.Field {
	var fields []model.Field
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.NamedChild(0)
		valNode := pair.NamedChild(int(pair.NamedChildCount()) - 1)
		if keyNode == nil || valNode == nil {
			continue
		}
		name := stripTSString(e.text(keyNode))
		fields = append(fields, e.extractZodField(name, valNode))
	}
	return fields
}

var zodValidatorMethods = map[string]model.Validator{
	"email": model.ValidatorEmail,
	"url":   model.ValidatorURL,
	"uuid":  model.ValidatorUUID,
	"regex": model.ValidatorRegex,
	"int":   model.ValidatorInt,
}

// extractZodField walks a chained Zod field expression such as
// `z.string().email().optional()`, collecting the base type, validator
// chain, and required/optional state.
func (e *Extractor) extractZodField(name string, chain *sitter.Node) model.Field {
	f := model.Field{Name: name, Required: true, Validators: make(map[model.Validator]bool)}

	var declaredType string
	cur := chain
	for cur != nil {
		if cur.Type() != "call_expression" {
			break
		}
		fn := cur.NamedChild(0)
		if fn == nil || fn.Type() != "member_expression" {
			break
		}
		method := lastSegment(e.text(fn))
		switch method {
		case "optional", "nullish":
			f.Required = false
		case "default":
			f.Required = false
			f.HasDefault = true
		case "string", "number", "boolean", "date", "object", "array", "enum":
			if declaredType == "" {
				declaredType = method
			}
		}
		if v, ok := zodValidatorMethods[method]; ok {
			f.Validators[v] = true
		}
		obj := fn.NamedChild(0)
		if obj == nil {
			break
		}
		cur = obj
	}
	f.DeclaredType = declaredType
	return f
}

func lastSegment(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

// extractInterface emits a ts-interface Schema from an `interface X {...}`
// declaration.
func (e *Extractor) extractInterface(node *sitter.Node) {
	name := firstNamed(e, node, "type_identifier")
	if name == "" {
		return
	}
	body := e.findChild(node, "interface_body")
	var fields []model.Field
	if body != nil {
		fields = e.extractTSMembers(body)
	}
	e.tsNames[name] = true
	e.Result.Schemas = append(e.Result.Schemas, model.Schema{
		ID:     e.id(name),
		Flavor: model.FlavorTSInterface,
		Name:   name,
		Fields: fields,
	})
}

func (e *Extractor) extractTypeAlias(node *sitter.Node) {
	name := firstNamed(e, node, "type_identifier")
	if name == "" {
		return
	}
	rhs := node.NamedChild(int(node.NamedChildCount()) - 1)
	var fields []model.Field
	if rhs != nil && rhs.Type() == "object_type" {
		fields = e.extractTSMembers(rhs)
	}
	e.tsNames[name] = true
	e.Result.Schemas = append(e.Result.Schemas, model.Schema{
		ID:     e.id(name),
		Flavor: model.FlavorTSAlias,
		Name:   name,
		Fields: fields,
	})
}

func (e *Extractor) extractTSMembers(body *sitter.Node) []model.Field {
	var fields []model.Field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "property_signature" {
			continue
		}
		required := true
		var name, typ string
		for j := 0; j < int(member.NamedChildCount()); j++ {
			c := member.NamedChild(j)
			switch c.Type() {
			case "property_identifier":
				name = e.text(c)
			case "type_annotation":
				typ = e.text(c)
				typ = strings.TrimPrefix(strings.TrimSpace(typ), ":")
				typ = strings.TrimSpace(typ)
			}
		}
		if e.hasOptionalMarker(member) {
			required = false
		}
		if strings.Contains(typ, "| null") || strings.Contains(typ, "|null") || strings.Contains(typ, "undefined") {
			required = false
		}
		if name == "" {
			continue
		}
		fields = append(fields, model.Field{Name: name, DeclaredType: typ, Required: required, Validators: map[model.Validator]bool{}})
	}
	return fields
}

func (e *Extractor) hasOptionalMarker(member *sitter.Node) bool {
	for i := 0; i < int(member.ChildCount()); i++ {
		if member.Child(i).Type() == "?" {
			return true
		}
	}
	return false
}

// linkZodToTS links a Zod schema XSchema to the TS type X by co-located
// naming, per spec §4.2, recording a Defines edge from XSchema to X. The
// right-hand side of `type X = z.infer<typeof ...>` is not read, so such
// an alias is linked only when its name follows the XSchema/X pattern.
func (e *Extractor) linkZodToTS() {
	for zodName := range e.zodNames {
		if !strings.HasSuffix(zodName, "Schema") {
			continue
		}
		base := strings.TrimSuffix(zodName, "Schema")
		if e.tsNames[base] {
			e.Result.Edges = append(e.Result.Edges, model.Edge{
				Kind: model.EdgeDefines,
				Src:  e.id(zodName),
				Dst:  e.id(base),
			})
		}
	}
}

func (e *Extractor) extractFunctionSymbol(node *sitter.Node) {
	name := firstNamed(e, node, "identifier")
	if name == "" {
		return
	}
	e.Result.Symbols = append(e.Result.Symbols, model.Symbol{
		ID: e.id(name), Kind: model.SymbolFunction, Module: e.Path, Name: name, Span: e.Tree.Span(node),
	})
}

// ExtractApiCalls walks the whole tree looking for call expressions
// matching a known frontend data-fetching library pattern (§4.5 table).
// Exported so nestjs.Extract can invoke it after Walk.
func (e *Extractor) ExtractApiCalls() {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			if ac, ok := e.classifyCall(n); ok {
				e.Result.ApiCalls = append(e.Result.ApiCalls, ac)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(e.Tree.Root)
}

// classifyCall identifies the library behind a call expression. A bare
// identifier call (useQuery(...), useSWR(...), fetch(...)) is classified
// by its own name alone. A member-expression call (trpc.x.useQuery(),
// apiSlice.useGetUsersQuery(), axios.get(), ...) needs the whole callee
// chain, since react-query's standalone useQuery and a tRPC procedure's
// chained .useQuery() share the same final segment: only the chain in
// front of it tells them apart.
func (e *Extractor) classifyCall(call *sitter.Node) (model.ApiCall, bool) {
	fn := call.NamedChild(0)
	if fn == nil {
		return model.ApiCall{}, false
	}

	if fn.Type() == "identifier" {
		head := e.text(fn)
		if lib, ok := libraryHeads[head]; ok {
			return e.buildApiCall(call, lib, head), true
		}
		if head == "fetch" {
			return e.buildApiCall(call, model.LibGeneric, head), true
		}
		return model.ApiCall{}, false
	}
	if fn.Type() != "member_expression" {
		return model.ApiCall{}, false
	}

	head := lastSegment(e.text(fn))
	fullCallee := e.text(fn)
	switch {
	case strings.HasPrefix(fullCallee, "axios."), fullCallee == "axios":
		return e.buildApiCall(call, model.LibGeneric, head), true
	case strings.HasPrefix(fullCallee, "api."), strings.HasPrefix(fullCallee, "client."):
		if isHTTPMethodName(head) {
			return e.buildApiCall(call, model.LibSDK, head), true
		}
		return e.buildApiCall(call, model.LibGeneric, head), true
	case strings.HasPrefix(fullCallee, "actions."):
		return e.buildApiCall(call, model.LibNextAction, head), true
	case strings.Contains(fullCallee, ".use") && (strings.HasSuffix(head, "Query") || strings.HasSuffix(head, "Mutation")):
		if e.callHasGql(call) {
			return e.buildApiCall(call, model.LibApollo, head), true
		}
		if isTRPCCallee(fullCallee) {
			return e.buildApiCall(call, model.LibTRPC, head), true
		}
		return e.buildApiCall(call, model.LibRTK, head), true
	}
	return model.ApiCall{}, false
}

var httpMethodNames = map[string]model.HTTPMethod{
	"get": model.MethodGET, "post": model.MethodPOST, "put": model.MethodPUT,
	"patch": model.MethodPATCH, "delete": model.MethodDELETE,
}

func isHTTPMethodName(name string) bool {
	_, ok := httpMethodNames[strings.ToLower(name)]
	return ok
}

func (e *Extractor) callHasGql(call *sitter.Node) bool {
	return strings.Contains(e.text(call), "gql`")
}

// isTRPCCallee recognizes the conventional tRPC React Query client chain,
// `trpc.<router>.<procedure>.useQuery()`/`useMutation()`: the callee's
// root identifier is the client created by createTRPCReact, named "trpc"
// by every tRPC example and scaffold. rtk-query hooks are generated
// per-endpoint on an apiSlice object instead and never take this shape.
func isTRPCCallee(fullCallee string) bool {
	root := strings.SplitN(fullCallee, ".", 2)[0]
	return strings.EqualFold(root, "trpc")
}

func (e *Extractor) buildApiCall(call *sitter.Node, lib model.LibraryTag, head string) model.ApiCall {
	pt := call.StartPoint()
	ac := model.ApiCall{
		ID:      e.id(fmt.Sprintf("apicall:%d:%d", pt.Row, pt.Column)),
		Library: lib,
	}

	args := e.findChild(call, "arguments")
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			switch arg.Type() {
			case "string", "template_string":
				if ac.URLPattern == "" {
					ac.URLPattern = stripTSString(e.text(arg))
				}
			}
		}
	}

	if method, ok := httpMethodNames[strings.ToLower(head)]; ok {
		ac.Method = method
	} else {
		ac.Method = model.MethodGET
		ac.MethodInferred = true
	}

	return ac
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
