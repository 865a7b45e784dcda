// Package fastapi extracts routes, Pydantic/SQLAlchemy schemas, and
// transform stitches from a parsed Python file. It is grounded on the
// teacher's internal/parser/python/parser.go tree-walking shape
// (walkTopLevel / extractClass / extractFunctionOrDecorated /
// extractDecoratorName) and on the route-registration detection style of
// internal/parser/golang/parser.go, retargeted from Gin/gorilla-mux
// handler registration to FastAPI decorator-based routing.
package fastapi

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/stitchlint/stitchlint/internal/extract"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/parse"
)

var httpMethods = map[string]model.HTTPMethod{
	"get":    model.MethodGET,
	"post":   model.MethodPOST,
	"put":    model.MethodPUT,
	"patch":  model.MethodPATCH,
	"delete": model.MethodDELETE,
}

// pydanticRoots are base-class names that mark a class as a Pydantic model.
var pydanticRoots = map[string]bool{
	"BaseModel":    true,
	"BaseSettings": true,
}

// ormRoots are base-class names that mark a class as a SQLAlchemy
// declarative model.
var ormRoots = map[string]bool{
	"Base":            true,
	"DeclarativeBase": true,
}

// fastapiUsersGenerator is the identifying substring, and the tag, of the
// one dynamic route generator recognized. Per spec §9's open question, only
// fastapi_users is recognized; anything else produces no virtual routes.
const fastapiUsersGenerator = "fastapi_users"

// Extract walks t and emits FastAPI/Pydantic/SQLAlchemy graph fragments.
func Extract(t *parse.Tree) (*extract.Result, error) {
	e := &extractor{
		tree:       t,
		path:       t.FilePath,
		classBases: make(map[string][]string),
		result: &extract.Result{
			Module: model.Module{Path: t.FilePath, Adapter: model.AdapterFastAPI, Language: model.LangPython},
		},
	}
	e.pass1(t.Root)
	e.classifySchemas()
	e.pass2(t.Root)
	return e.result, nil
}

type extractor struct {
	tree   *parse.Tree
	path   string
	result *extract.Result

	isEntryPoint bool
	classBases   map[string][]string // class name -> declared base identifiers, this file only
	pydanticCls  map[string]bool
	ormCls       map[string]bool
	fromAttrs    map[string]bool // pydantic class name -> from_attributes bridge present
}

func (e *extractor) id(symbol string) model.NodeId {
	return model.NewNodeId(model.AdapterFastAPI, e.path, symbol)
}

func (e *extractor) text(n *sitter.Node) string { return e.tree.Text(n) }

// pass1 scans top-level statements for class base lists and FastAPI()
// assignment, without yet emitting Schema/Route nodes (those need the
// transitive base classification built in classifySchemas).
func (e *extractor) pass1(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			e.recordBases(child)
		case "expression_statement":
			if e.isFastAPIAssignment(child) {
				e.isEntryPoint = true
			}
		}
	}
}

func (e *extractor) recordBases(node *sitter.Node) {
	name := ""
	var bases []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = e.text(child)
			}
		case "argument_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				arg := child.NamedChild(j)
				if arg.Type() == "identifier" || arg.Type() == "attribute" {
					bases = append(bases, lastSegment(e.text(arg)))
				}
			}
		}
	}
	if name != "" {
		e.classBases[name] = bases
	}
}

func lastSegment(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

func (e *extractor) isFastAPIAssignment(stmt *sitter.Node) bool {
	if stmt.NamedChildCount() == 0 {
		return false
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" || assign.NamedChildCount() < 2 {
		return false
	}
	rhs := assign.NamedChild(int(assign.NamedChildCount()) - 1)
	if rhs.Type() != "call" {
		return false
	}
	fn := rhs.NamedChild(0)
	if fn == nil {
		return false
	}
	return lastSegment(e.text(fn)) == "FastAPI"
}

// classifySchemas resolves the transitive Pydantic/ORM base relation within
// this file: a class whose base list mentions a known root, or another
// class already classified in this file, is itself classified. Cross-file
// base classes are resolved later by the import resolver and linker.
func (e *extractor) classifySchemas() {
	e.pydanticCls = make(map[string]bool)
	e.ormCls = make(map[string]bool)

	changed := true
	for changed {
		changed = false
		for name, bases := range e.classBases {
			if !e.pydanticCls[name] {
				for _, b := range bases {
					if pydanticRoots[b] || e.pydanticCls[b] {
						e.pydanticCls[name] = true
						changed = true
						break
					}
				}
			}
			if !e.ormCls[name] {
				for _, b := range bases {
					if ormRoots[b] || e.ormCls[b] {
						e.ormCls[name] = true
						changed = true
						break
					}
				}
			}
		}
	}
}

// pass2 walks the tree again, now that class flavors are known, emitting
// Symbols, Schemas, Routes and transform-stitch edges.
func (e *extractor) pass2(root *sitter.Node) {
	e.fromAttrs = make(map[string]bool)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			e.extractClass(child)
		case "function_definition":
			e.extractTopLevelFunction(child, nil)
		case "decorated_definition":
			e.extractDecorated(child)
		case "expression_statement":
			e.extractIncludeRouter(child)
		}
	}
}

func (e *extractor) extractClass(node *sitter.Node) {
	name := ""
	var body *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = e.text(child)
			}
		case "block":
			body = child
		}
	}
	if name == "" {
		return
	}

	sym := model.Symbol{ID: e.id(name), Kind: model.SymbolClass, Module: e.path, Name: name, Span: e.tree.Span(node)}
	e.result.Symbols = append(e.result.Symbols, sym)

	if e.pydanticCls[name] {
		e.emitPydanticSchema(name, body)
	} else if e.ormCls[name] {
		e.emitORMSchema(name, body)
	}

	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			switch stmt.Type() {
			case "function_definition":
				e.extractTopLevelFunction(stmt, &name)
			case "decorated_definition":
				e.extractDecorated2(stmt, &name)
			}
		}
	}
}

// emitPydanticSchema walks a Pydantic class body, collecting annotated
// fields and the from_attributes bridge flag from ConfigDict/Config.
func (e *extractor) emitPydanticSchema(className string, body *sitter.Node) {
	if body == nil {
		return
	}
	var fields []model.Field
	fromAttributes := false

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "expression_statement":
			if f, ok := e.extractField(stmt.NamedChild(0)); ok {
				fields = append(fields, f)
			}
			if ok := e.extractConfigDictFromAttributes(stmt.NamedChild(0)); ok {
				fromAttributes = true
			}
		case "class_definition":
			// Inner "class Config:" with from_attributes = True.
			if innerName := firstIdentifier(e, stmt); innerName == "Config" {
				if e.innerConfigHasFromAttributes(stmt) {
					fromAttributes = true
				}
			}
		}
	}

	e.fromAttrs[className] = fromAttributes
	e.result.Schemas = append(e.result.Schemas, model.Schema{
		ID:             e.id(className),
		Flavor:         model.FlavorPydantic,
		Name:           className,
		Fields:         fields,
		FromAttributes: fromAttributes,
	})
}

func firstIdentifier(e *extractor, node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "identifier" {
			return e.text(c)
		}
	}
	return ""
}

func (e *extractor) innerConfigHasFromAttributes(classNode *sitter.Node) bool {
	body := lastBlock(classNode)
	if body == nil {
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		if assign.NamedChildCount() < 2 {
			continue
		}
		lhs := assign.NamedChild(0)
		if lhs.Type() == "identifier" && e.text(lhs) == "from_attributes" {
			rhs := assign.NamedChild(int(assign.NamedChildCount()) - 1)
			if e.text(rhs) == "True" {
				return true
			}
		}
	}
	return false
}

func lastBlock(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "block" {
			return c
		}
	}
	return nil
}

// extractConfigDictFromAttributes recognizes the Pydantic v2 form
// `model_config = ConfigDict(from_attributes=True)`.
func (e *extractor) extractConfigDictFromAttributes(node *sitter.Node) bool {
	if node == nil || node.Type() != "assignment" || node.NamedChildCount() < 2 {
		return false
	}
	lhs := node.NamedChild(0)
	if lhs.Type() != "identifier" || e.text(lhs) != "model_config" {
		return false
	}
	rhs := node.NamedChild(int(node.NamedChildCount()) - 1)
	if rhs.Type() != "call" {
		return false
	}
	args := e.findChild(rhs, "argument_list")
	if args == nil {
		return false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		kw := args.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name, val := e.keywordArg(kw)
		if name == "from_attributes" && val == "True" {
			return true
		}
	}
	return false
}

// extractField extracts one annotated class attribute as a Pydantic field.
// `x: Type` is required; `x: Type = value` is not, unless value is
// `Field(...)` (Ellipsis first positional arg), which stays required.
func (e *extractor) extractField(node *sitter.Node) (model.Field, bool) {
	if node == nil {
		return model.Field{}, false
	}

	var name, typ string
	var rhs *sitter.Node
	switch node.Type() {
	case "assignment":
		if node.NamedChildCount() < 2 {
			return model.Field{}, false
		}
		lhs := node.NamedChild(0)
		if lhs.Type() != "identifier" {
			return model.Field{}, false
		}
		name = e.text(lhs)
		// annotated_assignment is represented as "assignment" with a type
		// child in this grammar when both annotation and value are present.
		for i := 1; i < int(node.NamedChildCount())-1; i++ {
			c := node.NamedChild(i)
			if c.Type() == "type" {
				typ = e.text(c)
			}
		}
		rhs = node.NamedChild(int(node.NamedChildCount()) - 1)
	default:
		return model.Field{}, false
	}

	if name == "" || strings.HasPrefix(name, "_") {
		return model.Field{}, false
	}

	required := true
	hasDefault := false
	validators := make(map[model.Validator]bool)

	if rhs != nil {
		if rhs.Type() == "call" {
			fn := rhs.NamedChild(0)
			if fn != nil && lastSegment(e.text(fn)) == "Field" {
				required, hasDefault = e.inspectFieldCall(rhs)
				e.collectFieldValidators(rhs, validators)
			} else {
				required, hasDefault = false, true
			}
		} else {
			required, hasDefault = false, true
		}
	}

	addTypeValidators(typ, validators)

	return model.Field{
		Name:         name,
		DeclaredType: typ,
		Required:     required,
		Validators:   validators,
		HasDefault:   hasDefault,
	}, true
}

// inspectFieldCall returns (required, hasDefault) for a `Field(...)` call:
// a literal `...` (Ellipsis) first positional argument means required.
func (e *extractor) inspectFieldCall(call *sitter.Node) (required bool, hasDefault bool) {
	args := e.findChild(call, "argument_list")
	if args == nil || args.NamedChildCount() == 0 {
		return false, true
	}
	first := args.NamedChild(0)
	if first.Type() == "ellipsis" || e.text(first) == "..." {
		return true, false
	}
	return false, true
}

func (e *extractor) collectFieldValidators(call *sitter.Node, out map[model.Validator]bool) {
	args := e.findChild(call, "argument_list")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		kw := args.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name, _ := e.keywordArg(kw)
		if name == "pattern" || name == "regex" {
			out[model.ValidatorRegex] = true
		}
	}
}

func addTypeValidators(typ string, out map[model.Validator]bool) {
	switch {
	case strings.Contains(typ, "EmailStr"):
		out[model.ValidatorEmail] = true
	case strings.Contains(typ, "HttpUrl"), strings.Contains(typ, "AnyUrl"):
		out[model.ValidatorURL] = true
	}
	if strings.Contains(typ, "UUID") {
		out[model.ValidatorUUID] = true
	}
}

func (e *extractor) keywordArg(kw *sitter.Node) (name, value string) {
	if kw.NamedChildCount() < 2 {
		return "", ""
	}
	return e.text(kw.NamedChild(0)), e.text(kw.NamedChild(1))
}

func (e *extractor) findChild(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// emitORMSchema walks a SQLAlchemy declarative-model class body: every
// `Column`/annotated attribute becomes a Field; nullability maps to
// Required.
func (e *extractor) emitORMSchema(className string, body *sitter.Node) {
	if body == nil {
		return
	}
	var fields []model.Field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign == nil || assign.Type() != "assignment" || assign.NamedChildCount() < 2 {
			continue
		}
		lhs := assign.NamedChild(0)
		if lhs.Type() != "identifier" {
			continue
		}
		name := e.text(lhs)
		if strings.HasPrefix(name, "_") {
			continue
		}
		var typ string
		for i := 1; i < int(assign.NamedChildCount())-1; i++ {
			if c := assign.NamedChild(i); c.Type() == "type" {
				typ = e.text(c)
			}
		}
		rhs := assign.NamedChild(int(assign.NamedChildCount()) - 1)
		nullable := columnIsNullable(e.text(rhs))
		fields = append(fields, model.Field{
			Name:         name,
			DeclaredType: typ,
			Required:     !nullable,
			Validators:   map[model.Validator]bool{},
		})
	}

	e.result.Schemas = append(e.result.Schemas, model.Schema{
		ID:     e.id(className),
		Flavor: model.FlavorORM,
		Name:   className,
		Fields: fields,
	})
}

func columnIsNullable(rhsText string) bool {
	return strings.Contains(rhsText, "nullable=True")
}

// extractTopLevelFunction emits a Symbol for a module- or class-level
// function/method (no decorators).
func (e *extractor) extractTopLevelFunction(node *sitter.Node, className *string) {
	e.extractFunction(node, className, nil, node)
}

func (e *extractor) extractDecorated(node *sitter.Node) {
	e.extractDecorated2(node, nil)
}

func (e *extractor) extractDecorated2(node *sitter.Node, className *string) {
	var decorators []*sitter.Node
	var fn *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "decorator":
			decorators = append(decorators, child)
		case "function_definition":
			fn = child
		}
	}
	if fn == nil {
		return
	}
	sym := e.extractFunction(fn, className, decorators, node)
	for _, dec := range decorators {
		e.maybeEmitRoute(dec, sym, fn)
	}
}

// extractFunction emits a Symbol for the function/method and returns its id
// for route/decorator post-processing.
func (e *extractor) extractFunction(node *sitter.Node, className *string, decorators []*sitter.Node, outer *sitter.Node) model.NodeId {
	name := firstIdentifier(e, node)
	if name == "" {
		return model.NodeId{}
	}
	qualified := name
	kind := model.SymbolFunction
	if className != nil {
		qualified = *className + "." + name
		kind = model.SymbolMethod
	}
	id := e.id(qualified)
	e.result.Symbols = append(e.result.Symbols, model.Symbol{
		ID: id, Kind: kind, Module: e.path, Name: name, Span: e.tree.Span(outer),
	})
	e.extractTransformCalls(node, id)
	return id
}

// maybeEmitRoute recognizes `@app.get("/path", response_model=X)` style
// decorators and, on a match, emits a code-origin Route whose handler is
// the decorated function.
func (e *extractor) maybeEmitRoute(dec *sitter.Node, handler model.NodeId, fn *sitter.Node) {
	call := e.findChild(dec, "call")
	if call == nil {
		return
	}
	fnExpr := call.NamedChild(0)
	if fnExpr == nil || fnExpr.Type() != "attribute" {
		return
	}
	attrName := lastSegment(e.text(fnExpr))
	method, ok := httpMethods[attrName]
	if !ok {
		return
	}

	args := e.findChild(call, "argument_list")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	pathNode := args.NamedChild(0)
	if pathNode.Type() != "string" {
		return
	}
	path := stripPyString(e.text(pathNode))

	route := model.Route{
		ID:            e.id("route:" + string(method) + ":" + path),
		Method:        method,
		Path:          path,
		HandlerSymbol: handler,
		Origin:        model.OriginCode,
	}

	for i := 1; i < int(args.NamedChildCount()); i++ {
		kw := args.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name, val := e.keywordArg(kw)
		if name == "response_model" {
			route.ResponseSchema = e.id(lastSegment(val))
			route.HasResponse = true
		}
	}

	if reqName := e.firstBodyParam(fn); reqName != "" {
		route.RequestSchema = e.id(reqName)
		route.HasRequest = true
	}

	e.result.Routes = append(e.result.Routes, route)
}

// firstBodyParam scans a handler's parameter list for the first parameter
// whose annotation is not a framework dependency/primitive, treating it as
// the request body schema reference.
func (e *extractor) firstBodyParam(fn *sitter.Node) string {
	params := e.findChild(fn, "parameters")
	if params == nil {
		return ""
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "typed_parameter" {
			continue
		}
		var pname, ptype string
		for j := 0; j < int(p.NamedChildCount()); j++ {
			c := p.NamedChild(j)
			switch c.Type() {
			case "identifier":
				if pname == "" {
					pname = e.text(c)
				}
			case "type":
				ptype = e.text(c)
			}
		}
		if pname == "self" || isFrameworkType(ptype) {
			continue
		}
		return lastSegment(ptype)
	}
	return ""
}

var primitiveTypes = map[string]bool{
	"str": true, "int": true, "float": true, "bool": true, "bytes": true,
}

func isFrameworkType(typ string) bool {
	if primitiveTypes[typ] {
		return true
	}
	for _, marker := range []string{"Depends", "Session", "Request", "BackgroundTasks", "UploadFile"} {
		if strings.Contains(typ, marker) {
			return true
		}
	}
	return false
}

// extractTransformCalls records model_validate(x)/model_dump() call sites
// inside a function body as calls edges from the function to the
// schema the call operates on, per spec §4.2's Pydantic transformation
// capture.
func (e *extractor) extractTransformCalls(fnNode *sitter.Node, fnID model.NodeId) {
	body := e.findChild(fnNode, "block")
	if body == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call" {
			fnExpr := n.NamedChild(0)
			if fnExpr != nil && fnExpr.Type() == "attribute" {
				attr := lastSegment(e.text(fnExpr))
				if attr == "model_validate" || attr == "model_dump" {
					objText := e.text(fnExpr)
					objName := strings.SplitN(objText, ".", 2)[0]
					e.result.Edges = append(e.result.Edges, model.Edge{
						Kind: model.EdgeCalls,
						Src:  fnID,
						Dst:  e.id(objName),
					})
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
}

// extractIncludeRouter recognizes `app.include_router(<expr>)` where <expr>
// textually mentions a known dynamic route generator, emitting virtual
// routes tagged with the generator name.
func (e *extractor) extractIncludeRouter(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	call := stmt.NamedChild(0)
	if call.Type() != "call" {
		return
	}
	fn := call.NamedChild(0)
	if fn == nil || lastSegment(e.text(fn)) != "include_router" {
		return
	}
	args := e.findChild(call, "argument_list")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	argText := e.text(args.NamedChild(0))
	if !strings.Contains(argText, fastapiUsersGenerator) {
		return
	}
	e.result.Routes = append(e.result.Routes, model.Route{
		ID:        e.id("route:generator:" + fastapiUsersGenerator + ":" + argText),
		Origin:    model.OriginCode,
		Generator: fastapiUsersGenerator,
	})
}

func stripPyString(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
