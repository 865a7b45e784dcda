// Package openapi loads an OpenAPI document and links it against the
// assembled model.Graph (spec §4.4): matching code routes to endpoints,
// synthesizing virtual routes for undocumented-in-code endpoints, and
// bridging OpenAPI components to Pydantic and TS/Zod schemas by name.
//
// Path matching is grounded on the teacher's
// internal/linker/api_calls.go normalizeURLPath/matchSegments, generalized
// from the teacher's "* wildcard" scheme to the spec's hole-equivalence
// rule: "{name}" and ":name" are equivalent path-parameter holes, and
// matching is order-preserving rather than suffix-based (an OpenAPI
// endpoint is matched by exact segment count and position, not prefix
// trimming, since the whole document is in-scope by construction).
package openapi

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/stitchlint/stitchlint/internal/errs"
	"github.com/stitchlint/stitchlint/internal/model"
)

// Document is a minimal parsed OpenAPI 3.x document: the endpoint table
// and the component schema table the linker needs. Everything else in the
// source document is ignored.
type Document struct {
	Endpoints  map[EndpointKey]EndpointMeta
	Components map[string]model.Schema
}

// EndpointKey identifies one documented operation.
type EndpointKey struct {
	Method model.HTTPMethod
	Path   string // raw, as written in the document
}

// EndpointMeta carries the request/response component refs (if present)
// for one documented operation.
type EndpointMeta struct {
	RequestSchema  string // component name, "" if none
	ResponseSchema string
}

// rawDoc mirrors the subset of the OpenAPI 3.x JSON structure this loader
// reads.
type rawDoc struct {
	Paths      map[string]map[string]rawOperation `json:"paths"`
	Components struct {
		Schemas map[string]rawSchema `json:"schemas"`
	} `json:"components"`
}

type rawOperation struct {
	RequestBody struct {
		Content map[string]struct {
			Schema rawRef `json:"schema"`
		} `json:"content"`
	} `json:"requestBody"`
	Responses map[string]struct {
		Content map[string]struct {
			Schema rawRef `json:"schema"`
		} `json:"content"`
	} `json:"responses"`
}

type rawRef struct {
	Ref string `json:"$ref"`
}

type rawSchema struct {
	Type       string               `json:"type"`
	Required   []string             `json:"required"`
	Properties map[string]rawProp   `json:"properties"`
}

type rawProp struct {
	Type    string `json:"type"`
	Format  string `json:"format"`
	Pattern string `json:"pattern"`
}

var supportedMethods = map[string]model.HTTPMethod{
	"get": model.MethodGET, "post": model.MethodPOST, "put": model.MethodPUT,
	"patch": model.MethodPATCH, "delete": model.MethodDELETE,
}

// Load parses raw OpenAPI JSON bytes. A malformed document produces an
// OpenAPIError diagnostic and a nil Document; per spec §7, linking is then
// skipped and the pipeline continues without it.
func Load(data []byte, sourcePath string) (*Document, *errs.Diagnostic) {
	var raw rawDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		d := errs.NewOpenAPIDiagnostic(sourcePath, "malformed OpenAPI document: %v", err)
		return nil, &d
	}

	doc := &Document{
		Endpoints:  make(map[EndpointKey]EndpointMeta),
		Components: make(map[string]model.Schema),
	}

	for rawPath, ops := range raw.Paths {
		for rawMethod, op := range ops {
			method, ok := supportedMethods[strings.ToLower(rawMethod)]
			if !ok {
				continue
			}
			meta := EndpointMeta{
				RequestSchema:  firstRequestComponent(op),
				ResponseSchema: firstResponseComponent(op),
			}
			doc.Endpoints[EndpointKey{Method: method, Path: rawPath}] = meta
		}
	}

	for name, schema := range raw.Components.Schemas {
		doc.Components[name] = componentToSchema(name, schema)
	}

	return doc, nil
}

func firstRequestComponent(op rawOperation) string {
	for _, content := range op.RequestBody.Content {
		if ref := componentNameFromRef(content.Schema.Ref); ref != "" {
			return ref
		}
	}
	return ""
}

func firstResponseComponent(op rawOperation) string {
	for _, code := range []string{"200", "201"} {
		if resp, ok := op.Responses[code]; ok {
			for _, content := range resp.Content {
				if ref := componentNameFromRef(content.Schema.Ref); ref != "" {
					return ref
				}
			}
		}
	}
	for _, resp := range op.Responses {
		for _, content := range resp.Content {
			if ref := componentNameFromRef(content.Schema.Ref); ref != "" {
				return ref
			}
		}
	}
	return ""
}

func componentNameFromRef(ref string) string {
	const prefix = "#/components/schemas/"
	if strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix)
	}
	return ""
}

func componentToSchema(name string, raw rawSchema) model.Schema {
	required := make(map[string]bool, len(raw.Required))
	for _, r := range raw.Required {
		required[r] = true
	}

	var fields []model.Field
	for propName, prop := range raw.Properties {
		f := model.Field{
			Name:         propName,
			DeclaredType: prop.Type,
			Required:     required[propName],
			Validators:   make(map[model.Validator]bool),
		}
		switch prop.Format {
		case "email":
			f.Validators[model.ValidatorEmail] = true
		case "uri", "url":
			f.Validators[model.ValidatorURL] = true
		case "uuid":
			f.Validators[model.ValidatorUUID] = true
		}
		if prop.Pattern != "" {
			f.Validators[model.ValidatorRegex] = true
		}
		fields = append(fields, f)
	}

	return model.Schema{
		ID:     model.NewNodeId(model.AdapterOpenAPI, "", name),
		Flavor: model.FlavorOpenAPIComponent,
		Name:   name,
		Fields: fields,
	}
}

// holePattern matches a path-parameter hole in either the "{name}" or
// ":name" spelling; both normalize to the same wildcard segment.
var holePattern = regexp.MustCompile(`\{[^}]+\}|:[a-zA-Z_][a-zA-Z0-9_]*`)

// normalizePath splits a path into segments, replacing every parameter
// hole with a single "*" wildcard segment, order preserved.
func normalizePath(p string) []string {
	p = holePattern.ReplaceAllString(p, "*")
	p = strings.Trim(p, "/")
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}

func segmentsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == "*" || b[i] == "*" {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EnrichedRoute carries a code route's original fields plus the matched
// endpoint's component refs, when matched.
type EnrichedRoute struct {
	Route          model.Route
	MatchedRequest  string // OpenAPI component name, "" if unmatched
	MatchedResponse string
}

// Link performs all three linking steps of spec §4.4 against graph's
// code-discovered routes, returning enriched routes, newly synthesized
// virtual routes, and the OpenAPI-component bridge table.
//
// Callers must only invoke Link when an OpenAPI document was actually
// configured for this run (global or per-adapter openapi_path present);
// per the precedence rule in spec §4.4, when both are absent, linking is
// skipped entirely and the pipeline driver passes graph's code routes
// through to the chain extractor unenriched, with no drift findings.
func Link(doc *Document, graph *model.Graph) LinkResult {
	result := LinkResult{
		Bridges: make(map[string]Bridge),
	}

	matchedEndpoints := make(map[EndpointKey]bool)

	for _, route := range graph.Routes {
		if route.Origin != model.OriginCode {
			continue
		}
		key, meta, ok := matchEndpoint(route.Method, route.Path, doc.Endpoints)
		if !ok {
			// Unmatched against the document, but still a valid route: it
			// participates in chains unenriched, just flagged as drift.
			result.Drift = append(result.Drift, DriftFinding{Route: *route, Kind: DriftCodeWithoutComponent})
			result.EnrichedRoutes = append(result.EnrichedRoutes, *route)
			continue
		}
		matchedEndpoints[key] = true
		enriched := *route
		if meta.RequestSchema != "" {
			enriched.RequestSchema = model.NewNodeId(model.AdapterOpenAPI, "", meta.RequestSchema)
			enriched.HasRequest = true
		}
		if meta.ResponseSchema != "" {
			enriched.ResponseSchema = model.NewNodeId(model.AdapterOpenAPI, "", meta.ResponseSchema)
			enriched.HasResponse = true
		}
		result.EnrichedRoutes = append(result.EnrichedRoutes, enriched)
	}

	for key, meta := range doc.Endpoints {
		if matchedEndpoints[key] {
			continue
		}
		virtual := model.Route{
			ID:     model.NewNodeId(model.AdapterOpenAPI, "", "route:"+string(key.Method)+":"+key.Path),
			Method: key.Method,
			Path:   key.Path,
			Origin: model.OriginOpenAPIVirtual,
		}
		if meta.RequestSchema != "" {
			virtual.RequestSchema = model.NewNodeId(model.AdapterOpenAPI, "", meta.RequestSchema)
			virtual.HasRequest = true
		}
		if meta.ResponseSchema != "" {
			virtual.ResponseSchema = model.NewNodeId(model.AdapterOpenAPI, "", meta.ResponseSchema)
			virtual.HasResponse = true
		}
		result.VirtualRoutes = append(result.VirtualRoutes, virtual)
		result.Drift = append(result.Drift, DriftFinding{Route: virtual, Kind: DriftComponentWithoutCode})
	}

	result.Bridges = buildBridges(doc, graph)

	return result
}

// matchEndpoint finds the OpenAPI endpoint with the same method whose path
// matches after hole normalization (spec §4.4 rule 1). Exact raw match is
// tried first to keep the common case O(1).
func matchEndpoint(method model.HTTPMethod, routePath string, endpoints map[EndpointKey]EndpointMeta) (EndpointKey, EndpointMeta, bool) {
	direct := EndpointKey{Method: method, Path: routePath}
	if meta, ok := endpoints[direct]; ok {
		return direct, meta, true
	}

	routeSegments := normalizePath(routePath)
	for key, meta := range endpoints {
		if key.Method != method {
			continue
		}
		if segmentsEqual(routeSegments, normalizePath(key.Path)) {
			return key, meta, true
		}
	}
	return EndpointKey{}, EndpointMeta{}, false
}

// DriftKind distinguishes the two OpenAPIDrift scenarios of spec §4.7.
type DriftKind string

const (
	DriftCodeWithoutComponent DriftKind = "code_without_component"
	DriftComponentWithoutCode DriftKind = "component_without_code"
)

// DriftFinding records one OpenAPIDrift occurrence for the checker to
// surface as a Mismatch.
type DriftFinding struct {
	Route model.Route
	Kind  DriftKind
}

// Bridge is a linked triple: an OpenAPI component plus any same-named
// Pydantic and TS/Zod schema, the anchor for HTTP-stitch checking (spec
// §4.4 rule 3).
type Bridge struct {
	Component model.Schema
	HasTS     bool
	TS        model.Schema
	HasBackend bool
	Backend   model.Schema
}

// LinkResult is everything Link produces.
type LinkResult struct {
	EnrichedRoutes []model.Route
	VirtualRoutes  []model.Route
	Bridges        map[string]Bridge // keyed by component name
	Drift          []DriftFinding
}

func buildBridges(doc *Document, graph *model.Graph) map[string]Bridge {
	bridges := make(map[string]Bridge, len(doc.Components))
	for name, component := range doc.Components {
		b := Bridge{Component: component}
		for _, schema := range graph.Schemas {
			if schema.Name != name {
				continue
			}
			switch schema.Flavor {
			case model.FlavorZod, model.FlavorTSInterface, model.FlavorTSAlias, model.FlavorDTO:
				b.TS = *schema
				b.HasTS = true
			case model.FlavorPydantic, model.FlavorORM:
				b.Backend = *schema
				b.HasBackend = true
			}
		}
		bridges[name] = b
	}
	return bridges
}
