// Package resolve translates an import reference, (importing-module,
// local-name), into a NodeId, per spec §4.3. It never inspects source
// text directly; it works purely over the assembled model.Graph and the
// raw import specifiers the extractors recorded as EdgeImports edges.
//
// Grounded on the teacher's internal/linker/imports.go memoization and
// same-service-scoping idiom (findManifestMatches / sameServiceFilter),
// retargeted from manifest-dependency matching to filesystem/tsconfig
// module resolution, and on the teacher's golang-lru-style caching
// pattern used throughout internal/graph/embedded.
package resolve

import (
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stitchlint/stitchlint/internal/errs"
	"github.com/stitchlint/stitchlint/internal/model"
)

// Unresolved is the distinguished marker NodeId returned when a reference
// cannot be resolved. Its Symbol is never a real symbol name a parser
// would produce, so it cannot collide with a genuine NodeId.
var Unresolved = model.NodeId{Symbol: "<unresolved>"}

// IsUnresolved reports whether id is the Unresolved marker.
func IsUnresolved(id model.NodeId) bool { return id == Unresolved }

const defaultCacheSize = 4096

// Options configures a Resolver, sourced from the adapter's configuration
// (spec §6).
type Options struct {
	// PythonRoot is the project root absolute imports resolve against.
	PythonRoot string
	// TSConfigPaths maps a tsconfig "paths" prefix (e.g. "@/") to its
	// replacement filesystem prefix (e.g. "src/").
	TSConfigPaths map[string]string
	// MaxRecursionDepth bounds re-export chain following. Zero means use
	// the implementer-chosen safety default.
	MaxRecursionDepth int
	// Strict, when true, causes an unresolved reference to also produce a
	// Diagnostic finding (spec §7); when false the marker is returned
	// silently and the caller is expected to truncate the dependent chain.
	Strict bool
}

// defaultSafetyDepth bounds recursion even when MaxRecursionDepth is unset,
// per the design note in spec §9 ("the implementer must still provide a
// safety bound even when config says unlimited").
const defaultSafetyDepth = 64

// Resolver resolves import references against a frozen model.Graph
// snapshot. A Resolver is built once per pipeline run and discarded. Its
// memo cache is golang-lru's Cache, which locks internally; the indexes
// are only read after New returns.
type Resolver struct {
	graph *model.Graph
	opts  Options

	cache *lru.Cache[string, cacheEntry]

	// reexports maps a module path to the set of module paths it
	// wildcard-re-exports from, built once from EdgeImports edges whose
	// Dst symbol is "*". Re-export propagation is a lookup rewrite over
	// this table, not extra graph edges (spec §9).
	reexports map[string][]string

	// symbolIndex maps (modulePath, symbolName) to NodeId, built once from
	// graph.Symbols and graph.Schemas for O(1) lookup.
	symbolIndex map[string]map[string]model.NodeId
}

type cacheEntry struct {
	id       model.NodeId
	resolved bool
	subKind  errs.ImportSubKind
}

// New builds a Resolver over graph with the given options.
func New(graph *model.Graph, opts Options) *Resolver {
	cache, _ := lru.New[string, cacheEntry](defaultCacheSize)
	r := &Resolver{
		graph:       graph,
		opts:        opts,
		cache:       cache,
		reexports:   make(map[string][]string),
		symbolIndex: make(map[string]map[string]model.NodeId),
	}
	r.buildIndexes()
	return r
}

func (r *Resolver) buildIndexes() {
	index := func(modulePath, name string, id model.NodeId) {
		m := r.symbolIndex[modulePath]
		if m == nil {
			m = make(map[string]model.NodeId)
			r.symbolIndex[modulePath] = m
		}
		m[name] = id
	}
	for _, s := range r.graph.Symbols {
		index(s.Module, s.Name, s.ID)
	}
	for _, s := range r.graph.Schemas {
		index(s.ID.Path, s.Name, s.ID)
	}
	for _, edge := range r.graph.Edges {
		if edge.Kind == model.EdgeImports && edge.Dst.Symbol == "*" {
			r.reexports[edge.Src.Path] = append(r.reexports[edge.Src.Path], edge.Dst.Path)
		}
	}
}

func (r *Resolver) safetyDepth() int {
	if r.opts.MaxRecursionDepth > 0 {
		return r.opts.MaxRecursionDepth
	}
	return defaultSafetyDepth
}

// Resolve resolves localName as used in fromModule, a raw import specifier
// (e.g. "./schemas", "@/lib/api", "..models.user", "app.models"), against
// the adapter's language rules. It returns Unresolved plus, in strict
// mode, an ImportError diagnostic when resolution fails.
func (r *Resolver) Resolve(fromModule model.Module, spec, localName string) (model.NodeId, []errs.Diagnostic) {
	key := fromModule.Path + "\x00" + spec + "\x00" + localName
	if entry, ok := r.cache.Get(key); ok {
		if entry.resolved {
			return entry.id, nil
		}
		return Unresolved, r.unresolvedDiagnostics(fromModule.Path, spec, localName, entry.subKind)
	}

	id, subKind, ok := r.resolveUncached(fromModule, spec, localName, r.safetyDepth())
	r.cache.Add(key, cacheEntry{id: id, resolved: ok, subKind: subKind})
	if ok {
		return id, nil
	}
	return Unresolved, r.unresolvedDiagnostics(fromModule.Path, spec, localName, subKind)
}

func (r *Resolver) unresolvedDiagnostics(fromPath, spec, localName string, subKind errs.ImportSubKind) []errs.Diagnostic {
	if !r.opts.Strict {
		return nil
	}
	return []errs.Diagnostic{
		errs.NewImportDiagnostic(subKind, fromPath, "cannot resolve %q (%s) imported by %s", localName, spec, fromPath),
	}
}

func (r *Resolver) resolveUncached(fromModule model.Module, spec, localName string, depth int) (model.NodeId, errs.ImportSubKind, bool) {
	if depth <= 0 {
		return model.NodeId{}, errs.MaxDepthExceeded, false
	}

	modulePath, ok := r.resolveModulePath(fromModule, spec)
	if !ok {
		return model.NodeId{}, errs.ModuleNotFound, false
	}

	for _, candidate := range r.candidatePaths(modulePath, fromModule.Language) {
		if id, ok := r.lookupSymbol(candidate, localName, depth); ok {
			return id, "", true
		}
	}
	return model.NodeId{}, errs.SymbolNotFound, false
}

// candidatePaths expands a dotted-module-derived path (no file extension)
// into the concrete source file paths the graph actually indexes symbols
// under, per the module-to-path mapping noted in resolvePython's doc
// comment and its TypeScript analogue (index-file resolution).
func (r *Resolver) candidatePaths(base string, lang model.Language) []string {
	switch lang {
	case model.LangPython:
		return []string{base, base + ".py", base + "/__init__.py"}
	case model.LangTypeScript:
		return []string{base, base + ".ts", base + ".tsx", base + "/index.ts", base + "/index.tsx"}
	default:
		return []string{base}
	}
}

// lookupSymbol finds localName in modulePath's own symbol table, or, if
// absent, in any module modulePath wildcard-re-exports from (spec §4.3
// rule 3), following re-export chains up to depth.
func (r *Resolver) lookupSymbol(modulePath, localName string, depth int) (model.NodeId, bool) {
	if depth <= 0 {
		return model.NodeId{}, false
	}
	if syms, ok := r.symbolIndex[modulePath]; ok {
		if id, ok := syms[localName]; ok {
			return id, true
		}
	}
	for _, reexported := range r.reexports[modulePath] {
		if id, ok := r.lookupSymbol(reexported, localName, depth-1); ok {
			return id, true
		}
	}
	return model.NodeId{}, false
}

// resolveModulePath translates a raw import specifier into a canonical
// module path, per the language-specific rules of spec §4.3 rules 1-2.
func (r *Resolver) resolveModulePath(fromModule model.Module, spec string) (string, bool) {
	switch fromModule.Language {
	case model.LangPython:
		return r.resolvePython(fromModule.Path, spec)
	case model.LangTypeScript:
		return r.resolveTypeScript(fromModule.Path, spec)
	default:
		return "", false
	}
}

// resolvePython implements rule 1: relative imports resolve against the
// importing module's package directory; absolute imports resolve against
// PythonRoot. Module-to-path mapping is filesystem-based: "a.b.c" maps to
// "a/b/c.py" or "a/b/c/__init__.py".
func (r *Resolver) resolvePython(fromPath, spec string) (string, bool) {
	dir := path.Dir(fromPath)

	if strings.HasPrefix(spec, ".") {
		leadingDots := 0
		for leadingDots < len(spec) && spec[leadingDots] == '.' {
			leadingDots++
		}
		rest := spec[leadingDots:]
		base := dir
		for i := 1; i < leadingDots; i++ {
			base = path.Dir(base)
		}
		if rest == "" {
			return base, true
		}
		return path.Join(base, strings.ReplaceAll(rest, ".", "/")), true
	}

	if r.opts.PythonRoot == "" {
		return strings.ReplaceAll(spec, ".", "/"), true
	}
	return path.Join(r.opts.PythonRoot, strings.ReplaceAll(spec, ".", "/")), true
}

// resolveTypeScript implements rule 2: tsconfig "paths" prefixes, explicit
// relative paths, and bare package specifiers (left unresolved; they refer
// to node_modules, outside the analyzed source tree).
func (r *Resolver) resolveTypeScript(fromPath, spec string) (string, bool) {
	if strings.HasPrefix(spec, ".") {
		return path.Clean(path.Join(path.Dir(fromPath), spec)), true
	}

	for prefix, target := range r.opts.TSConfigPaths {
		trimmedPrefix := strings.TrimSuffix(prefix, "*")
		if strings.HasPrefix(spec, trimmedPrefix) {
			rest := strings.TrimPrefix(spec, trimmedPrefix)
			return path.Join(strings.TrimSuffix(target, "*"), rest), true
		}
	}

	// Bare specifier with no matching tsconfig path: not in the analyzed
	// source tree (a node_modules package). Not an error; the caller
	// simply finds no symbols for it.
	return "", false
}
