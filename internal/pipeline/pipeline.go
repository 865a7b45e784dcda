// Package pipeline drives the phase-ordered run (spec §3, §5): parse and
// extract each configured adapter's files, assemble the unified graph,
// load and link any configured OpenAPI document, extract data chains, run
// the contract checker, and build the final report. Parsing and
// extraction of independent files may run concurrently; merge, linking,
// chain extraction, and checking are single-threaded over the frozen
// graph, matching the concurrency model the teacher's internal/indexer
// pipeline follows for its own parse/index/persist phases.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stitchlint/stitchlint/internal/assemble"
	"github.com/stitchlint/stitchlint/internal/cache"
	"github.com/stitchlint/stitchlint/internal/chain"
	"github.com/stitchlint/stitchlint/internal/check"
	"github.com/stitchlint/stitchlint/internal/config"
	"github.com/stitchlint/stitchlint/internal/errs"
	"github.com/stitchlint/stitchlint/internal/extract"
	"github.com/stitchlint/stitchlint/internal/extract/fastapi"
	"github.com/stitchlint/stitchlint/internal/extract/nestjs"
	"github.com/stitchlint/stitchlint/internal/extract/tszod"
	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/openapi"
	"github.com/stitchlint/stitchlint/internal/parse"
	"github.com/stitchlint/stitchlint/internal/parse/python"
	"github.com/stitchlint/stitchlint/internal/parse/typescript"
	"github.com/stitchlint/stitchlint/internal/report"
)

// Result is everything one pipeline run produces: the final report plus
// every recovered diagnostic collected along the way (spec §7 — parse and
// import errors never abort the run, they surface here instead).
type Result struct {
	Report      *report.Report
	Graph       *model.Graph
	Diagnostics []errs.Diagnostic
	FromCache   bool
}

// Run executes the full pipeline for cfg, rooted at dir (the directory
// containing the loaded configuration file). The assembled graph is never
// cached; callers that want the cache consulted/refreshed across
// invocations (the check command) should use RunCached instead.
func Run(cfg *config.Config, dir string) (*Result, error) {
	return run(cfg, dir, nil)
}

// RunCached behaves like Run, but first consults c for a graph assembled
// from the same source-tree fingerprint (see Fingerprint) and, on a miss,
// stores the freshly assembled graph back into c before continuing. This
// only skips the parse/extract/assemble phases: linking, chain extraction,
// and checking still run fresh every time, since those are cheap and can
// be affected by config changes (rule severities, openapi_path) that don't
// change the source fingerprint.
func RunCached(cfg *config.Config, dir string, c *cache.Cache) (*Result, error) {
	return run(cfg, dir, c)
}

func run(cfg *config.Config, dir string, c *cache.Cache) (*Result, error) {
	var (
		graph     *model.Graph
		diags     []errs.Diagnostic
		fromCache bool
	)

	fingerprint := Fingerprint(cfg, dir)
	if c != nil {
		if g, ok, err := c.Load(fingerprint); err == nil && ok {
			graph, fromCache = g, true
		}
	}

	if graph == nil {
		results, d := extractAll(cfg, dir)
		diags = d

		g, err := assemble.Assemble(results)
		if err != nil {
			return nil, fmt.Errorf("assemble graph: %w", err)
		}
		graph = g

		if c != nil {
			if err := c.Store(graph, fingerprint); err != nil {
				diags = append(diags, errs.NewParseDiagnostic(dir, "store graph cache: %v", err))
			}
		}
	}

	link := linkOpenAPI(cfg, dir, graph, &diags)

	chainOpts := chain.Options{MaxDepth: cfg.MaxRecursionDepth}
	if len(cfg.Adapters) > 0 {
		chainOpts.PreferredBackendAdapter = adapterTag(config.AdapterType(cfg.Adapters[0].Type))
	}
	chains := chain.Extract(graph, link, chainOpts)

	rules := check.Rules{
		TypeMismatch:     config.Severity(cfg.Rules.TypeMismatch, model.SeverityCritical),
		MissingField:     config.Severity(cfg.Rules.MissingField, model.SeverityCritical),
		UnnormalizedData: config.Severity(cfg.Rules.UnnormalizedData, model.SeverityWarning),
	}
	chains = check.Check(chains, graph, link.Bridges, link.Drift, rules)

	rpt := report.Build(chains, graph.Schemas, time.Now().UTC())

	return &Result{Report: rpt, Graph: graph, Diagnostics: diags, FromCache: fromCache}, nil
}

// extractAll parses and extracts every file named by cfg's adapters.
// Each adapter's files are walked sequentially but files within an
// adapter are parsed/extracted concurrently, matching the "parse/extract
// may run concurrently per file" rule; the results are collected back
// into a stable, sorted order before assembly so CollisionError reporting
// and later sort-by-path stages stay deterministic across runs.
func extractAll(cfg *config.Config, dir string) ([]*extract.Result, []errs.Diagnostic) {
	var (
		mu      sync.Mutex
		results []*extract.Result
		diags   []errs.Diagnostic
	)

	for _, a := range cfg.Adapters {
		paths := sourcePaths(dir, a)
		sort.Strings(paths)

		var wg sync.WaitGroup
		for _, p := range paths {
			p := p
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, diag := extractOne(p, config.AdapterType(a.Type))
				mu.Lock()
				defer mu.Unlock()
				if diag != nil {
					diags = append(diags, *diag)
				}
				if res != nil {
					results = append(results, res)
				}
			}()
		}
		wg.Wait()
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Module.Path < results[j].Module.Path })
	return results, diags
}

func sourcePaths(dir string, a config.AdapterConfig) []string {
	roots := a.SrcPaths
	if a.AppPath != "" {
		roots = []string{a.AppPath}
	}

	exts := parse.FileExtensions[languageFor(config.AdapterType(a.Type))]
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[e] = true
	}

	var out []string
	for _, root := range roots {
		full := filepath.Join(dir, root)
		filepath.Walk(full, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if extSet[filepath.Ext(p)] {
				out = append(out, p)
			}
			return nil
		})
	}
	return out
}

func languageFor(t config.AdapterType) parse.Language {
	if t == config.AdapterTypeFastAPI {
		return parse.LangPython
	}
	return parse.LangTypeScript
}

func extractOne(path string, adapterType config.AdapterType) (*extract.Result, *errs.Diagnostic) {
	content, err := os.ReadFile(path)
	if err != nil {
		d := errs.NewParseDiagnostic(path, "read file: %v", err)
		return nil, &d
	}

	var parser parse.Parser
	if languageFor(adapterType) == parse.LangPython {
		parser = python.New()
	} else {
		parser = typescript.New()
	}

	tree, err := parser.Parse(path, content)
	if err != nil {
		d := errs.NewParseDiagnostic(path, "parse: %v", err)
		return nil, &d
	}
	defer tree.Close()

	switch adapterType {
	case config.AdapterTypeFastAPI:
		res, err := fastapi.Extract(tree)
		if err != nil {
			d := errs.NewParseDiagnostic(path, "extract: %v", err)
			return nil, &d
		}
		return res, nil
	case config.AdapterTypeNestJS:
		res, err := nestjs.Extract(tree)
		if err != nil {
			d := errs.NewParseDiagnostic(path, "extract: %v", err)
			return nil, &d
		}
		return res, nil
	default:
		res, err := tszod.Extract(tree)
		if err != nil {
			d := errs.NewParseDiagnostic(path, "extract: %v", err)
			return nil, &d
		}
		return res, nil
	}
}

func adapterTag(t config.AdapterType) model.Adapter {
	switch t {
	case config.AdapterTypeFastAPI:
		return model.AdapterFastAPI
	case config.AdapterTypeNestJS:
		return model.AdapterNestJS
	default:
		return model.AdapterTypeScript
	}
}

// linkOpenAPI loads and links the configured OpenAPI document, per the
// precedence rule in spec §4.4: a per-adapter openapi_path overrides the
// global one; if neither is set, linking is skipped and graph's code
// routes pass through unenriched with no drift findings, per the
// precondition documented on openapi.Link.
func linkOpenAPI(cfg *config.Config, dir string, graph *model.Graph, diags *[]errs.Diagnostic) openapi.LinkResult {
	docPath := cfg.OpenAPIPath
	for _, a := range cfg.Adapters {
		if a.OpenAPIPath != "" {
			docPath = a.OpenAPIPath
		}
	}
	if docPath == "" {
		return passthroughLink(graph)
	}

	full := filepath.Join(dir, docPath)
	data, err := os.ReadFile(full)
	if err != nil {
		*diags = append(*diags, errs.NewOpenAPIDiagnostic(full, "read OpenAPI document: %v", err))
		return passthroughLink(graph)
	}

	doc, diag := openapi.Load(data, full)
	if diag != nil {
		*diags = append(*diags, *diag)
		return passthroughLink(graph)
	}

	return openapi.Link(doc, graph)
}

// passthroughLink builds the LinkResult the driver uses when no OpenAPI
// document is configured: every code route is carried through unenriched
// and no drift findings are produced.
func passthroughLink(graph *model.Graph) openapi.LinkResult {
	result := openapi.LinkResult{Bridges: map[string]openapi.Bridge{}}
	for _, r := range graph.Routes {
		if r.Origin == model.OriginCode {
			result.EnrichedRoutes = append(result.EnrichedRoutes, *r)
		}
	}
	return result
}

// Fingerprint identifies the state of every file a cached graph would have
// been built from: the sorted adapter source paths plus each matched
// file's size and modification time. RunCached treats a cache entry as
// stale whenever this differs from the fingerprint stored alongside it,
// so touching, adding, or removing any source file invalidates the cache.
func Fingerprint(cfg *config.Config, dir string) string {
	h := sha256.New()
	for _, a := range cfg.Adapters {
		paths := sourcePaths(dir, a)
		sort.Strings(paths)
		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				continue
			}
			fmt.Fprintf(h, "%s|%d|%d\n", p, info.Size(), info.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CacheDir derives the on-disk cache directory from the project name,
// mirroring the teacher's convention of a hidden per-project state
// directory.
func CacheDir(cfg *config.Config, dir string) string {
	name := cfg.ProjectName
	if name == "" {
		name = "default"
	}
	return filepath.Join(dir, ".stitchlint-cache", strings.ReplaceAll(name, "/", "_"))
}

// OpenCache opens the on-disk graph cache for cfg at dir, creating it if
// absent.
func OpenCache(cfg *config.Config, dir string) (*cache.Cache, error) {
	return cache.Open(CacheDir(cfg, dir))
}
