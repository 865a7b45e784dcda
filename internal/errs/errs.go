// Package errs defines the pipeline's abstract error taxonomy (spec §7).
// Per-file and per-reference errors are always recovered and surfaced as
// diagnostics; only ConfigError and ValidationError abort the pipeline.
package errs

import "fmt"

// Kind is the abstract error category.
type Kind string

const (
	KindParse      Kind = "ParseError"
	KindImport     Kind = "ImportError"
	KindConfig     Kind = "ConfigError"
	KindGraph      Kind = "GraphError"
	KindValidation Kind = "ValidationError"
	KindOpenAPI    Kind = "OpenAPIError"
)

// ImportSubKind enumerates the ways the import resolver can fail to
// resolve a reference.
type ImportSubKind string

const (
	ModuleNotFound     ImportSubKind = "ModuleNotFound"
	SymbolNotFound     ImportSubKind = "SymbolNotFound"
	CyclicReExport     ImportSubKind = "CyclicReExport"
	MaxDepthExceeded   ImportSubKind = "MaxDepthExceeded"
)

// GraphSubKind enumerates the graph-walk failure modes (§4.6, §7).
type GraphSubKind string

const (
	GraphMaxDepthExceeded GraphSubKind = "MaxDepthExceeded"
	GraphCycleDetected    GraphSubKind = "CycleDetected"
)

// Diagnostic is a single recovered error, surfaced in the report model
// rather than aborting the pipeline.
type Diagnostic struct {
	Kind    Kind
	SubKind string // ImportSubKind or GraphSubKind value, or "" if not applicable
	Path    string // source file or reference the diagnostic concerns
	Message string
}

func (d Diagnostic) Error() string {
	if d.SubKind != "" {
		return fmt.Sprintf("%s/%s at %s: %s", d.Kind, d.SubKind, d.Path, d.Message)
	}
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Path, d.Message)
}

// Fatal is returned by config loading and rule validation; the pipeline
// driver must stop before running any phase when it sees one of these.
type Fatal struct {
	Kind    Kind // KindConfig or KindValidation
	Message string
}

func (f Fatal) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewConfigError builds a fatal ConfigError.
func NewConfigError(format string, args ...any) error {
	return Fatal{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError builds a fatal ValidationError.
func NewValidationError(format string, args ...any) error {
	return Fatal{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewParseDiagnostic builds a recovered ParseError diagnostic.
func NewParseDiagnostic(path string, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindParse, Path: path, Message: fmt.Sprintf(format, args...)}
}

// NewImportDiagnostic builds a recovered ImportError diagnostic.
func NewImportDiagnostic(sub ImportSubKind, path string, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindImport, SubKind: string(sub), Path: path, Message: fmt.Sprintf(format, args...)}
}

// NewGraphDiagnostic builds a recovered GraphError diagnostic.
func NewGraphDiagnostic(sub GraphSubKind, path string, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindGraph, SubKind: string(sub), Path: path, Message: fmt.Sprintf(format, args...)}
}

// NewOpenAPIDiagnostic builds a recovered OpenAPIError diagnostic.
func NewOpenAPIDiagnostic(path string, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindOpenAPI, Path: path, Message: fmt.Sprintf(format, args...)}
}
