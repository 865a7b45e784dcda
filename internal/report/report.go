// Package report builds and serializes the final report (spec §6): a
// Report struct mirroring the documented JSON shape, with writers for
// JSON, Markdown, and DOT. Grounded on the teacher's graph.Exporter
// interface (internal/graph/export.go) — serialization is "write to an
// io.Writer", not "return bytes", the same shape generalized from one
// graph-export format to three report formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/stitchlint/stitchlint/internal/model"
)

// Writer serializes a Report to w in one specific format.
type Writer interface {
	Write(r *Report, w io.Writer) error
}

// Report is the full analysis result, independent of output format.
type Report struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
	Chains      []ChainReport `json:"chains"`
}

// Summary aggregates chain and schema counts (spec §6, "summary.schemas.by_type
// and summary.chains_by_type counts are stable and used by regression
// tests").
type Summary struct {
	TotalChains    int                          `json:"total_chains"`
	CriticalIssues int                          `json:"critical_issues"`
	Warnings       int                          `json:"warnings"`
	ValidChains    int                          `json:"valid_chains"`
	ChainsByType   map[model.ChainType]int       `json:"chains_by_type"`
	Schemas        SchemaSummary                `json:"schemas"`
}

// SchemaSummary breaks schema counts down by flavor.
type SchemaSummary struct {
	ByType map[model.SchemaFlavor]int `json:"by_type"`
}

// ChainReport is the report-shaped rendering of one model.Chain.
type ChainReport struct {
	Nodes    []string         `json:"nodes"`
	Type     model.ChainType  `json:"type"`
	Stitches []StitchReport   `json:"stitches"`
}

// StitchReport is the report-shaped rendering of one model.Stitch.
type StitchReport struct {
	Kind       model.StitchKind  `json:"kind"`
	LeftSchema string            `json:"left_schema,omitempty"`
	RightSchema string           `json:"right_schema,omitempty"`
	Mismatches []MismatchReport  `json:"mismatches"`
}

// MismatchReport is the report-shaped rendering of one model.Mismatch.
type MismatchReport struct {
	Kind     model.MismatchKind `json:"kind"`
	Severity model.Severity     `json:"severity"`
	Field    string             `json:"field"`
	Message  string             `json:"message"`
}

const reportVersion = "1"

// Build assembles a Report from the checked chain list and the graph's
// schema table, computing the stable summary counts.
func Build(chains []model.Chain, schemas map[string]*model.Schema, generatedAt time.Time) *Report {
	r := &Report{
		Version:     reportVersion,
		GeneratedAt: generatedAt,
		Summary: Summary{
			ChainsByType: map[model.ChainType]int{
				model.ChainFull:             0,
				model.ChainFrontendInternal: 0,
				model.ChainBackendInternal:  0,
			},
			Schemas: SchemaSummary{ByType: map[model.SchemaFlavor]int{}},
		},
	}

	for _, s := range schemas {
		r.Summary.Schemas.ByType[s.Flavor]++
	}

	for _, c := range chains {
		r.Summary.TotalChains++
		r.Summary.ChainsByType[c.Type]++

		hasCritical := false
		valid := true
		var stitchReports []StitchReport
		for _, s := range c.Stitches {
			valid = valid && len(s.Mismatches) == 0
			var mismatchReports []MismatchReport
			for _, m := range s.Mismatches {
				switch m.Severity {
				case model.SeverityCritical:
					r.Summary.CriticalIssues++
					hasCritical = true
				case model.SeverityWarning:
					r.Summary.Warnings++
				}
				mismatchReports = append(mismatchReports, MismatchReport{
					Kind: m.Kind, Severity: m.Severity, Field: m.Field, Message: m.Message,
				})
			}
			sr := StitchReport{Kind: s.Kind, Mismatches: mismatchReports}
			if s.HasLeft {
				sr.LeftSchema = s.LeftSchema.String()
			}
			if s.HasRight {
				sr.RightSchema = s.RightSchema.String()
			}
			stitchReports = append(stitchReports, sr)
		}
		if !hasCritical && valid {
			r.Summary.ValidChains++
		}

		nodes := make([]string, len(c.Nodes))
		for i, n := range c.Nodes {
			nodes[i] = n.String()
		}
		r.Chains = append(r.Chains, ChainReport{Nodes: nodes, Type: c.Type, Stitches: stitchReports})
	}

	return r
}

// JSONWriter writes the report as indented JSON matching spec §6's
// documented shape.
type JSONWriter struct{}

func (JSONWriter) Write(r *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// severityGlyph renders a Markdown-friendly marker for a severity, used by
// MarkdownWriter.
func severityGlyph(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityWarning:
		return "🟡"
	default:
		return "🔵"
	}
}

// MarkdownWriter renders the report as spec §6's documented Markdown
// structure: header, summary statistics, per-chain blocks, and a
// recommendations section grouping mismatches by kind.
type MarkdownWriter struct {
	ProjectName string
}

func (w MarkdownWriter) Write(r *Report, out io.Writer) error {
	title := "stitchlint report"
	if w.ProjectName != "" {
		title = w.ProjectName + " — stitchlint report"
	}
	fmt.Fprintf(out, "# %s\n\n", title)
	fmt.Fprintf(out, "Generated %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintln(out, "## Summary")
	fmt.Fprintf(out, "- Total chains: %d\n", r.Summary.TotalChains)
	fmt.Fprintf(out, "- Valid chains: %d\n", r.Summary.ValidChains)
	fmt.Fprintf(out, "- Critical issues: %d\n", r.Summary.CriticalIssues)
	fmt.Fprintf(out, "- Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(out, "- Full: %d, FrontendInternal: %d, BackendInternal: %d\n\n",
		r.Summary.ChainsByType[model.ChainFull],
		r.Summary.ChainsByType[model.ChainFrontendInternal],
		r.Summary.ChainsByType[model.ChainBackendInternal])

	fmt.Fprintln(out, "## Chains")
	for i, c := range r.Chains {
		fmt.Fprintf(out, "\n### Chain %d (%s)\n\n", i+1, c.Type)
		for _, n := range c.Nodes {
			fmt.Fprintf(out, "- `%s`\n", n)
		}
		for _, s := range c.Stitches {
			if len(s.Mismatches) == 0 {
				continue
			}
			fmt.Fprintf(out, "\n**%s stitch**\n\n", s.Kind)
			for _, m := range s.Mismatches {
				fmt.Fprintf(out, "- %s %s `%s`: %s\n", severityGlyph(m.Severity), m.Kind, m.Field, m.Message)
			}
		}
	}

	fmt.Fprintln(out, "\n## Recommendations")
	byKind := make(map[model.MismatchKind][]MismatchReport)
	var kinds []model.MismatchKind
	for _, c := range r.Chains {
		for _, s := range c.Stitches {
			for _, m := range s.Mismatches {
				if _, ok := byKind[m.Kind]; !ok {
					kinds = append(kinds, m.Kind)
				}
				byKind[m.Kind] = append(byKind[m.Kind], m)
			}
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		fmt.Fprintf(out, "\n### %s (%d)\n\n", kind, len(byKind[kind]))
		for _, m := range byKind[kind] {
			fmt.Fprintf(out, "- `%s`: %s\n", m.Field, m.Message)
		}
	}

	return nil
}

// DOTWriter writes one DOT graph per adapter, nodes labeled by NodeId,
// edges labeled by edge kind (spec §6).
type DOTWriter struct{}

func (DOTWriter) Write(graph *model.Graph, w io.Writer) error {
	byAdapter := make(map[model.Adapter][]model.Edge)
	for _, e := range graph.Edges {
		byAdapter[e.Src.Adapter] = append(byAdapter[e.Src.Adapter], e)
	}

	var adapters []model.Adapter
	for a := range byAdapter {
		adapters = append(adapters, a)
	}
	sort.Slice(adapters, func(i, j int) bool { return adapters[i] < adapters[j] })

	for _, adapter := range adapters {
		fmt.Fprintf(w, "digraph %s {\n", adapter)
		for _, e := range byAdapter[adapter] {
			fmt.Fprintf(w, "  %q -> %q [label=%q];\n", e.Src.String(), e.Dst.String(), e.Kind)
		}
		fmt.Fprintln(w, "}")
	}
	return nil
}
