package check

import (
	"fmt"
	"sort"

	"github.com/stitchlint/stitchlint/internal/model"
	"github.com/stitchlint/stitchlint/internal/openapi"
)

// Rules is the severity mapping for the three configurable mismatch kinds
// (spec §6's rules.* options). DecoratorInvalid and OpenAPIDrift are fixed
// at warning severity per spec §4.7 and are not configurable.
type Rules struct {
	TypeMismatch      model.Severity
	MissingField      model.Severity
	UnnormalizedData  model.Severity
}

func (r Rules) severityFor(kind model.MismatchKind) model.Severity {
	switch kind {
	case model.MismatchType:
		return r.TypeMismatch
	case model.MismatchMissingField:
		return r.MissingField
	case model.MismatchUnnormalized:
		return r.UnnormalizedData
	case model.MismatchDecoratorInval, model.MismatchOpenAPIDrift:
		return model.SeverityWarning
	default:
		return model.SeverityWarning
	}
}

// schemaLookup resolves a NodeId referenced by a stitch to the model.Schema
// it names. An OpenAPI-adapter id resolves through the bridge table to the
// document component itself (the declared contract), since bridges are the
// primary target of HTTP-stitch checking (spec §4.4 rule 3); every other
// adapter resolves directly against the assembled graph.
func schemaLookup(id model.NodeId, graph *model.Graph, bridges map[string]openapi.Bridge) (model.Schema, bool) {
	if id.Adapter == model.AdapterOpenAPI {
		if b, ok := bridges[id.Symbol]; ok {
			return b.Component, true
		}
		return model.Schema{}, false
	}
	if s, ok := graph.Schema(id); ok {
		return *s, true
	}
	return model.Schema{}, false
}

// Check evaluates every stitch of every chain, filling in each Stitch's
// Mismatches in place, and returns the same chains. drift is folded in as
// OpenAPIDrift mismatches attached to a synthetic stitch on the chain
// containing the drifted route, so drift findings flow through the same
// report shape as every other mismatch.
func Check(chains []model.Chain, graph *model.Graph, bridges map[string]openapi.Bridge, drift []openapi.DriftFinding, rules Rules) []model.Chain {
	driftByRoute := make(map[string]openapi.DriftFinding, len(drift))
	for _, d := range drift {
		driftByRoute[d.Route.ID.String()] = d
	}

	for ci := range chains {
		chain := &chains[ci]
		for si := range chain.Stitches {
			stitch := &chain.Stitches[si]
			stitch.Mismatches = checkStitch(stitch, graph, bridges, rules)
		}
		for _, n := range chain.Nodes {
			if d, ok := driftByRoute[n.String()]; ok {
				chain.Stitches = append(chain.Stitches, driftStitch(d, rules))
				delete(driftByRoute, n.String())
			}
		}
	}

	return chains
}

func driftStitch(d openapi.DriftFinding, rules Rules) model.Stitch {
	msg := "code route has no matching OpenAPI component"
	if d.Kind == openapi.DriftComponentWithoutCode {
		msg = "OpenAPI component has no matching code route"
	}
	return model.Stitch{
		Kind: model.StitchHTTP,
		Mismatches: []model.Mismatch{{
			Kind:     model.MismatchOpenAPIDrift,
			Severity: rules.severityFor(model.MismatchOpenAPIDrift),
			Field:    "",
			Message:  msg,
		}},
	}
}

func checkStitch(stitch *model.Stitch, graph *model.Graph, bridges map[string]openapi.Bridge, rules Rules) []model.Mismatch {
	var mismatches []model.Mismatch
	if stitch.Kind == model.StitchHTTP && stitch.HasRoute {
		mismatches = append(mismatches, decoratorMismatches(stitch, graph, rules)...)
	}

	if !stitch.HasLeft || !stitch.HasRight {
		return mismatches
	}
	left, leftOK := schemaLookup(stitch.LeftSchema, graph, bridges)
	right, rightOK := schemaLookup(stitch.RightSchema, graph, bridges)
	if !leftOK || !rightOK {
		return mismatches
	}

	seen := make(map[string]bool)

	for _, lf := range left.Fields {
		rf, ok := right.FieldByName(lf.Name)
		if !ok {
			if lf.Required {
				mismatches = append(mismatches, mismatch(model.MismatchMissingField, rules, lf.Name,
					"field %q required on one side is absent on the other", lf.Name))
			}
			continue
		}
		seen[lf.Name] = true
		mismatches = append(mismatches, compareFields(lf, rf, rules)...)
	}

	for _, rf := range right.Fields {
		if seen[rf.Name] {
			continue
		}
		if rf.Required {
			mismatches = append(mismatches, mismatch(model.MismatchMissingField, rules, rf.Name,
				"field %q required on one side is absent on the other", rf.Name))
		}
	}

	sort.SliceStable(mismatches, func(i, j int) bool {
		if mismatches[i].Kind != mismatches[j].Kind {
			return mismatches[i].Kind < mismatches[j].Kind
		}
		return mismatches[i].Field < mismatches[j].Field
	})

	return mismatches
}

// decoratorMismatches surfaces a NestJS handler's DecoratorInvalid finding
// (spec §4.7), carried on the matched Route since it is detected during
// extraction, not here: a request-binding decorator like @Body() applied
// to a bare primitive rather than a DTO class.
func decoratorMismatches(stitch *model.Stitch, graph *model.Graph, rules Rules) []model.Mismatch {
	route, ok := graph.Route(stitch.Route)
	if !ok || !route.DecoratorInvalid {
		return nil
	}
	return []model.Mismatch{mismatch(model.MismatchDecoratorInval, rules, route.DecoratorField,
		"%s", route.DecoratorMessage)}
}

func compareFields(l, r model.Field, rules Rules) []model.Mismatch {
	var out []model.Mismatch

	lt := canonicalType(l.DeclaredType, l.Validators[model.ValidatorInt])
	rt := canonicalType(r.DeclaredType, r.Validators[model.ValidatorInt])
	if lt != "unknown" && rt != "unknown" && lt != rt {
		out = append(out, mismatch(model.MismatchType, rules, l.Name,
			"field %q has incompatible types (%s vs %s)", l.Name, lt, rt))
	}

	if l.Required != r.Required {
		// A required/optional disagreement on a field present on both
		// sides is reported as MissingField: the stricter side requires
		// data the looser side does not guarantee.
		out = append(out, mismatch(model.MismatchMissingField, rules, l.Name,
			"field %q required on one side, optional on the other", l.Name))
	}

	for _, v := range missingValidators(l.Validators, r.Validators) {
		out = append(out, mismatch(model.MismatchUnnormalized, rules, l.Name,
			"field %q enforces %s on one side but not the other", l.Name, v))
	}
	for _, v := range missingValidators(r.Validators, l.Validators) {
		out = append(out, mismatch(model.MismatchUnnormalized, rules, l.Name,
			"field %q enforces %s on one side but not the other", l.Name, v))
	}

	return out
}

// missingValidators returns the validators set in have but absent from
// want, sorted by name so a field with several validator differences
// produces the same mismatch order on every run (spec's determinism
// requirement: two runs over the same bytes produce byte-identical
// reports).
func missingValidators(have, want map[model.Validator]bool) []model.Validator {
	var missing []model.Validator
	for v := range have {
		if !want[v] {
			missing = append(missing, v)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func mismatch(kind model.MismatchKind, rules Rules, field, format string, args ...any) model.Mismatch {
	return model.Mismatch{
		Kind:     kind,
		Severity: rules.severityFor(kind),
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}
