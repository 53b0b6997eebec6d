// Package resolver decides, per import, whether code in the file depends on
// it. Documentation mentions never count as usage.
package resolver

import (
	"distiller/internal/engine/model"
	"fmt"
	"strings"
)

// WildcardStrategy selects how many wildcard imports a single unresolved
// reference may mark used.
type WildcardStrategy string

const (
	// WildcardFirst marks the first matching wildcard in declaration order.
	WildcardFirst WildcardStrategy = "first"
	// WildcardAll marks every matching wildcard.
	WildcardAll WildcardStrategy = "all"
)

func ParseWildcardStrategy(s string) (WildcardStrategy, error) {
	switch WildcardStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WildcardFirst:
		return WildcardFirst, nil
	case WildcardAll:
		return WildcardAll, nil
	}
	return "", fmt.Errorf("unrecognized wildcard strategy %q (expected first or all)", s)
}

type Options struct {
	Strategy WildcardStrategy
	// LiveOnly skips tokens whose owning declaration has been detached.
	LiveOnly bool
	// Quiet suppresses diagnostics, for recomputation passes.
	Quiet bool
}

type Resolver struct {
	catalog *Catalog
	opts    Options
}

func New(catalog *Catalog, opts Options) *Resolver {
	if opts.Strategy == "" {
		opts.Strategy = WildcardFirst
	}
	return &Resolver{catalog: catalog, opts: opts}
}

func (r *Resolver) Options() Options {
	return r.opts
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// WithOptions returns a resolver sharing the catalog with different options.
func (r *Resolver) WithOptions(opts Options) *Resolver {
	return New(r.catalog, opts)
}

// pass holds the state of one Resolve call.
type pass struct {
	r         *Resolver
	unit      *model.SourceUnit
	idx       *importIndex
	diags     []model.Diagnostic
	heuristic map[string]bool
}

// Resolve recomputes the used flag of every import of unit from scratch and
// returns the unused imports plus the diagnostics of this pass. Diagnostics
// are also added to sink when it is not nil.
func (r *Resolver) Resolve(unit *model.SourceUnit, sink *model.Collector) model.ResolutionResult {
	unit.ResetUsage()
	p := &pass{
		r:         r,
		unit:      unit,
		idx:       buildIndex(unit.Imports),
		heuristic: make(map[string]bool),
	}

	for _, tok := range unit.Tokens {
		if !tok.IsCode() {
			continue
		}
		if r.opts.LiveOnly && !tok.Live() {
			continue
		}
		p.resolveToken(tok)
	}
	p.reportDocumentationOnly()

	model.SortDiagnostics(p.diags)
	if sink != nil && !r.opts.Quiet {
		for _, d := range p.diags {
			sink.Add(d)
		}
	}
	return model.ResolutionResult{Unused: unit.UnusedImports(), Diagnostics: p.diags}
}

func (p *pass) resolveToken(tok model.ReferenceToken) {
	if shadowed(p.unit, tok) {
		return
	}
	lang := p.unit.Language

	matched := false
	for _, imp := range p.idx.qualifiedMatches(lang, tok) {
		imp.MarkUsed()
		matched = true
	}

	candidates := p.idx.direct(lang, tok)
	if len(candidates) > 1 {
		candidates = narrowByPath(candidates, tok)
	}
	switch len(candidates) {
	case 0:
	case 1:
		candidates[0].MarkUsed()
		return
	default:
		p.resolveClash(tok, candidates)
		return
	}
	if matched || p.r.catalog.Implicit(lang, tok.Name) {
		return
	}
	p.wildcardFallback(tok)
}

// resolveClash marks the most recently declared candidate and records the
// ambiguity. Exactly one entry is marked per reference.
func (p *pass) resolveClash(tok model.ReferenceToken, candidates []*model.ImportEntry) {
	chosen := candidates[0]
	paths := make([]string, 0, len(candidates))
	for _, imp := range candidates {
		if imp.Order > chosen.Order {
			chosen = imp
		}
		paths = append(paths, imp.String())
	}
	chosen.MarkUsed()
	p.report(model.SeverityWarning, model.DiagAmbiguousReference, tok.Location, tok.Name,
		"%q matches %d imports (%s); using %s", tok.Name, len(candidates), strings.Join(paths, ", "), chosen.String())
}

// wildcardFallback tries the wildcard imports in declaration order. Catalog
// confirmed members win over packages the catalog does not know; a known
// package that lacks the name is never a match.
func (p *pass) wildcardFallback(tok model.ReferenceToken) {
	lang := p.unit.Language
	var confirmed, plausible []*model.ImportEntry
	for _, imp := range p.idx.wildcards {
		if !compatible(lang, tok.Role, imp) {
			continue
		}
		// Non-static Java wildcards only supply types.
		if lang == "java" && !imp.Static && !startsUpper(tok.Name) {
			continue
		}
		switch p.r.catalog.Lookup(lang, imp.Path, tok.Name) {
		case MembershipConfirmed:
			confirmed = append(confirmed, imp)
		case MembershipUnknown:
			plausible = append(plausible, imp)
		}
	}

	if len(confirmed) > 0 {
		p.markWildcards(confirmed)
		return
	}
	if len(plausible) == 0 {
		return
	}
	for _, imp := range p.markWildcards(plausible) {
		key := imp.String() + "\x00" + tok.Name
		if p.heuristic[key] {
			continue
		}
		p.heuristic[key] = true
		p.report(model.SeverityInfo, model.DiagWildcardHeuristic, tok.Location, tok.Name,
			"%q assumed to come from wildcard import %s", tok.Name, imp.String())
	}
}

func (p *pass) markWildcards(matches []*model.ImportEntry) []*model.ImportEntry {
	if p.r.opts.Strategy == WildcardFirst {
		matches = matches[:1]
	}
	for _, imp := range matches {
		imp.MarkUsed()
	}
	return matches
}

// reportDocumentationOnly flags unused imports that documentation still
// mentions.
func (p *pass) reportDocumentationOnly() {
	for _, imp := range p.unit.Imports {
		if imp.Used {
			continue
		}
		for _, tok := range p.unit.Tokens {
			if tok.IsCode() || !mentions(tok, imp) {
				continue
			}
			p.report(model.SeverityInfo, model.DiagDocumentationOnlyImport, imp.Location, imp.Path,
				"import %s is only referenced in documentation, consider removing it", imp.String())
			break
		}
	}
}

func mentions(tok model.ReferenceToken, imp *model.ImportEntry) bool {
	if imp.Wildcard {
		return hasPathPrefix(tok.Path, imp.Path)
	}
	if tok.Path == imp.Path || hasPathPrefix(tok.Path, imp.Path) {
		return true
	}
	return imp.Binding != "" && tok.Name == imp.Binding
}

func (p *pass) report(sev model.Severity, code model.DiagnosticCode, loc model.Location, symbol, format string, args ...any) {
	if loc.File == "" {
		loc.File = p.unit.Path
	}
	p.diags = append(p.diags, model.Diagnostic{
		Severity: sev,
		Code:     code,
		File:     loc.File,
		Line:     loc.Line,
		Column:   loc.Column,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	})
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
