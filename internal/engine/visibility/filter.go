// Package visibility prunes declarations below a minimum access level and
// recomputes which imports the surviving code still needs.
package visibility

import (
	"distiller/internal/engine/model"
	"distiller/internal/engine/resolver"
)

type Filter struct {
	min      model.Visibility
	resolver *resolver.Resolver
}

// Result reports what one Apply call removed. Orphaned imports were used
// before pruning and are not used by any surviving code.
type Result struct {
	Pruned   int
	Orphaned []*model.ImportEntry
}

// New returns a filter that keeps declarations whose own visibility is at
// least min. The resolver recomputes import usage after pruning; only its
// catalog and wildcard strategy are reused.
func New(min model.Visibility, r *resolver.Resolver) *Filter {
	return &Filter{min: min, resolver: r}
}

// Apply prunes unit in place. Imports used only inside removed declarations
// end up with Used == false; an import any surviving token needs stays used.
func (f *Filter) Apply(unit *model.SourceUnit) Result {
	if f == nil || unit == nil || f.min <= model.VisibilityPrivate {
		return Result{}
	}

	pruned := f.prune(unit)
	if pruned == 0 {
		return Result{}
	}

	before := make(map[*model.ImportEntry]bool, len(unit.Imports))
	for _, imp := range unit.Imports {
		before[imp] = imp.Used
	}

	opts := f.resolver.Options()
	opts.LiveOnly = true
	opts.Quiet = true
	f.resolver.WithOptions(opts).Resolve(unit, nil)

	result := Result{Pruned: pruned}
	for _, imp := range unit.Imports {
		// Pruning never makes an import used.
		imp.Used = imp.Used && before[imp]
		if before[imp] && !imp.Used {
			result.Orphaned = append(result.Orphaned, imp)
		}
	}
	return result
}

// prune walks top-down. A removed declaration takes its subtree with it; the
// subtree is detached rather than unlinked so tokens owned by it are seen as
// dead by the resolver, while its names keep shadowing imports.
func (f *Filter) prune(unit *model.SourceUnit) int {
	pruned := 0
	drop := func(d *model.Declaration) bool {
		if d.Modifiers.Visibility >= f.min {
			return false
		}
		d.Walk(func(*model.Declaration) bool {
			pruned++
			return true
		})
		return true
	}
	var descend func(decls []*model.Declaration)
	descend = func(decls []*model.Declaration) {
		for _, d := range decls {
			d.Prune(drop)
			descend(d.Children)
		}
	}
	unit.Prune(drop)
	descend(unit.Declarations)
	return pruned
}
