// Package emitter renders a pruned source unit as compact, language-shaped
// text: signatures and structure stay, bodies and unused imports go.
package emitter

import (
	"distiller/internal/core/errors"
	"distiller/internal/engine/model"
	"fmt"
	"strings"
)

const indentUnit = "    "

type Options struct {
	Detail         model.DetailLevel
	IncludeImports bool
	// Frame wraps each unit in <file path="..."> ... </file>.
	Frame bool
}

// renderer writes one language's syntax.
type renderer interface {
	header(w *writer, unit *model.SourceUnit)
	imports(w *writer, imports []*model.ImportEntry)
	declaration(w *writer, d *model.Declaration, depth int)
}

type Emitter struct {
	opts      Options
	renderers map[string]renderer
}

func New(opts Options) *Emitter {
	e := &Emitter{opts: opts}
	e.renderers = map[string]renderer{
		"java":   &javaRenderer{detail: opts.Detail},
		"python": &pythonRenderer{detail: opts.Detail},
	}
	return e
}

// Emit renders unit. Only imports still marked used are written. Output is a
// pure function of the unit and the options.
func (e *Emitter) Emit(unit *model.SourceUnit) (string, error) {
	r, ok := e.renderers[unit.Language]
	if !ok {
		return "", errors.UnsupportedLanguage(unit.Path, unit.Language)
	}

	w := &writer{}
	if e.opts.Frame {
		w.raw(fmt.Sprintf("<file path=\"%s\">\n", unit.Path))
	}

	r.header(w, unit)
	if e.opts.IncludeImports {
		var used []*model.ImportEntry
		for _, imp := range unit.Imports {
			if imp.Used {
				used = append(used, imp)
			}
		}
		if len(used) > 0 {
			w.separate()
			r.imports(w, used)
		}
	}
	for _, d := range unit.Declarations {
		if !visible(d, e.opts.Detail) {
			continue
		}
		w.separate()
		r.declaration(w, d, 0)
	}

	if e.opts.Frame {
		w.raw("</file>\n")
	}
	return w.String(), nil
}

// writer accumulates lines and inserts at most one blank line between
// top-level blocks.
type writer struct {
	b       strings.Builder
	started bool
	pending bool
}

func (w *writer) separate() {
	w.pending = w.started
}

func (w *writer) line(depth int, s string) {
	if w.pending {
		w.b.WriteByte('\n')
		w.pending = false
	}
	w.started = true
	w.b.WriteString(strings.Repeat(indentUnit, depth))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) raw(s string) {
	w.pending = false
	w.b.WriteString(s)
}

func (w *writer) String() string {
	return w.b.String()
}

func annotationText(a model.Annotation) string {
	return "@" + strings.TrimPrefix(a.Name, "@") + a.Args
}

// visible filters by detail level: fields only appear from signatures+fields
// on, enum constants always.
func visible(d *model.Declaration, detail model.DetailLevel) bool {
	return d.Kind != model.KindField || d.EnumConstant || detail >= model.DetailSignaturesFields
}

func visibleChildren(d *model.Declaration, detail model.DetailLevel) []*model.Declaration {
	out := make([]*model.Declaration, 0, len(d.Children))
	for _, c := range d.Children {
		if visible(c, detail) {
			out = append(out, c)
		}
	}
	return out
}
