package emitter

import (
	"distiller/internal/engine/model"
	"strings"
)

type pythonRenderer struct {
	detail model.DetailLevel
}

func (r *pythonRenderer) header(*writer, *model.SourceUnit) {}

// imports merges consecutive `from m import ...` entries of one module into a
// single line.
func (r *pythonRenderer) imports(w *writer, imports []*model.ImportEntry) {
	for i := 0; i < len(imports); {
		imp := imports[i]
		switch {
		case imp.Wildcard:
			w.line(0, "from "+imp.Path+" import *")
			i++
		case imp.From == "":
			s := "import " + imp.Path
			if imp.Alias != "" {
				s += " as " + imp.Alias
			}
			w.line(0, s)
			i++
		default:
			var names []string
			j := i
			for ; j < len(imports) && imports[j].From == imp.From && !imports[j].Wildcard; j++ {
				names = append(names, pythonImportedName(imports[j]))
			}
			w.line(0, "from "+imp.From+" import "+strings.Join(names, ", "))
			i = j
		}
	}
}

func pythonImportedName(imp *model.ImportEntry) string {
	name := strings.TrimPrefix(imp.Path, imp.From)
	if !strings.HasSuffix(imp.From, ".") {
		name = strings.TrimPrefix(name, ".")
	}
	if imp.Alias != "" {
		name += " as " + imp.Alias
	}
	return name
}

func (r *pythonRenderer) declaration(w *writer, d *model.Declaration, depth int) {
	if r.detail >= model.DetailSignaturesFields {
		for _, a := range d.Annotations {
			w.line(depth, annotationText(a))
		}
	}
	switch d.Kind {
	case model.KindClass:
		r.class(w, d, depth)
	case model.KindFunction:
		w.line(depth, r.function(d))
	default:
		w.line(depth, r.field(d))
	}
}

func (r *pythonRenderer) class(w *writer, d *model.Declaration, depth int) {
	s := "class " + d.Name + pythonTypeParams(d.TypeParams)
	if len(d.Extends) > 0 {
		s += "(" + strings.Join(d.Extends, ", ") + ")"
	}
	w.line(depth, s+":")

	children := visibleChildren(d, r.detail)
	if len(children) == 0 {
		w.line(depth+1, "pass")
		return
	}
	for _, c := range children {
		r.declaration(w, c, depth+1)
	}
}

func (r *pythonRenderer) function(d *model.Declaration) string {
	var b strings.Builder
	if d.Modifiers.Has("async") {
		b.WriteString("async ")
	}
	b.WriteString("def " + d.Name + pythonTypeParams(d.TypeParams))
	b.WriteString("(" + pythonParams(d.Params) + ")")
	if d.Result != "" {
		b.WriteString(" -> " + d.Result)
	}
	if r.detail >= model.DetailFullMinusBodies && d.HasBody {
		b.WriteString(": ...")
	}
	return b.String()
}

func (r *pythonRenderer) field(d *model.Declaration) string {
	s := d.Name
	if d.Result != "" {
		s += ": " + d.Result
	}
	if r.detail >= model.DetailFullMinusBodies && d.Value != "" {
		s += " = " + d.Value
	}
	return s
}

func pythonParams(params []model.Param) string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name
		if p.Type != "" {
			s += ": " + p.Type
		}
		if p.Default != "" {
			if p.Type != "" {
				s += " = " + p.Default
			} else {
				s += "=" + p.Default
			}
		}
		out = append(out, s)
	}
	return strings.Join(out, ", ")
}

func pythonTypeParams(tps []model.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	names := make([]string, 0, len(tps))
	for _, tp := range tps {
		names = append(names, tp.Name)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
