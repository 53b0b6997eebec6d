package emitter

import (
	"distiller/internal/engine/model"
	"strings"
)

var javaTypeKeywords = map[model.Kind]string{
	model.KindClass:          "class",
	model.KindInterface:      "interface",
	model.KindEnum:           "enum",
	model.KindRecord:         "record",
	model.KindAnnotationType: "@interface",
}

type javaRenderer struct {
	detail model.DetailLevel
}

func (r *javaRenderer) header(w *writer, unit *model.SourceUnit) {
	if unit.Package != "" {
		w.line(0, "package "+unit.Package+";")
	}
}

func (r *javaRenderer) imports(w *writer, imports []*model.ImportEntry) {
	for _, imp := range imports {
		w.line(0, "import "+imp.String()+";")
	}
}

func (r *javaRenderer) declaration(w *writer, d *model.Declaration, depth int) {
	r.annotations(w, d.Annotations, depth)
	switch {
	case d.Kind.IsType():
		r.typeDecl(w, d, depth)
	case d.Kind == model.KindFunction:
		w.line(depth, r.function(d))
	default:
		w.line(depth, r.field(d))
	}
}

func (r *javaRenderer) annotations(w *writer, anns []model.Annotation, depth int) {
	if r.detail < model.DetailSignaturesFields {
		return
	}
	for _, a := range anns {
		w.line(depth, annotationText(a))
	}
}

func (r *javaRenderer) typeDecl(w *writer, d *model.Declaration, depth int) {
	var b strings.Builder
	b.WriteString(r.modifiers(d))
	b.WriteString(javaTypeKeywords[d.Kind])
	b.WriteByte(' ')
	b.WriteString(d.Name)
	b.WriteString(javaTypeParams(d.TypeParams))
	if d.Kind == model.KindRecord {
		b.WriteString("(" + r.params(d.Components) + ")")
	}
	if len(d.Extends) > 0 {
		b.WriteString(" extends " + strings.Join(d.Extends, ", "))
	}
	if len(d.Implements) > 0 {
		b.WriteString(" implements " + strings.Join(d.Implements, ", "))
	}
	if len(d.Permits) > 0 {
		b.WriteString(" permits " + strings.Join(d.Permits, ", "))
	}
	b.WriteString(" {")
	w.line(depth, b.String())

	var constants, members []*model.Declaration
	for _, c := range visibleChildren(d, r.detail) {
		if c.EnumConstant {
			constants = append(constants, c)
			continue
		}
		members = append(members, c)
	}
	for i, c := range constants {
		r.annotations(w, c.Annotations, depth+1)
		sep := ","
		if i == len(constants)-1 {
			sep = ";"
		}
		w.line(depth+1, r.enumConstant(c)+sep)
	}
	for _, c := range members {
		r.declaration(w, c, depth+1)
	}
	w.line(depth, "}")
}

func (r *javaRenderer) enumConstant(d *model.Declaration) string {
	s := d.Name
	if r.detail >= model.DetailFullMinusBodies {
		s += d.Value
		if d.HasBody {
			s += " { ... }"
		}
	}
	return s
}

func (r *javaRenderer) function(d *model.Declaration) string {
	var b strings.Builder
	b.WriteString(r.modifiers(d))
	if tp := javaTypeParams(d.TypeParams); tp != "" {
		b.WriteString(tp + " ")
	}
	if !d.Constructor && d.Result != "" {
		b.WriteString(d.Result + " ")
	}
	b.WriteString(d.Name)
	if !d.Compact {
		b.WriteString("(" + r.params(d.Params) + ")")
	}
	if len(d.Throws) > 0 {
		b.WriteString(" throws " + strings.Join(d.Throws, ", "))
	}
	full := r.detail >= model.DetailFullMinusBodies
	if full && d.Default != "" {
		b.WriteString(" default " + d.Default)
	}
	// A compact constructor has no parameter list; its body marker is the
	// only thing that keeps it a constructor.
	if d.Compact || (full && d.HasBody) {
		b.WriteString(" { ... }")
	} else {
		b.WriteString(";")
	}
	return b.String()
}

func (r *javaRenderer) field(d *model.Declaration) string {
	s := r.modifiers(d) + d.Result + " " + d.Name
	if r.detail >= model.DetailFullMinusBodies && d.Value != "" {
		s += " = " + d.Value
	}
	return s + ";"
}

// modifiers renders the visibility keyword as written in the source plus
// the remaining qualifiers, with a trailing space when not empty.
func (r *javaRenderer) modifiers(d *model.Declaration) string {
	parts := make([]string, 0, len(d.Modifiers.Qualifiers)+1)
	if d.Modifiers.Explicit {
		parts = append(parts, d.Modifiers.Visibility.String())
	}
	parts = append(parts, d.Modifiers.Qualifiers...)
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

func (r *javaRenderer) params(params []model.Param) string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		var b strings.Builder
		if r.detail >= model.DetailSignaturesFields {
			for _, a := range p.Annotations {
				b.WriteString(annotationText(a) + " ")
			}
		}
		b.WriteString(p.Type)
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString(" " + p.Name)
		out = append(out, b.String())
	}
	return strings.Join(out, ", ")
}

func javaTypeParams(tps []model.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	out := make([]string, 0, len(tps))
	for _, tp := range tps {
		s := tp.Name
		if len(tp.Bounds) > 0 {
			s += " extends " + strings.Join(tp.Bounds, " & ")
		}
		out = append(out, s)
	}
	return "<" + strings.Join(out, ", ") + ">"
}
