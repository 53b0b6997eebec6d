package resolver

import "distiller/internal/engine/model"

// shadowed reports whether the token's leftmost name is bound by something
// declared in the file, so that no import can be what it refers to. Pruned
// declarations still bind their names.
func shadowed(unit *model.SourceUnit, tok model.ReferenceToken) bool {
	name := tok.Name
	for d := tok.Owner; d != nil; d = d.Parent() {
		if d.HasLocal(name) || d.HasTypeParam(name) {
			return true
		}
		if d.Name == name && d.Kind.IsType() {
			return true
		}
		// Python class attributes are not in scope inside methods.
		if unit.Language == "java" && d.Kind.IsType() && tok.Role != model.RoleType && d.HasMember(name) {
			return true
		}
	}
	if unit.DeclaresType(name) || unit.HasGlobal(name) {
		return true
	}
	return unit.Language == "python" && unit.DeclaresTopLevel(name)
}
