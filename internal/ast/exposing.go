package ast

// IsExposedFromModule reports whether name is visible to importers of m:
// either the module exposes everything, or name matches an explicit item,
// or name is a constructor of a type exposed with `(..)`.
func IsExposedFromModule(m *Module, name string) bool {
	if m.Header.Exposing.All {
		return true
	}
	for _, item := range m.Header.Exposing.Items {
		if item.Name == name {
			return true
		}
		if item.Kind == ExposedTypeExpose && item.OpenRange != nil {
			if _, _, found := FindConstructor(m, name); found {
				if decl, ok := FindDeclarationByName(m, item.Name); ok {
					for _, c := range Constructors(decl) {
						if c.Name == name {
							return true
						}
					}
				}
			}
		}
	}
	return false
}

// ExposedKindOf returns the SymbolKind that exposing item named name carries
// in m's header, for use when resolving positions inside the exposing list
// itself.
func ExposedKindOf(m *Module, name string) (SymbolKind, bool) {
	for _, item := range m.Header.Exposing.Items {
		if item.Name == name {
			return item.SymbolKindOf(), true
		}
	}
	return KindValue, false
}
