package ast

import "golang.org/x/exp/maps"

// ImportTracker is the derived, per-file view of which bare names resolve to
// which modules, built once from a Module's import list and closed under the
// fixed prelude.
type ImportTracker struct {
	// ExplicitExposing maps a bare name to the set of modules that
	// explicitly expose it to this file.
	ExplicitExposing map[string]map[string]struct{}
	// UnknownImports is the set of modules imported with exposing-all.
	UnknownImports map[string]struct{}
	// AliasMapping maps an alias to the set of real modules it denotes.
	AliasMapping map[string]map[string]struct{}
}

func newImportTracker() *ImportTracker {
	t := &ImportTracker{
		ExplicitExposing: map[string]map[string]struct{}{},
		UnknownImports:   map[string]struct{}{},
		AliasMapping:     map[string]map[string]struct{}{},
	}
	for name, modules := range preludeExplicitExposing {
		t.addExplicit(name, modules...)
	}
	for _, module := range preludeUnknownImports {
		t.UnknownImports[module] = struct{}{}
	}
	for alias, modules := range preludeAliasMapping {
		t.addAlias(alias, modules...)
	}
	return t
}

func (t *ImportTracker) addExplicit(name string, modules ...string) {
	set, ok := t.ExplicitExposing[name]
	if !ok {
		set = map[string]struct{}{}
		t.ExplicitExposing[name] = set
	}
	for _, m := range modules {
		set[m] = struct{}{}
	}
}

func (t *ImportTracker) addAlias(alias string, modules ...string) {
	set, ok := t.AliasMapping[alias]
	if !ok {
		set = map[string]struct{}{}
		t.AliasMapping[alias] = set
	}
	for _, m := range modules {
		set[m] = struct{}{}
	}
}

// CreateImportTracker builds the ImportTracker for m, seeded with the fixed
// prelude and then extended by m's own import list.
func CreateImportTracker(m *Module) *ImportTracker {
	t := newImportTracker()
	for _, imp := range m.Imports {
		if imp.Alias != "" {
			t.addAlias(imp.Alias, imp.ModuleName)
		}
		if imp.Exposing == nil {
			continue
		}
		if imp.Exposing.All {
			t.UnknownImports[imp.ModuleName] = struct{}{}
			continue
		}
		for _, item := range imp.Exposing.Items {
			t.addExplicit(item.Name, imp.ModuleName)
		}
	}
	return t
}

// ExplicitModulesFor returns the modules that explicitly expose name to this
// file, in no particular order.
func (t *ImportTracker) ExplicitModulesFor(name string) []string {
	return maps.Keys(t.ExplicitExposing[name])
}

// UnknownImportModules returns the modules imported with exposing-all, in no
// particular order.
func (t *ImportTracker) UnknownImportModules() []string {
	return maps.Keys(t.UnknownImports)
}

// ResolveAlias returns the set of real module names alias denotes, falling
// back to treating alias as a real module name if it is not a known alias.
func (t *ImportTracker) ResolveAlias(alias string) []string {
	if modules, ok := t.AliasMapping[alias]; ok {
		return maps.Keys(modules)
	}
	return []string{alias}
}

// ExplicitlyExposes reports whether module is among the modules explicitly
// exposing name to this file.
func (t *ImportTracker) ExplicitlyExposes(name, module string) bool {
	_, ok := t.ExplicitExposing[name][module]
	return ok
}

// ImportsUnknown reports whether module was imported with exposing-all.
func (t *ImportTracker) ImportsUnknown(module string) bool {
	_, ok := t.UnknownImports[module]
	return ok
}

// AliasesInclude reports whether any of module's known aliases resolve to
// target, or module itself equals target.
func (t *ImportTracker) AliasesInclude(module, target string) bool {
	if module == target {
		return true
	}
	for _, m := range t.ResolveAlias(module) {
		if m == target {
			return true
		}
	}
	return false
}
