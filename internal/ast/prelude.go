package ast

// preludeExplicitExposing seeds ImportTracker.ExplicitExposing: bare names
// implicitly visible in every file, mapped to the module(s) that define
// them.
var preludeExplicitExposing = map[string][]string{
	"List":    {"List"},
	"(::)":    {"List"},
	"Maybe":   {"Maybe"},
	"Just":    {"Maybe"},
	"Nothing": {"Maybe"},
	"Result":  {"Result"},
	"Ok":      {"Result"},
	"Err":     {"Result"},
	"String":  {"String"},
	"Char":    {"Char"},
	"Program": {"Platform"},
	"Cmd":     {"Platform.Cmd"},
	"Sub":     {"Platform.Sub"},
}

// preludeUnknownImports seeds ImportTracker.UnknownImports: modules implicitly
// imported with exposing-all.
var preludeUnknownImports = []string{"Basics"}

// preludeAliasMapping seeds ImportTracker.AliasMapping: implicit aliases.
var preludeAliasMapping = map[string][]string{
	"Cmd": {"Platform.Cmd"},
	"Sub": {"Platform.Sub"},
}

// referenceablePreludeModules are the modules a file can reference a symbol
// from even without an explicit import; workspace sweeps never skip files
// over them.
var referenceablePreludeModules = map[string]bool{
	"Basics":       true,
	"List":         true,
	"Maybe":        true,
	"Result":       true,
	"String":       true,
	"Char":         true,
	"Tuple":        true,
	"Debug":        true,
	"Platform":     true,
	"Platform.Cmd": true,
	"Platform.Sub": true,
}

// IsImplicitPreludeModule reports whether module is always referenceable
// without an explicit import or alias.
func IsImplicitPreludeModule(module string) bool {
	return referenceablePreludeModules[module]
}
