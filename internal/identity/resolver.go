// Package identity answers "what symbol is named at this cursor position":
// it maps a position in a parsed module to the canonical
// (defining-module, name, kind) triple used as the cross-file key by
// navigation, references, and rename.
package identity

import (
	"context"
	"sort"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/elmtools/elmls/internal/ast"
)

// ModuleASTFunc resolves a module name to its parsed AST, when the module is
// part of the project. Used to decide which open import owns an unqualified
// name.
type ModuleASTFunc func(ctx context.Context, module string) (*ast.Module, bool)

// Resolver resolves cursor positions to symbol identities.
type Resolver struct {
	log logging.Logger
}

// New returns a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: logging.NewNopLogger()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Option provides a way to override default behavior of the Resolver.
type Option func(*Resolver)

// WithLogger overrides the default logging.Logger for the Resolver with the
// supplied logging.Logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// Resolve produces the identity of the symbol named at pos in m. Local
// bindings (arguments, let and case binders) are deliberately not identities;
// local-only jumps are produced by the navigation engine directly.
func (r *Resolver) Resolve(ctx context.Context, m *ast.Module, pos ast.Position, lookup ModuleASTFunc) (ast.SymbolIdentity, bool) {
	current := ast.ToModuleName(m)

	// Module-header exposing list.
	for _, item := range m.Header.Exposing.Items {
		if item.Range.Contains(pos) {
			return ast.SymbolIdentity{DefModule: current, Name: item.Name, Kind: item.SymbolKindOf()}, true
		}
	}

	// Import exposing lists.
	for _, imp := range m.Imports {
		if imp.Exposing == nil {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Range.Contains(pos) {
				return ast.SymbolIdentity{DefModule: imp.ModuleName, Name: item.Name, Kind: item.SymbolKindOf()}, true
			}
		}
	}

	for _, d := range m.Declarations {
		if !d.Range.Contains(pos) {
			continue
		}
		return r.resolveInDeclaration(ctx, m, d, pos, lookup)
	}
	return ast.SymbolIdentity{}, false
}

func (r *Resolver) resolveInDeclaration(ctx context.Context, m *ast.Module, d ast.Declaration, pos ast.Position, lookup ModuleASTFunc) (ast.SymbolIdentity, bool) {
	current := ast.ToModuleName(m)

	if nr, ok := ast.DeclNameRange(d); ok && nr.Contains(pos) {
		name, kind, _ := ast.ToDeclarationName(d)
		return ast.SymbolIdentity{DefModule: current, Name: name, Kind: kind}, true
	}

	for _, c := range ast.Constructors(d) {
		if c.NameRange.Contains(pos) {
			return ast.SymbolIdentity{DefModule: current, Name: c.Name, Kind: ast.KindConstructor}, true
		}
	}

	if d.Kind == ast.DeclFunction {
		f := d.Function
		if f.Signature != nil && f.Signature.NameRange.Contains(pos) {
			return ast.SymbolIdentity{DefModule: current, Name: f.Name, Kind: ast.KindValue}, true
		}
		if target, ok := findFunctionOrValue(f.Expression, pos); ok {
			return r.resolveFunctionOrValue(ctx, m, target, lookup)
		}
	}
	if d.Kind == ast.DeclDestructuring {
		if target, ok := findFunctionOrValue(d.Destructuring.Expression, pos); ok {
			return r.resolveFunctionOrValue(ctx, m, target, lookup)
		}
	}
	return ast.SymbolIdentity{}, false
}

// resolveFunctionOrValue owns the qualified/unqualified lookup rules for a
// name used in expression position.
func (r *Resolver) resolveFunctionOrValue(ctx context.Context, m *ast.Module, e ast.Expression, lookup ModuleASTFunc) (ast.SymbolIdentity, bool) {
	tracker := ast.CreateImportTracker(m)
	current := ast.ToModuleName(m)

	if len(e.ModuleParts) > 0 {
		qualifier := strings.Join(e.ModuleParts, ".")
		resolved := tracker.ResolveAlias(qualifier)
		sort.Strings(resolved)
		return ast.SymbolIdentity{DefModule: resolved[0], Name: e.Name, Kind: ast.KindValue}, true
	}

	if d, ok := ast.FindDeclarationByName(m, e.Name); ok {
		name, kind, _ := ast.ToDeclarationName(d)
		return ast.SymbolIdentity{DefModule: current, Name: name, Kind: kind}, true
	}
	if _, _, ok := ast.FindConstructor(m, e.Name); ok {
		return ast.SymbolIdentity{DefModule: current, Name: e.Name, Kind: ast.KindConstructor}, true
	}
	if module, ok := firstExplicitExposer(m, tracker, e.Name); ok {
		return ast.SymbolIdentity{DefModule: module, Name: e.Name, Kind: ast.KindValue}, true
	}
	for _, module := range orderedUnknownImports(m) {
		target, ok := lookup(ctx, module)
		if !ok {
			continue
		}
		if _, found := ast.FindDeclarationByName(target, e.Name); found {
			return ast.SymbolIdentity{DefModule: module, Name: e.Name, Kind: ast.KindValue}, true
		}
		if _, _, found := ast.FindConstructor(target, e.Name); found {
			return ast.SymbolIdentity{DefModule: module, Name: e.Name, Kind: ast.KindValue}, true
		}
	}
	return ast.SymbolIdentity{}, false
}

// firstExplicitExposer returns the module explicitly exposing name to this
// file, preferring the file's own imports in declaration order over the
// prelude seeds.
func firstExplicitExposer(m *ast.Module, tracker *ast.ImportTracker, name string) (string, bool) {
	for _, imp := range m.Imports {
		if imp.Exposing == nil || imp.Exposing.All {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Name == name {
				return imp.ModuleName, true
			}
		}
	}
	modules := tracker.ExplicitModulesFor(name)
	if len(modules) == 0 {
		return "", false
	}
	sort.Strings(modules)
	return modules[0], true
}

// orderedUnknownImports lists the exposing-all imports in declaration order,
// followed by the implicit prelude ones.
func orderedUnknownImports(m *ast.Module) []string {
	var modules []string
	seen := map[string]bool{}
	for _, imp := range m.Imports {
		if imp.Exposing != nil && imp.Exposing.All && !seen[imp.ModuleName] {
			seen[imp.ModuleName] = true
			modules = append(modules, imp.ModuleName)
		}
	}
	tracker := ast.CreateImportTracker(&ast.Module{})
	prelude := tracker.UnknownImportModules()
	sort.Strings(prelude)
	for _, module := range prelude {
		if !seen[module] {
			modules = append(modules, module)
		}
	}
	return modules
}
