package nav

import (
	"context"
	"sort"
	"strings"

	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
)

// typeRef resolves the typed node whose name token sits at pos inside a type
// annotation: same-file type declaration first, then imported types through
// the tracker, explicit exposing before open imports.
func (d *Definer) typeRef(ctx context.Context, uri string, m *ast.Module, t ast.TypeAnnotation, pos ast.Position) (lsp.Location, bool) {
	typed, ok := typedAt(t, pos)
	if !ok {
		return lsp.Location{}, false
	}
	tracker := ast.CreateImportTracker(m)

	if len(typed.ModuleParts) > 0 {
		qualifier := strings.Join(typed.ModuleParts, ".")
		targets := tracker.ResolveAlias(qualifier)
		sort.Strings(targets)
		for _, target := range targets {
			if loc, ok := d.typeInModule(ctx, uri, target, typed.TypedName); ok {
				return loc, true
			}
		}
		return lsp.Location{}, false
	}

	if decl, ok := findTypeDeclaration(m, typed.TypedName); ok {
		if nr, has := ast.DeclNameRange(decl); has {
			return protocol.Location(uri, nr), true
		}
	}
	for _, module := range explicitExposers(m, tracker, typed.TypedName) {
		if loc, ok := d.typeInModule(ctx, uri, module, typed.TypedName); ok {
			return loc, true
		}
	}
	for _, module := range openImports(m, tracker) {
		if loc, ok := d.typeInModule(ctx, uri, module, typed.TypedName); ok {
			return loc, true
		}
	}
	return lsp.Location{}, false
}

func (d *Definer) typeInModule(ctx context.Context, fromURI, module, name string) (lsp.Location, bool) {
	targetURI, target, ok := d.ws.ModuleAST(ctx, fromURI, module)
	if !ok {
		return lsp.Location{}, false
	}
	if !ast.IsExposedFromModule(target, name) {
		return lsp.Location{}, false
	}
	decl, ok := findTypeDeclaration(target, name)
	if !ok {
		return lsp.Location{}, false
	}
	nr, has := ast.DeclNameRange(decl)
	if !has {
		return lsp.Location{}, false
	}
	return protocol.Location(targetURI, nr), true
}

func findTypeDeclaration(m *ast.Module, name string) (ast.Declaration, bool) {
	for _, decl := range m.Declarations {
		if n, kind, ok := ast.ToDeclarationName(decl); ok && n == name && kind == ast.KindType {
			return decl, true
		}
	}
	return ast.Declaration{}, false
}

// typedAt finds the innermost typed annotation whose qualified-name token
// contains pos.
func typedAt(t ast.TypeAnnotation, pos ast.Position) (ast.TypeAnnotation, bool) {
	if !t.Range.Contains(pos) {
		return ast.TypeAnnotation{}, false
	}
	for _, child := range ast.ChildTypeAnnotations(t) {
		if found, ok := typedAt(child, pos); ok {
			return found, true
		}
	}
	if t.Kind == ast.TypeTyped && TypedNameRange(t).Contains(pos) {
		return t, true
	}
	return ast.TypeAnnotation{}, false
}

// TypedNameRange is the span of a typed annotation's qualified name token:
// the node range trimmed of its argument list.
func TypedNameRange(t ast.TypeAnnotation) ast.Range {
	n := len(t.TypedName)
	for _, part := range t.ModuleParts {
		n += len(part) + 1
	}
	return t.Range.WithLength(n)
}
