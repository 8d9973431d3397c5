// Package nav is the navigation engine: goto-definition with explicit
// lexical scope threading, and hover rendering from the AST or from package
// documentation.
package nav

import (
	"context"
	"sort"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
	"github.com/elmtools/elmls/internal/manifest"
)

// Workspace supplies cross-file context: module resolution relative to the
// project owning a document, and that project's package documentation.
type Workspace interface {
	// ModuleAST resolves a module name to its file URI and parsed AST.
	// Package-only modules do not resolve.
	ModuleAST(ctx context.Context, fromURI, module string) (string, *ast.Module, bool)
	// ModuleFile resolves a module name to a file path without parsing.
	ModuleFile(fromURI, module string) (string, bool)
	// Docs lists package documentation in dependency declaration order.
	Docs(fromURI string) []manifest.ModuleDoc
}

// Definer answers goto-definition requests.
type Definer struct {
	ws  Workspace
	log logging.Logger
}

// NewDefiner returns a Definer resolving cross-file jumps through ws.
func NewDefiner(ws Workspace, opts ...DefinerOption) *Definer {
	d := &Definer{ws: ws, log: logging.NewNopLogger()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// DefinerOption provides a way to override default behavior of the Definer.
type DefinerOption func(*Definer)

// WithDefinerLogger overrides the default logging.Logger for the Definer.
func WithDefinerLogger(l logging.Logger) DefinerOption {
	return func(d *Definer) {
		d.log = l
	}
}

// Definition resolves the definition site for the symbol at pos in m.
func (d *Definer) Definition(ctx context.Context, uri string, m *ast.Module, pos ast.Position) (lsp.Location, bool) {
	// Module-header exposing items jump to the same-file declaration.
	for _, item := range m.Header.Exposing.Items {
		if item.Range.Contains(pos) {
			return d.sameFile(uri, m, item.Name)
		}
	}

	for _, imp := range m.Imports {
		if imp.NameRange.Contains(pos) {
			path, ok := d.ws.ModuleFile(uri, imp.ModuleName)
			if !ok {
				return lsp.Location{}, false
			}
			return lsp.Location{URI: lsp.DocumentURI(manifest.PathToURI(path))}, true
		}
		if imp.Exposing == nil {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Range.Contains(pos) {
				return d.inModule(ctx, uri, imp.ModuleName, item.Name)
			}
		}
	}

	for _, decl := range m.Declarations {
		if decl.Range.Contains(pos) {
			return d.inDeclaration(ctx, uri, m, decl, pos)
		}
	}
	return lsp.Location{}, false
}

func (d *Definer) inDeclaration(ctx context.Context, uri string, m *ast.Module, decl ast.Declaration, pos ast.Position) (lsp.Location, bool) {
	if nr, ok := ast.DeclNameRange(decl); ok && nr.Contains(pos) {
		return protocol.Location(uri, nr), true
	}

	switch decl.Kind {
	case ast.DeclFunction:
		f := decl.Function
		if f.Signature != nil {
			if f.Signature.NameRange.Contains(pos) {
				return protocol.Location(uri, f.NameRange), true
			}
			if f.Signature.Type.Range.Contains(pos) {
				return d.typeRef(ctx, uri, m, f.Signature.Type, pos)
			}
		}
		for _, arg := range f.Arguments {
			if p, ok := namedPatternAt(arg, pos); ok {
				return d.ctorRef(ctx, uri, m, p)
			}
		}
		sc := scope{}.withPatterns(f.Arguments...)
		return d.inExpression(ctx, uri, m, f.Expression, pos, sc)
	case ast.DeclTypeAlias:
		if decl.TypeAlias.Type.Range.Contains(pos) {
			return d.typeRef(ctx, uri, m, decl.TypeAlias.Type, pos)
		}
	case ast.DeclTypeDecl:
		for _, c := range decl.TypeDecl.Constructors {
			if c.NameRange.Contains(pos) {
				return protocol.Location(uri, c.NameRange), true
			}
			for _, arg := range c.Arguments {
				if arg.Range.Contains(pos) {
					return d.typeRef(ctx, uri, m, arg, pos)
				}
			}
		}
	case ast.DeclPort:
		if decl.Port.Type.Range.Contains(pos) {
			return d.typeRef(ctx, uri, m, decl.Port.Type, pos)
		}
	case ast.DeclDestructuring:
		sc := scope{}.withPatterns(decl.Destructuring.Pattern)
		return d.inExpression(ctx, uri, m, decl.Destructuring.Expression, pos, sc)
	}
	return lsp.Location{}, false
}

// inExpression walks the body with an explicit lexical scope, extending it at
// let expressions, case branches, and lambdas.
func (d *Definer) inExpression(ctx context.Context, uri string, m *ast.Module, e ast.Expression, pos ast.Position, sc scope) (lsp.Location, bool) { //nolint:gocyclo
	if !e.Range.Contains(pos) {
		return lsp.Location{}, false
	}

	switch e.Kind {
	case ast.ExprFunctionOrValue:
		return d.functionOrValue(ctx, uri, m, e, sc)
	case ast.ExprRecordUpdate:
		if e.RecordNameRange.Contains(pos) {
			if rng, ok := sc.lookup(e.RecordName); ok {
				return protocol.Location(uri, rng), true
			}
			if decl, ok := ast.FindDeclarationByName(m, e.RecordName); ok {
				if nr, has := ast.DeclNameRange(decl); has {
					return protocol.Location(uri, nr), true
				}
			}
			return lsp.Location{}, false
		}
	case ast.ExprLet:
		inner := sc.withLetDeclarations(e.LetDecls)
		for _, ld := range e.LetDecls {
			if !ld.Range.Contains(pos) {
				continue
			}
			switch ld.Kind {
			case ast.DeclFunction:
				lf := ld.Function
				if lf.NameRange.Contains(pos) {
					return protocol.Location(uri, lf.NameRange), true
				}
				if lf.Signature != nil && lf.Signature.Type.Range.Contains(pos) {
					return d.typeRef(ctx, uri, m, lf.Signature.Type, pos)
				}
				return d.inExpression(ctx, uri, m, lf.Expression, pos, inner.withPatterns(lf.Arguments...))
			case ast.DeclDestructuring:
				return d.inExpression(ctx, uri, m, ld.Destructuring.Expression, pos, inner)
			}
		}
		if e.LetBody != nil && e.LetBody.Range.Contains(pos) {
			return d.inExpression(ctx, uri, m, *e.LetBody, pos, inner)
		}
	case ast.ExprCase:
		if e.CaseScrutinee != nil && e.CaseScrutinee.Range.Contains(pos) {
			return d.inExpression(ctx, uri, m, *e.CaseScrutinee, pos, sc)
		}
		for _, branch := range e.CaseBranches {
			if p, ok := namedPatternAt(branch.Pattern, pos); ok {
				return d.ctorRef(ctx, uri, m, p)
			}
			if branch.Body.Range.Contains(pos) {
				return d.inExpression(ctx, uri, m, branch.Body, pos, sc.withPatterns(branch.Pattern))
			}
		}
	case ast.ExprLambda:
		for _, p := range e.LambdaPatterns {
			if named, ok := namedPatternAt(p, pos); ok {
				return d.ctorRef(ctx, uri, m, named)
			}
		}
		if e.LambdaBody != nil && e.LambdaBody.Range.Contains(pos) {
			return d.inExpression(ctx, uri, m, *e.LambdaBody, pos, sc.withPatterns(e.LambdaPatterns...))
		}
	}

	for _, child := range ast.ChildExpressions(e) {
		if child.Range.Contains(pos) {
			return d.inExpression(ctx, uri, m, child, pos, sc)
		}
	}
	return lsp.Location{}, false
}

// functionOrValue implements the qualified and unqualified resolution rows of
// the goto-definition table.
func (d *Definer) functionOrValue(ctx context.Context, uri string, m *ast.Module, e ast.Expression, sc scope) (lsp.Location, bool) {
	tracker := ast.CreateImportTracker(m)

	if len(e.ModuleParts) > 0 {
		qualifier := strings.Join(e.ModuleParts, ".")
		targets := tracker.ResolveAlias(qualifier)
		sort.Strings(targets)
		for _, target := range targets {
			if loc, ok := d.inModule(ctx, uri, target, e.Name); ok {
				return loc, true
			}
		}
		return lsp.Location{}, false
	}

	if rng, ok := sc.lookup(e.Name); ok {
		return protocol.Location(uri, rng), true
	}
	if loc, ok := d.sameFile(uri, m, e.Name); ok {
		return loc, true
	}
	for _, module := range explicitExposers(m, tracker, e.Name) {
		if loc, ok := d.inModule(ctx, uri, module, e.Name); ok {
			return loc, true
		}
	}
	for _, module := range openImports(m, tracker) {
		if loc, ok := d.inModule(ctx, uri, module, e.Name); ok {
			return loc, true
		}
	}
	return lsp.Location{}, false
}

// ctorRef resolves a constructor pattern: same-file variant first, imported
// variant through the tracker otherwise.
func (d *Definer) ctorRef(ctx context.Context, uri string, m *ast.Module, p ast.Pattern) (lsp.Location, bool) {
	tracker := ast.CreateImportTracker(m)

	if len(p.QualifiedModuleParts) > 0 {
		qualifier := strings.Join(p.QualifiedModuleParts, ".")
		targets := tracker.ResolveAlias(qualifier)
		sort.Strings(targets)
		for _, target := range targets {
			if loc, ok := d.inModule(ctx, uri, target, p.QualifiedName); ok {
				return loc, true
			}
		}
		return lsp.Location{}, false
	}

	if _, c, ok := ast.FindConstructor(m, p.QualifiedName); ok {
		return protocol.Location(uri, c.NameRange), true
	}
	for _, module := range explicitExposers(m, tracker, p.QualifiedName) {
		if loc, ok := d.inModule(ctx, uri, module, p.QualifiedName); ok {
			return loc, true
		}
	}
	for _, module := range openImports(m, tracker) {
		if loc, ok := d.inModule(ctx, uri, module, p.QualifiedName); ok {
			return loc, true
		}
	}
	// A type imported open, `exposing (Msg(..))`, exposes its constructors
	// without naming them in the exposing list.
	for _, imp := range m.Imports {
		if imp.Exposing == nil || imp.Exposing.All {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Kind == ast.ExposedTypeExpose && item.OpenRange != nil {
				if loc, ok := d.inModule(ctx, uri, imp.ModuleName, p.QualifiedName); ok {
					return loc, true
				}
			}
		}
	}
	return lsp.Location{}, false
}

// sameFile jumps to the declaration or constructor named name in m itself.
func (d *Definer) sameFile(uri string, m *ast.Module, name string) (lsp.Location, bool) {
	if decl, ok := ast.FindDeclarationByName(m, name); ok {
		if nr, has := ast.DeclNameRange(decl); has {
			return protocol.Location(uri, nr), true
		}
		return protocol.Location(uri, decl.Range), true
	}
	if _, c, ok := ast.FindConstructor(m, name); ok {
		return protocol.Location(uri, c.NameRange), true
	}
	return lsp.Location{}, false
}

// inModule resolves name in another module, gated by that module's own
// exposing list.
func (d *Definer) inModule(ctx context.Context, fromURI, module, name string) (lsp.Location, bool) {
	targetURI, target, ok := d.ws.ModuleAST(ctx, fromURI, module)
	if !ok {
		return lsp.Location{}, false
	}
	if !ast.IsExposedFromModule(target, name) {
		return lsp.Location{}, false
	}
	return d.sameFile(targetURI, target, name)
}

// explicitExposers lists the modules explicitly exposing name to this file,
// the file's own imports in declaration order before the prelude seeds.
func explicitExposers(m *ast.Module, tracker *ast.ImportTracker, name string) []string {
	var modules []string
	seen := map[string]bool{}
	for _, imp := range m.Imports {
		if imp.Exposing == nil || imp.Exposing.All {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Name == name && !seen[imp.ModuleName] {
				seen[imp.ModuleName] = true
				modules = append(modules, imp.ModuleName)
			}
		}
	}
	rest := tracker.ExplicitModulesFor(name)
	sort.Strings(rest)
	for _, module := range rest {
		if !seen[module] {
			modules = append(modules, module)
		}
	}
	return modules
}

// openImports lists exposing-all imports in declaration order, then the
// implicit prelude ones.
func openImports(m *ast.Module, tracker *ast.ImportTracker) []string {
	var modules []string
	seen := map[string]bool{}
	for _, imp := range m.Imports {
		if imp.Exposing != nil && imp.Exposing.All && !seen[imp.ModuleName] {
			seen[imp.ModuleName] = true
			modules = append(modules, imp.ModuleName)
		}
	}
	prelude := tracker.UnknownImportModules()
	sort.Strings(prelude)
	for _, module := range prelude {
		if !seen[module] {
			modules = append(modules, module)
		}
	}
	return modules
}
