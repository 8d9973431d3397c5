package refs

import (
	"strings"

	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
)

// collectInFile produces every Location in one file referencing id: exposing
// lists, declarations, type annotations, expressions, and patterns.
// ctorParent names the custom type owning a constructor identity, so open
// type exposes gate its unqualified uses.
func collectInFile(uri string, m *ast.Module, id ast.SymbolIdentity, ctorParent string) []lsp.Location {
	c := &collector{
		uri:        uri,
		m:          m,
		id:         id,
		ctorParent: ctorParent,
		current:    ast.ToModuleName(m),
		tracker:    ast.CreateImportTracker(m),
	}
	c.exposingLists()
	c.declarations()
	return c.out
}

type collector struct {
	uri        string
	m          *ast.Module
	id         ast.SymbolIdentity
	ctorParent string
	current    string
	tracker    *ast.ImportTracker
	out        []lsp.Location
}

func (c *collector) emit(r ast.Range) {
	c.out = append(c.out, protocol.Location(c.uri, r))
}

// exposingLists trims each matching item range down to just the name, so a
// rename cannot eat a `(..)` suffix.
func (c *collector) exposingLists() {
	if c.current == c.id.DefModule {
		for _, item := range c.m.Header.Exposing.Items {
			if item.Name == c.id.Name {
				c.emit(item.Range.WithLength(len(c.id.Name)))
			}
		}
	}
	for _, imp := range c.m.Imports {
		if imp.ModuleName != c.id.DefModule || imp.Exposing == nil {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Name == c.id.Name {
				c.emit(item.Range.WithLength(len(c.id.Name)))
			}
		}
	}
}

func (c *collector) declarations() {
	defining := c.current == c.id.DefModule
	for _, decl := range c.m.Declarations {
		if defining {
			c.declarationNames(decl)
		}
		if c.id.Kind == ast.KindType {
			c.typeAnnotations(decl)
		}
		c.bodies(decl)
	}
}

// declarationNames emits the binding sites in the defining module: the
// declaration's own name node, the sibling signature name, and constructor
// name nodes for constructor identities.
func (c *collector) declarationNames(decl ast.Declaration) {
	if c.id.Kind == ast.KindConstructor {
		for _, ctor := range ast.Constructors(decl) {
			if ctor.Name == c.id.Name {
				c.emit(ctor.NameRange)
			}
		}
		return
	}
	name, kind, ok := ast.ToDeclarationName(decl)
	if !ok || name != c.id.Name || kind != c.id.Kind {
		return
	}
	if nr, has := ast.DeclNameRange(decl); has {
		c.emit(nr)
	}
	if decl.Kind == ast.DeclFunction && decl.Function.Signature != nil {
		c.emit(decl.Function.Signature.NameRange)
	}
}

// typeAnnotations traverses function signatures, alias bodies, constructor
// argument annotations, and port signatures for typed references.
func (c *collector) typeAnnotations(decl ast.Declaration) {
	switch decl.Kind {
	case ast.DeclFunction:
		if decl.Function.Signature != nil {
			c.typed(decl.Function.Signature.Type)
		}
	case ast.DeclTypeAlias:
		c.typed(decl.TypeAlias.Type)
	case ast.DeclTypeDecl:
		for _, ctor := range decl.TypeDecl.Constructors {
			for _, arg := range ctor.Arguments {
				c.typed(arg)
			}
		}
	case ast.DeclPort:
		c.typed(decl.Port.Type)
	}
}

func (c *collector) typed(t ast.TypeAnnotation) {
	if t.Kind == ast.TypeTyped && t.TypedName == c.id.Name && c.typedMatches(t) {
		prefix := qualifierPrefix(t.ModuleParts)
		token := t.Range.WithLength(len(prefix) + len(c.id.Name))
		c.emit(trimmedStart(token, len(prefix)))
	}
	for _, child := range ast.ChildTypeAnnotations(t) {
		c.typed(child)
	}
}

func (c *collector) typedMatches(t ast.TypeAnnotation) bool {
	if len(t.ModuleParts) > 0 {
		return c.aliasIncludesDef(strings.Join(t.ModuleParts, "."))
	}
	return c.unqualifiedMatches()
}

// unqualifiedMatches is the three-way check for a bare name: same module,
// explicitly exposed from the defining module, or the defining module is an
// open import.
func (c *collector) unqualifiedMatches() bool {
	return c.current == c.id.DefModule ||
		c.tracker.ExplicitlyExposes(c.id.Name, c.id.DefModule) ||
		c.tracker.ImportsUnknown(c.id.DefModule)
}

// ctorVisible extends the three-way check for constructors: a constructor is
// also in scope when its parent type was imported open, `Msg(..)`.
func (c *collector) ctorVisible() bool {
	if c.unqualifiedMatches() {
		return true
	}
	if c.ctorParent == "" {
		return false
	}
	for _, imp := range c.m.Imports {
		if imp.ModuleName != c.id.DefModule || imp.Exposing == nil {
			continue
		}
		for _, item := range imp.Exposing.Items {
			if item.Kind == ast.ExposedTypeExpose && item.Name == c.ctorParent && item.OpenRange != nil {
				return true
			}
		}
	}
	return false
}

func (c *collector) aliasIncludesDef(qualifier string) bool {
	for _, module := range c.tracker.ResolveAlias(qualifier) {
		if module == c.id.DefModule {
			return true
		}
	}
	return false
}

// bodies walks the expression and pattern trees of a declaration.
func (c *collector) bodies(decl ast.Declaration) {
	if c.id.Kind == ast.KindType {
		return
	}
	switch decl.Kind {
	case ast.DeclFunction:
		f := decl.Function
		var shadow []string
		for _, arg := range f.Arguments {
			c.patterns(arg)
			shadow = appendBinders(shadow, arg)
		}
		c.expr(f.Expression, shadow)
	case ast.DeclDestructuring:
		c.patterns(decl.Destructuring.Pattern)
		c.expr(decl.Destructuring.Expression, ast.DefinitionNames(decl.Destructuring.Pattern))
	}
}

// expr emits matching functionOrValue occurrences, carrying the set of
// locally bound names so shadowed uses are never reported.
func (c *collector) expr(e ast.Expression, shadow []string) {
	switch e.Kind {
	case ast.ExprFunctionOrValue:
		if e.Name != c.id.Name {
			return
		}
		if len(e.ModuleParts) > 0 {
			qualifier := strings.Join(e.ModuleParts, ".")
			if c.aliasIncludesDef(qualifier) {
				c.emit(trimmedStart(e.Range, len(qualifier)+1))
			}
			return
		}
		if contains(shadow, e.Name) {
			return
		}
		visible := c.unqualifiedMatches()
		if c.id.Kind == ast.KindConstructor {
			visible = c.ctorVisible()
		}
		if visible {
			c.emit(e.Range)
		}
	case ast.ExprLet:
		inner := shadow
		for _, ld := range e.LetDecls {
			switch ld.Kind {
			case ast.DeclFunction:
				inner = append(inner, ld.Function.Name)
			case ast.DeclDestructuring:
				inner = append(inner, ast.DefinitionNames(ld.Destructuring.Pattern)...)
			}
		}
		for _, ld := range e.LetDecls {
			switch ld.Kind {
			case ast.DeclFunction:
				lf := ld.Function
				letScope := inner
				for _, arg := range lf.Arguments {
					c.patterns(arg)
					letScope = appendBinders(letScope, arg)
				}
				c.expr(lf.Expression, letScope)
			case ast.DeclDestructuring:
				c.patterns(ld.Destructuring.Pattern)
				c.expr(ld.Destructuring.Expression, inner)
			}
		}
		if e.LetBody != nil {
			c.expr(*e.LetBody, inner)
		}
	case ast.ExprCase:
		if e.CaseScrutinee != nil {
			c.expr(*e.CaseScrutinee, shadow)
		}
		for _, branch := range e.CaseBranches {
			c.patterns(branch.Pattern)
			c.expr(branch.Body, appendBinders(shadow, branch.Pattern))
		}
	case ast.ExprLambda:
		inner := shadow
		for _, p := range e.LambdaPatterns {
			c.patterns(p)
			inner = appendBinders(inner, p)
		}
		if e.LambdaBody != nil {
			c.expr(*e.LambdaBody, inner)
		}
	default:
		for _, child := range ast.ChildExpressions(e) {
			c.expr(child, shadow)
		}
	}
}

// patterns emits matching constructor patterns for constructor identities.
func (c *collector) patterns(p ast.Pattern) {
	if c.id.Kind == ast.KindConstructor && p.Kind == ast.PatternNamed && p.QualifiedName == c.id.Name {
		if len(p.QualifiedModuleParts) > 0 {
			if c.aliasIncludesDef(strings.Join(p.QualifiedModuleParts, ".")) {
				c.emit(p.NameRange)
			}
		} else if c.ctorVisible() {
			c.emit(p.NameRange)
		}
	}
	for _, sub := range ast.ChildPatterns(p) {
		c.patterns(sub)
	}
}

func appendBinders(shadow []string, p ast.Pattern) []string {
	return append(shadow, ast.DefinitionNames(p)...)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
