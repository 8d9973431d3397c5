package nav

import (
	"context"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/identity"
	"github.com/elmtools/elmls/internal/manifest"
)

// Hoverer renders markdown hover payloads. Project source is preferred over
// package docs: if the owning module resolves to a file its AST is rendered,
// otherwise docs are consulted in dependency declaration order, first hit
// wins.
type Hoverer struct {
	ws  Workspace
	ids *identity.Resolver
	log logging.Logger
}

// NewHoverer returns a Hoverer resolving symbols through ws.
func NewHoverer(ws Workspace, ids *identity.Resolver, opts ...HovererOption) *Hoverer {
	h := &Hoverer{ws: ws, ids: ids, log: logging.NewNopLogger()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// HovererOption provides a way to override default behavior of the Hoverer.
type HovererOption func(*Hoverer)

// WithHovererLogger overrides the default logging.Logger for the Hoverer.
func WithHovererLogger(l logging.Logger) HovererOption {
	return func(h *Hoverer) {
		h.log = l
	}
}

// Hover produces the markdown payload for the symbol at pos, or none.
func (h *Hoverer) Hover(ctx context.Context, uri string, m *ast.Module, pos ast.Position) (string, bool) {
	lookup := func(ctx context.Context, module string) (*ast.Module, bool) {
		_, target, ok := h.ws.ModuleAST(ctx, uri, module)
		return target, ok
	}
	id, ok := h.ids.Resolve(ctx, m, pos, lookup)
	if !ok {
		return "", false
	}

	if id.DefModule == ast.ToModuleName(m) {
		return renderFromAST(m, id)
	}
	if _, target, found := h.ws.ModuleAST(ctx, uri, id.DefModule); found {
		return renderFromAST(target, id)
	}
	return renderFromDocs(h.ws.Docs(uri), id)
}

func renderFromAST(m *ast.Module, id ast.SymbolIdentity) (string, bool) {
	module := ast.ToModuleName(m)

	if id.Kind == ast.KindConstructor {
		decl, c, ok := ast.FindConstructor(m, id.Name)
		if !ok {
			return "", false
		}
		parts := []string{
			fence(renderConstructor(c)),
			"Constructor of `" + decl.TypeDecl.Name + "`",
			moduleFooter(module),
		}
		return strings.Join(parts, "\n\n"), true
	}

	decl, ok := ast.FindDeclarationByName(m, id.Name)
	if !ok {
		return "", false
	}
	switch decl.Kind {
	case ast.DeclFunction:
		f := decl.Function
		block := f.Name
		if f.Signature != nil {
			block = f.Name + " : " + RenderTypeAnnotation(f.Signature.Type)
		}
		return withDocAndFooter(fence(block), f.DocComment, module), true
	case ast.DeclTypeAlias:
		a := decl.TypeAlias
		block := "type alias " + a.Name + " =\n    " + RenderTypeAnnotation(a.Type)
		return withDocAndFooter(fence(block), a.DocComment, module), true
	case ast.DeclTypeDecl:
		return withDocAndFooter(fence(renderCustomType(decl.TypeDecl)), decl.TypeDecl.DocComment, module), true
	case ast.DeclPort:
		p := decl.Port
		return fence("port " + p.Name + " : " + RenderTypeAnnotation(p.Type)), true
	default:
		return "", false
	}
}

func withDocAndFooter(block string, doc *string, module string) string {
	parts := []string{block}
	if doc != nil {
		if cleaned := cleanDocComment(*doc); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	parts = append(parts, moduleFooter(module))
	return strings.Join(parts, "\n\n")
}

// renderFromDocs renders the hover from pre-rendered package documentation.
func renderFromDocs(docs []manifest.ModuleDoc, id ast.SymbolIdentity) (string, bool) {
	for _, doc := range docs {
		if doc.Name != id.DefModule {
			continue
		}
		if payload, ok := renderModuleDoc(doc, id); ok {
			return payload, true
		}
	}
	return "", false
}

func renderModuleDoc(doc manifest.ModuleDoc, id ast.SymbolIdentity) (string, bool) {
	for _, v := range doc.Values {
		if v.Name == id.Name {
			return docEntry(fence(v.Name+" : "+v.Type), v.Comment, doc.Name), true
		}
	}
	for _, b := range doc.Binops {
		if b.Name == id.Name {
			return docEntry(fence("("+b.Name+") : "+b.Type), b.Comment, doc.Name), true
		}
	}
	for _, a := range doc.Aliases {
		if a.Name == id.Name {
			return docEntry(fence("type alias "+a.Name+" =\n    "+a.Type), a.Comment, doc.Name), true
		}
	}
	for _, u := range doc.Unions {
		if u.Name == id.Name {
			var b strings.Builder
			b.WriteString("type " + u.Name)
			if len(u.Args) > 0 {
				b.WriteString(" " + strings.Join(u.Args, " "))
			}
			for i, c := range u.Cases {
				sep := "    | "
				if i == 0 {
					sep = "    = "
				}
				b.WriteString("\n" + sep + strings.Join(append([]string{c.Name}, c.Args...), " "))
			}
			return docEntry(fence(b.String()), u.Comment, doc.Name), true
		}
		for _, c := range u.Cases {
			if c.Name == id.Name {
				parts := []string{
					fence(strings.Join(append([]string{c.Name}, c.Args...), " ")),
					"Constructor of `" + u.Name + "`",
					moduleFooter(doc.Name),
				}
				return strings.Join(parts, "\n\n"), true
			}
		}
	}
	return "", false
}

func docEntry(block, comment, module string) string {
	parts := []string{block}
	if cleaned := strings.TrimSpace(comment); cleaned != "" {
		parts = append(parts, cleaned)
	}
	parts = append(parts, moduleFooter(module))
	return strings.Join(parts, "\n\n")
}
