// Package features holds the outer LSP features built on the semantic core:
// document symbols, dot-triggered completion, compiler diagnostics, and
// whole-document formatting.
package features

import (
	"sync"

	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
)

// DocumentSymbols produces the symbol outline for a document: one entry per
// top-level declaration, with let-bound function names as children of their
// enclosing function. On parse failure the last successful result for the
// URI is served.
type DocumentSymbols struct {
	mu       sync.Mutex
	lastGood map[string][]lsp.SymbolInformation
}

// NewDocumentSymbols returns an empty DocumentSymbols feature.
func NewDocumentSymbols() *DocumentSymbols {
	return &DocumentSymbols{lastGood: map[string][]lsp.SymbolInformation{}}
}

// Symbols computes the outline for m, remembering it as the last good result
// for uri. Pass a nil module to retrieve the remembered outline instead.
func (ds *DocumentSymbols) Symbols(uri string, m *ast.Module) []lsp.SymbolInformation {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if m == nil {
		return ds.lastGood[uri]
	}
	symbols := outline(uri, m)
	ds.lastGood[uri] = symbols
	return symbols
}

func outline(uri string, m *ast.Module) []lsp.SymbolInformation {
	var symbols []lsp.SymbolInformation
	add := func(name string, kind lsp.SymbolKind, r ast.Range, container string) {
		symbols = append(symbols, lsp.SymbolInformation{
			Name:          name,
			Kind:          kind,
			Location:      protocol.Location(uri, r),
			ContainerName: container,
		})
	}

	for _, decl := range m.Declarations {
		switch decl.Kind {
		case ast.DeclFunction:
			f := decl.Function
			add(f.Name, lsp.SKFunction, decl.Range, "")
			letBindings(f.Expression, f.Name, add)
		case ast.DeclTypeAlias:
			add(decl.TypeAlias.Name, protocol.SKObject, decl.Range, "")
		case ast.DeclTypeDecl:
			td := decl.TypeDecl
			add(td.Name, lsp.SKEnum, decl.Range, "")
			for _, c := range td.Constructors {
				add(c.Name, lsp.SKConstructor, c.NameRange, td.Name)
			}
		case ast.DeclPort:
			add(decl.Port.Name, lsp.SKFunction, decl.Range, "")
		}
	}
	return symbols
}

// letBindings walks an expression tree for let-bound function names.
func letBindings(e ast.Expression, container string, add func(string, lsp.SymbolKind, ast.Range, string)) {
	if e.Kind == ast.ExprLet {
		for _, ld := range e.LetDecls {
			if ld.Kind == ast.DeclFunction {
				add(ld.Function.Name, lsp.SKFunction, ld.Range, container)
				letBindings(ld.Function.Expression, container, add)
			}
		}
	}
	for _, child := range ast.ChildExpressions(e) {
		letBindings(child, container, add)
	}
}
