// Package protocol converts between the 1-based ranges carried by the AST
// and the 0-based positions of the LSP wire types. Both place the range end
// just past the last character. Every boundary crossing adjusts each axis by
// one.
package protocol

import (
	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
)

// SKObject is the LSP 3.x Object symbol kind, newer than the constants
// go-lsp ships.
const SKObject = lsp.SymbolKind(19)

// FromLSPPosition lifts a 0-based wire position to a 1-based AST position.
func FromLSPPosition(p lsp.Position) ast.Position {
	return ast.Position{Line: p.Line + 1, Column: p.Character + 1}
}

// ToLSPPosition lowers a 1-based AST position to a 0-based wire position.
func ToLSPPosition(p ast.Position) lsp.Position {
	return lsp.Position{Line: p.Line - 1, Character: p.Column - 1}
}

// ToLSPRange lowers an AST range to a wire range.
func ToLSPRange(r ast.Range) lsp.Range {
	return lsp.Range{Start: ToLSPPosition(r.Start), End: ToLSPPosition(r.End)}
}

// Location builds a wire Location for an AST range in the given document.
func Location(uri string, r ast.Range) lsp.Location {
	return lsp.Location{URI: lsp.DocumentURI(uri), Range: ToLSPRange(r)}
}
