package refs

import (
	"context"
	"strings"

	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
)

// Rename builds a workspace edit replacing every reference to id with
// newName. Because every collected range is trimmed to the bare name, each
// edit is a plain text substitution.
func (e *Engine) Rename(ctx context.Context, fromURI string, id ast.SymbolIdentity, newName string) (lsp.WorkspaceEdit, bool) {
	locations := e.References(ctx, fromURI, id, true)
	if len(locations) == 0 {
		return lsp.WorkspaceEdit{}, false
	}
	edit := lsp.WorkspaceEdit{Changes: map[string][]lsp.TextEdit{}}
	for _, loc := range locations {
		uri := string(loc.URI)
		edit.Changes[uri] = append(edit.Changes[uri], lsp.TextEdit{Range: loc.Range, NewText: newName})
	}
	return edit, true
}

// PrepareRenameResult is the range/placeholder reply to a prepareRename
// request.
type PrepareRenameResult struct {
	Range       lsp.Range `json:"range"`
	Placeholder string    `json:"placeholder"`
}

// PrepareRename confirms the symbol at pos is renameable: the cursor must
// itself land on a reference site. The placeholder is the text slice under
// the reference range.
func (e *Engine) PrepareRename(ctx context.Context, fromURI, text string, id ast.SymbolIdentity, pos ast.Position) (PrepareRenameResult, bool) {
	wire := protocol.ToLSPPosition(pos)
	for _, loc := range e.References(ctx, fromURI, id, true) {
		if string(loc.URI) != fromURI {
			continue
		}
		if !containsLSP(loc.Range, wire) {
			continue
		}
		return PrepareRenameResult{
			Range:       loc.Range,
			Placeholder: sliceRange(text, loc.Range),
		}, true
	}
	return PrepareRenameResult{}, false
}

func containsLSP(r lsp.Range, p lsp.Position) bool {
	if p.Line < r.Start.Line || (p.Line == r.Start.Line && p.Character < r.Start.Character) {
		return false
	}
	if p.Line > r.End.Line || (p.Line == r.End.Line && p.Character > r.End.Character) {
		return false
	}
	return true
}

// sliceRange extracts the text under a single-line wire range.
func sliceRange(text string, r lsp.Range) string {
	line := r.Start.Line
	for i := 0; i < line; i++ {
		next := strings.IndexByte(text, '\n')
		if next < 0 {
			return ""
		}
		text = text[next+1:]
	}
	if end := strings.IndexByte(text, '\n'); end >= 0 {
		text = text[:end]
	}
	runes := []rune(text)
	if r.Start.Character >= len(runes) {
		return ""
	}
	stop := r.End.Character
	if r.End.Line != r.Start.Line || stop > len(runes) {
		stop = len(runes)
	}
	return string(runes[r.Start.Character:stop])
}
