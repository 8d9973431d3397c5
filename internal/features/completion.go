package features

import (
	"context"
	"sort"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/manifest"
)

// Workspace supplies project context to completion.
type Workspace interface {
	// ModuleAST resolves a module name, relative to the project owning
	// fromURI, to its file URI and parsed AST.
	ModuleAST(ctx context.Context, fromURI, module string) (string, *ast.Module, bool)
	// Docs lists package documentation in dependency declaration order.
	Docs(fromURI string) []manifest.ModuleDoc
	// KnownModules lists every module name visible to the project: source
	// files and package modules alike.
	KnownModules(fromURI string) []string
}

// Completer answers dot-triggered completion requests.
type Completer struct {
	ws  Workspace
	log logging.Logger
}

// NewCompleter returns a Completer resolving modules through ws.
func NewCompleter(ws Workspace, opts ...CompleterOption) *Completer {
	c := &Completer{ws: ws, log: logging.NewNopLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CompleterOption provides a way to override default behavior of the
// Completer.
type CompleterOption func(*Completer)

// WithCompleterLogger overrides the default logging.Logger for the
// Completer.
func WithCompleterLogger(l logging.Logger) CompleterOption {
	return func(c *Completer) {
		c.log = l
	}
}

// Complete extracts the qualifier immediately before the cursor, widens it
// through the current module's alias mapping, and concatenates the exposed
// items of the resolved local module, package-doc entries, and sub-module
// suggestions.
func (c *Completer) Complete(ctx context.Context, uri, text string, m *ast.Module, pos ast.Position) []lsp.CompletionItem {
	qualifier, ok := qualifierBeforeCursor(text, pos)
	if !ok {
		return nil
	}

	var items []lsp.CompletionItem
	seen := map[string]bool{}
	add := func(item lsp.CompletionItem) {
		if !seen[item.Label] {
			seen[item.Label] = true
			items = append(items, item)
		}
	}

	targets := []string{qualifier}
	if m != nil {
		tracker := ast.CreateImportTracker(m)
		targets = tracker.ResolveAlias(qualifier)
		sort.Strings(targets)
	}

	for _, module := range targets {
		if _, target, found := c.ws.ModuleAST(ctx, uri, module); found {
			for _, item := range moduleItems(target) {
				add(item)
			}
		}
		for _, doc := range c.ws.Docs(uri) {
			if doc.Name != module {
				continue
			}
			for _, item := range docItems(doc) {
				add(item)
			}
		}
	}

	for _, sub := range subModules(c.ws.KnownModules(uri), qualifier) {
		add(lsp.CompletionItem{Label: sub, Kind: lsp.CIKModule})
	}
	return items
}

// qualifierBeforeCursor scans back from the cursor, which sits immediately
// after a dot, and returns the dotted qualifier before it.
func qualifierBeforeCursor(text string, pos ast.Position) (string, bool) {
	lines := strings.Split(text, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return "", false
	}
	runes := []rune(lines[pos.Line-1])
	end := pos.Column - 1
	if end > len(runes) {
		end = len(runes)
	}
	if end < 1 || runes[end-1] != '.' {
		return "", false
	}
	start := end - 1
	for start > 0 && isQualifierRune(runes[start-1]) {
		start--
	}
	qualifier := strings.TrimSuffix(string(runes[start:end]), ".")
	if qualifier == "" {
		return "", false
	}
	return qualifier, true
}

func isQualifierRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		return true
	}
	return false
}

// moduleItems lists the completions a project module offers importers:
// everything its exposing list permits.
func moduleItems(m *ast.Module) []lsp.CompletionItem {
	var items []lsp.CompletionItem
	for _, decl := range m.Declarations {
		name, kind, ok := ast.ToDeclarationName(decl)
		if ok && ast.IsExposedFromModule(m, name) {
			items = append(items, lsp.CompletionItem{Label: name, Kind: completionKind(decl, kind)})
		}
		for _, ctor := range ast.Constructors(decl) {
			if ast.IsExposedFromModule(m, ctor.Name) {
				items = append(items, lsp.CompletionItem{Label: ctor.Name, Kind: lsp.CIKConstructor})
			}
		}
	}
	return items
}

func completionKind(decl ast.Declaration, kind ast.SymbolKind) lsp.CompletionItemKind {
	switch {
	case decl.Kind == ast.DeclTypeAlias:
		return lsp.CIKClass
	case kind == ast.KindType:
		return lsp.CIKEnum
	default:
		return lsp.CIKFunction
	}
}

func docItems(doc manifest.ModuleDoc) []lsp.CompletionItem {
	var items []lsp.CompletionItem
	for _, v := range doc.Values {
		items = append(items, lsp.CompletionItem{Label: v.Name, Kind: lsp.CIKFunction, Detail: v.Type})
	}
	for _, a := range doc.Aliases {
		items = append(items, lsp.CompletionItem{Label: a.Name, Kind: lsp.CIKClass})
	}
	for _, u := range doc.Unions {
		items = append(items, lsp.CompletionItem{Label: u.Name, Kind: lsp.CIKEnum})
		for _, c := range u.Cases {
			items = append(items, lsp.CompletionItem{Label: c.Name, Kind: lsp.CIKConstructor})
		}
	}
	return items
}

// subModules suggests the next dotted component of any known module under
// the typed qualifier.
func subModules(known []string, qualifier string) []string {
	prefix := qualifier + "."
	seen := map[string]bool{}
	var out []string
	for _, module := range known {
		if !strings.HasPrefix(module, prefix) {
			continue
		}
		next := strings.TrimPrefix(module, prefix)
		if i := strings.IndexByte(next, '.'); i >= 0 {
			next = next[:i]
		}
		if next != "" && !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}
	sort.Strings(out)
	return out
}
