package features

import (
	"context"
	"testing"

	"github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/ast/asttest"
	"github.com/elmtools/elmls/internal/manifest"
)

// aliasedMain models `import Helpers as H` followed by `x = H.` with the
// cursor immediately after the dot.
func aliasedMain() (*ast.Module, string, ast.Position) {
	source := "module Main exposing (x)\n\nimport Helpers as H\n\nx = H.\n"
	m := &ast.Module{
		Header: ast.ModuleHeader{ModuleName: "Main"},
		Imports: []ast.Import{
			{ModuleName: "Helpers", Alias: "H", NameRange: ast.Range{Start: ast.Position{Line: 3, Column: 8}, End: ast.Position{Line: 3, Column: 15}}},
		},
	}
	return m, source, ast.Position{Line: 5, Column: 7}
}

func labels(items []lsp.CompletionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func TestComplete(t *testing.T) {
	ws := asttest.NewWorkspace()
	c := NewCompleter(ws)

	t.Run("QualifiedThroughAlias", func(t *testing.T) {
		m, source, pos := aliasedMain()
		got := labels(c.Complete(context.Background(), asttest.MainURI, source, m, pos))
		for _, want := range []string{"add", "multiply", "greet"} {
			assert.Contains(t, got, want, "alias-widened completion should offer %s", want)
		}
	})

	t.Run("NotAfterDot", func(t *testing.T) {
		m, _, _ := aliasedMain()
		got := c.Complete(context.Background(), asttest.MainURI, "x = H\n", m, ast.Position{Line: 1, Column: 6})
		assert.Empty(t, got, "no completions without a dot before the cursor")
	})

	t.Run("ExposureGated", func(t *testing.T) {
		// A module hiding a declaration does not offer it.
		hidden := asttest.HelpersModule()
		hidden.Header.Exposing = ast.ExposingList{Items: []ast.ExposedItem{
			{Kind: ast.ExposedFunction, Name: "add"},
		}}
		ws := asttest.NewWorkspace()
		ws.Modules["Helpers"] = hidden

		m, source, pos := aliasedMain()
		got := labels(NewCompleter(ws).Complete(context.Background(), asttest.MainURI, source, m, pos))
		assert.Contains(t, got, "add")
		assert.NotContains(t, got, "multiply", "unexposed values are not offered")
	})

	t.Run("SubModules", func(t *testing.T) {
		ws := asttest.NewWorkspace()
		ws.Known = []string{"Helpers", "Helpers.Math", "Helpers.Format.Text", "Types"}

		m, _, _ := aliasedMain()
		// Completion after `Helpers.` suggests the next dotted component only.
		source := "module Main exposing (x)\n\nimport Helpers as H\n\nx = Helpers.\n"
		got := labels(NewCompleter(ws).Complete(context.Background(), asttest.MainURI, source, m, ast.Position{Line: 5, Column: 13}))
		assert.Contains(t, got, "Math")
		assert.Contains(t, got, "Format")
		assert.NotContains(t, got, "Format.Text", "multi-level components are not offered")
	})

	t.Run("PackageDocs", func(t *testing.T) {
		ws := asttest.NewWorkspace()
		ws.DocSet = []manifest.ModuleDoc{{
			Name:   "Json.Decode",
			Values: []manifest.ValueDoc{{Name: "decodeString", Type: "Decoder a -> String -> Result Error a"}},
			Unions: []manifest.UnionDoc{{Name: "Decoder"}},
		}}

		m := &ast.Module{Header: ast.ModuleHeader{ModuleName: "Main"}}
		source := "module Main exposing (x)\n\nx = Json.Decode.\n"
		got := labels(NewCompleter(ws).Complete(context.Background(), asttest.MainURI, source, m, ast.Position{Line: 3, Column: 17}))
		assert.Contains(t, got, "decodeString")
		assert.Contains(t, got, "Decoder")
	})
}

func TestDocumentSymbols(t *testing.T) {
	ds := NewDocumentSymbols()

	symbols := ds.Symbols(asttest.TypesURI, asttest.TypesModule())
	byName := map[string]lsp.SymbolInformation{}
	for _, s := range symbols {
		byName[s.Name] = s
	}

	assert.Equal(t, lsp.SKEnum, byName["Msg"].Kind, "custom types are enums")
	assert.Equal(t, lsp.SKConstructor, byName["Increment"].Kind)
	assert.Equal(t, "Msg", byName["Increment"].ContainerName, "constructors nest under their type")

	// Parse failure serves the last good outline for the URI.
	again := ds.Symbols(asttest.TypesURI, nil)
	assert.Equal(t, symbols, again, "nil module should return the remembered outline")
	assert.Empty(t, ds.Symbols("file:///never-seen.elm", nil))
}

func TestDocumentSymbolsLetChildren(t *testing.T) {
	// f = let helper = 1 in helper
	inner := ast.Declaration{
		Kind:  ast.DeclFunction,
		Range: ast.Range{Start: ast.Position{Line: 2, Column: 9}, End: ast.Position{Line: 2, Column: 19}},
		Function: &ast.FunctionDeclaration{
			Name:       "helper",
			NameRange:  ast.Range{Start: ast.Position{Line: 2, Column: 9}, End: ast.Position{Line: 2, Column: 15}},
			Expression: ast.Expression{Kind: ast.ExprLiteralInt, Range: ast.Range{Start: ast.Position{Line: 2, Column: 18}, End: ast.Position{Line: 2, Column: 19}}},
		},
	}
	m := &ast.Module{
		Header: ast.ModuleHeader{ModuleName: "Main"},
		Declarations: []ast.Declaration{{
			Kind:  ast.DeclFunction,
			Range: ast.Range{Start: ast.Position{Line: 1, Column: 1}, End: ast.Position{Line: 3, Column: 15}},
			Function: &ast.FunctionDeclaration{
				Name:      "f",
				NameRange: ast.Range{Start: ast.Position{Line: 1, Column: 1}, End: ast.Position{Line: 1, Column: 2}},
				Expression: ast.Expression{
					Kind:     ast.ExprLet,
					Range:    ast.Range{Start: ast.Position{Line: 2, Column: 5}, End: ast.Position{Line: 3, Column: 15}},
					LetDecls: []ast.Declaration{inner},
					LetBody:  &ast.Expression{Kind: ast.ExprFunctionOrValue, Name: "helper", Range: ast.Range{Start: ast.Position{Line: 3, Column: 9}, End: ast.Position{Line: 3, Column: 15}}},
				},
			},
		}},
	}

	symbols := NewDocumentSymbols().Symbols("file:///f.elm", m)
	var found bool
	for _, s := range symbols {
		if s.Name == "helper" {
			found = true
			assert.Equal(t, "f", s.ContainerName, "let bindings nest under their enclosing function")
		}
	}
	assert.True(t, found, "let-bound function should appear in the outline")
}
