package nav

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/ast/asttest"
)

func pos(line, col int) ast.Position {
	return ast.Position{Line: line, Column: col}
}

func wireRange(sl, sc, el, ec int) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: sl, Character: sc},
		End:   lsp.Position{Line: el, Character: ec},
	}
}

func TestDefinition(t *testing.T) {
	ws := asttest.NewWorkspace()
	d := NewDefiner(ws)

	cases := map[string]struct {
		reason string
		uri    string
		module *ast.Module
		pos    ast.Position
		want   lsp.Location
		none   bool
	}{
		"CrossModuleThroughExposing": {
			reason: "Definition on an import exposing item jumps to the declaration in the imported module.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(3, 27),
			want:   lsp.Location{URI: asttest.HelpersURI, Range: wireRange(3, 0, 3, 3)},
		},
		"TypeAnnotation": {
			reason: "Definition on a type annotation name jumps to the type declaration in its module.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(6, 11),
			want:   lsp.Location{URI: asttest.TypesURI, Range: wireRange(2, 5, 2, 8)},
		},
		"LocalPatternBinder": {
			reason: "Definition on a local use jumps to the case pattern binder, not a cross-file symbol.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(13, 31),
			want:   lsp.Location{URI: asttest.MainURI, Range: wireRange(11, 16, 11, 20)},
		},
		"HeaderExposingItem": {
			reason: "Definition on a header exposing item jumps to the same-file declaration.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(1, 30),
			want:   lsp.Location{URI: asttest.MainURI, Range: wireRange(6, 0, 6, 6)},
		},
		"ImportModuleName": {
			reason: "Definition on an import module name jumps to the start of that file.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(3, 10),
			want:   lsp.Location{URI: asttest.HelpersURI},
		},
		"ConstructorPattern": {
			reason: "Definition on a constructor pattern jumps to the variant in the defining module.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(9, 11),
			want:   lsp.Location{URI: asttest.TypesURI, Range: wireRange(3, 6, 3, 15)},
		},
		"ExplicitlyExposedValue": {
			reason: "Definition on an unqualified exposed value jumps to its declaration in the exposer.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(16, 6),
			want:   lsp.Location{URI: asttest.HelpersURI, Range: wireRange(3, 0, 3, 3)},
		},
		"RecordUpdateTarget": {
			reason: "Definition on a record update target resolves in scope, never cross-module.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(13, 16),
			want:   lsp.Location{URI: asttest.MainURI, Range: wireRange(6, 11, 6, 16)},
		},
		"FunctionArgument": {
			reason: "Definition on a scrutinee use jumps to the function argument binder.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(8, 11),
			want:   lsp.Location{URI: asttest.MainURI, Range: wireRange(6, 7, 6, 10)},
		},
		"NothingAtPosition": {
			reason: "Blank space resolves to nothing.",
			uri:    asttest.MainURI,
			module: asttest.MainModule(),
			pos:    pos(2, 1),
			none:   true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := d.Definition(context.Background(), tc.uri, tc.module, tc.pos)
			if tc.none {
				if ok {
					t.Errorf("\n%s\nDefinition(...): want none, got %+v", tc.reason, got)
				}
				return
			}
			if !ok {
				t.Fatalf("\n%s\nDefinition(...): want %+v, got none", tc.reason, tc.want)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("\n%s\nDefinition(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

// TestDefinitionShadowing checks last-binder-wins: a let binding shadowing a
// function argument owns uses in the let body.
func TestDefinitionShadowing(t *testing.T) {
	// f x = let x = 1 in x
	inner := ast.Declaration{
		Kind:  ast.DeclFunction,
		Range: ast.Range{Start: pos(2, 9), End: pos(2, 14)},
		Function: &ast.FunctionDeclaration{
			Name:       "x",
			NameRange:  ast.Range{Start: pos(2, 9), End: pos(2, 10)},
			Expression: ast.Expression{Kind: ast.ExprLiteralInt, Range: ast.Range{Start: pos(2, 13), End: pos(2, 14)}, IntValue: 1},
		},
	}
	m := &ast.Module{
		Header: ast.ModuleHeader{ModuleName: "Main"},
		Declarations: []ast.Declaration{{
			Kind:  ast.DeclFunction,
			Range: ast.Range{Start: pos(1, 1), End: pos(3, 10)},
			Function: &ast.FunctionDeclaration{
				Name:      "f",
				NameRange: ast.Range{Start: pos(1, 1), End: pos(1, 2)},
				Arguments: []ast.Pattern{{Kind: ast.PatternVar, Name: "x", Range: ast.Range{Start: pos(1, 3), End: pos(1, 4)}}},
				Expression: ast.Expression{
					Kind:     ast.ExprLet,
					Range:    ast.Range{Start: pos(2, 5), End: pos(3, 10)},
					LetDecls: []ast.Declaration{inner},
					LetBody:  &ast.Expression{Kind: ast.ExprFunctionOrValue, Name: "x", Range: ast.Range{Start: pos(3, 9), End: pos(3, 10)}},
				},
			},
		}},
	}

	got, ok := NewDefiner(asttest.NewWorkspace()).Definition(context.Background(), asttest.MainURI, m, pos(3, 9))
	if !ok {
		t.Fatal("Definition: want let binder, got none")
	}
	want := lsp.Location{URI: asttest.MainURI, Range: wireRange(1, 8, 1, 9)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shadowed use should land on the let binder: -want, +got:\n%s", diff)
	}
}
