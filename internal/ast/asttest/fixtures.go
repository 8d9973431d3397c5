// Package asttest provides hand-built module ASTs and a fake workspace for
// testing the semantic engines. The fixtures model a small three-file
// project: Main imports Helpers (values) and Types (a custom type with
// constructors and an alias).
package asttest

import (
	"context"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/manifest"
)

// Fixture source texts. Every range in the fixture ASTs points into these.
const (
	HelpersSource = `module Helpers exposing (add, multiply, greet)

add : Int -> Int -> Int
add a b =
    a + b

multiply a b =
    a * b

greet name =
    "Hello " ++ name
`

	TypesSource = `module Types exposing (Msg(..), Model)

type Msg
    = Increment
    | Decrement
    | SetName String

type alias Model =
    { name : String }
`

	MainSource = `module Main exposing (main, update)

import Helpers exposing (add, greet)
import Types exposing (Msg(..), Model)

update : Msg -> Model -> Model
update msg model =
    case msg of
        Increment ->
            model

        SetName name ->
            { model | name = name }

main =
    add 1 2
`
)

// Fixture URIs.
const (
	HelpersURI = "file:///proj/src/Helpers.elm"
	TypesURI   = "file:///proj/src/Types.elm"
	MainURI    = "file:///proj/src/Main.elm"
)

func rng(sl, sc, el, ec int) ast.Range {
	return ast.Range{
		Start: ast.Position{Line: sl, Column: sc},
		End:   ast.Position{Line: el, Column: ec},
	}
}

func rngPtr(sl, sc, el, ec int) *ast.Range {
	r := rng(sl, sc, el, ec)
	return &r
}

func fv(r ast.Range, name string, parts ...string) ast.Expression {
	return ast.Expression{Kind: ast.ExprFunctionOrValue, Range: r, Name: name, ModuleParts: parts}
}

func exprPtr(e ast.Expression) *ast.Expression {
	return &e
}

func typed(r ast.Range, name string) ast.TypeAnnotation {
	return ast.TypeAnnotation{Kind: ast.TypeTyped, Range: r, TypedName: name}
}

func typedPtr(t ast.TypeAnnotation) *ast.TypeAnnotation {
	return &t
}

// HelpersModule is the AST of HelpersSource.
func HelpersModule() *ast.Module {
	return &ast.Module{
		Header: ast.ModuleHeader{
			Kind:       ast.NormalModule,
			ModuleName: "Helpers",
			Range:      rng(1, 1, 1, 47),
			Exposing: ast.ExposingList{
				Range: rng(1, 25, 1, 47),
				Items: []ast.ExposedItem{
					{Kind: ast.ExposedFunction, Name: "add", Range: rng(1, 26, 1, 29)},
					{Kind: ast.ExposedFunction, Name: "multiply", Range: rng(1, 31, 1, 39)},
					{Kind: ast.ExposedFunction, Name: "greet", Range: rng(1, 41, 1, 46)},
				},
			},
		},
		Declarations: []ast.Declaration{
			{
				Kind:  ast.DeclFunction,
				Range: rng(3, 1, 5, 10),
				Function: &ast.FunctionDeclaration{
					Name:      "add",
					NameRange: rng(4, 1, 4, 4),
					Signature: &ast.TypeSignature{
						Name:      "add",
						NameRange: rng(3, 1, 3, 4),
						Range:     rng(3, 1, 3, 24),
						Type: ast.TypeAnnotation{
							Kind:         ast.TypeFunction,
							Range:        rng(3, 7, 3, 24),
							FunctionLeft: typedPtr(typed(rng(3, 7, 3, 10), "Int")),
							FunctionRight: typedPtr(ast.TypeAnnotation{
								Kind:          ast.TypeFunction,
								Range:         rng(3, 14, 3, 24),
								FunctionLeft:  typedPtr(typed(rng(3, 14, 3, 17), "Int")),
								FunctionRight: typedPtr(typed(rng(3, 21, 3, 24), "Int")),
							}),
						},
					},
					Arguments: []ast.Pattern{
						{Kind: ast.PatternVar, Name: "a", Range: rng(4, 5, 4, 6)},
						{Kind: ast.PatternVar, Name: "b", Range: rng(4, 7, 4, 8)},
					},
					Expression: ast.Expression{
						Kind:     ast.ExprOperatorApplication,
						Range:    rng(5, 5, 5, 10),
						Operator: "+",
						Left:     exprPtr(fv(rng(5, 5, 5, 6), "a")),
						Right:    exprPtr(fv(rng(5, 9, 5, 10), "b")),
					},
				},
			},
			{
				Kind:  ast.DeclFunction,
				Range: rng(7, 1, 8, 10),
				Function: &ast.FunctionDeclaration{
					Name:      "multiply",
					NameRange: rng(7, 1, 7, 9),
					Arguments: []ast.Pattern{
						{Kind: ast.PatternVar, Name: "a", Range: rng(7, 10, 7, 11)},
						{Kind: ast.PatternVar, Name: "b", Range: rng(7, 12, 7, 13)},
					},
					Expression: ast.Expression{
						Kind:     ast.ExprOperatorApplication,
						Range:    rng(8, 5, 8, 10),
						Operator: "*",
						Left:     exprPtr(fv(rng(8, 5, 8, 6), "a")),
						Right:    exprPtr(fv(rng(8, 9, 8, 10), "b")),
					},
				},
			},
			{
				Kind:  ast.DeclFunction,
				Range: rng(10, 1, 11, 21),
				Function: &ast.FunctionDeclaration{
					Name:      "greet",
					NameRange: rng(10, 1, 10, 6),
					Arguments: []ast.Pattern{
						{Kind: ast.PatternVar, Name: "name", Range: rng(10, 7, 10, 11)},
					},
					Expression: ast.Expression{
						Kind:     ast.ExprOperatorApplication,
						Range:    rng(11, 5, 11, 21),
						Operator: "++",
						Left: exprPtr(ast.Expression{
							Kind:        ast.ExprLiteralString,
							Range:       rng(11, 5, 11, 13),
							StringValue: "Hello ",
						}),
						Right: exprPtr(fv(rng(11, 17, 11, 21), "name")),
					},
				},
			},
		},
	}
}

// TypesModule is the AST of TypesSource.
func TypesModule() *ast.Module {
	return &ast.Module{
		Header: ast.ModuleHeader{
			Kind:       ast.NormalModule,
			ModuleName: "Types",
			Range:      rng(1, 1, 1, 39),
			Exposing: ast.ExposingList{
				Range: rng(1, 23, 1, 39),
				Items: []ast.ExposedItem{
					{Kind: ast.ExposedTypeExpose, Name: "Msg", Range: rng(1, 24, 1, 31), OpenRange: rngPtr(1, 27, 1, 31)},
					{Kind: ast.ExposedTypeOrAlias, Name: "Model", Range: rng(1, 33, 1, 38)},
				},
			},
		},
		Declarations: []ast.Declaration{
			{
				Kind:  ast.DeclTypeDecl,
				Range: rng(3, 1, 6, 21),
				TypeDecl: &ast.TypeDeclDeclaration{
					Name:      "Msg",
					NameRange: rng(3, 6, 3, 9),
					Constructors: []ast.ValueConstructor{
						{Name: "Increment", NameRange: rng(4, 7, 4, 16)},
						{Name: "Decrement", NameRange: rng(5, 7, 5, 16)},
						{Name: "SetName", NameRange: rng(6, 7, 6, 14), Arguments: []ast.TypeAnnotation{typed(rng(6, 15, 6, 21), "String")}},
					},
				},
			},
			{
				Kind:  ast.DeclTypeAlias,
				Range: rng(8, 1, 9, 22),
				TypeAlias: &ast.TypeAliasDeclaration{
					Name:      "Model",
					NameRange: rng(8, 12, 8, 17),
					Type: ast.TypeAnnotation{
						Kind:  ast.TypeRecord,
						Range: rng(9, 5, 9, 22),
						RecordFields: []ast.RecordField{
							{Name: "name", Type: typed(rng(9, 14, 9, 20), "String")},
						},
					},
				},
			},
		},
	}
}

// MainModule is the AST of MainSource.
func MainModule() *ast.Module {
	return &ast.Module{
		Header: ast.ModuleHeader{
			Kind:       ast.NormalModule,
			ModuleName: "Main",
			Range:      rng(1, 1, 1, 36),
			Exposing: ast.ExposingList{
				Range: rng(1, 22, 1, 36),
				Items: []ast.ExposedItem{
					{Kind: ast.ExposedFunction, Name: "main", Range: rng(1, 23, 1, 27)},
					{Kind: ast.ExposedFunction, Name: "update", Range: rng(1, 29, 1, 35)},
				},
			},
		},
		Imports: []ast.Import{
			{
				ModuleName: "Helpers",
				Range:      rng(3, 1, 3, 37),
				NameRange:  rng(3, 8, 3, 15),
				Exposing: &ast.ExposingList{
					Range: rng(3, 25, 3, 37),
					Items: []ast.ExposedItem{
						{Kind: ast.ExposedFunction, Name: "add", Range: rng(3, 26, 3, 29)},
						{Kind: ast.ExposedFunction, Name: "greet", Range: rng(3, 31, 3, 36)},
					},
				},
			},
			{
				ModuleName: "Types",
				Range:      rng(4, 1, 4, 39),
				NameRange:  rng(4, 8, 4, 13),
				Exposing: &ast.ExposingList{
					Range: rng(4, 23, 4, 39),
					Items: []ast.ExposedItem{
						{Kind: ast.ExposedTypeExpose, Name: "Msg", Range: rng(4, 24, 4, 31), OpenRange: rngPtr(4, 27, 4, 31)},
						{Kind: ast.ExposedTypeOrAlias, Name: "Model", Range: rng(4, 33, 4, 38)},
					},
				},
			},
		},
		Declarations: []ast.Declaration{updateDecl(), mainDecl()},
	}
}

func updateDecl() ast.Declaration {
	return ast.Declaration{
		Kind:  ast.DeclFunction,
		Range: rng(6, 1, 13, 36),
		Function: &ast.FunctionDeclaration{
			Name:      "update",
			NameRange: rng(7, 1, 7, 7),
			Signature: &ast.TypeSignature{
				Name:      "update",
				NameRange: rng(6, 1, 6, 7),
				Range:     rng(6, 1, 6, 31),
				Type: ast.TypeAnnotation{
					Kind:         ast.TypeFunction,
					Range:        rng(6, 10, 6, 31),
					FunctionLeft: typedPtr(typed(rng(6, 10, 6, 13), "Msg")),
					FunctionRight: typedPtr(ast.TypeAnnotation{
						Kind:          ast.TypeFunction,
						Range:         rng(6, 17, 6, 31),
						FunctionLeft:  typedPtr(typed(rng(6, 17, 6, 22), "Model")),
						FunctionRight: typedPtr(typed(rng(6, 26, 6, 31), "Model")),
					}),
				},
			},
			Arguments: []ast.Pattern{
				{Kind: ast.PatternVar, Name: "msg", Range: rng(7, 8, 7, 11)},
				{Kind: ast.PatternVar, Name: "model", Range: rng(7, 12, 7, 17)},
			},
			Expression: ast.Expression{
				Kind:          ast.ExprCase,
				Range:         rng(8, 5, 13, 36),
				CaseScrutinee: exprPtr(fv(rng(8, 10, 8, 13), "msg")),
				CaseBranches: []ast.CaseBranch{
					{
						Range:   rng(9, 9, 10, 18),
						Pattern: ast.Pattern{Kind: ast.PatternNamed, QualifiedName: "Increment", Range: rng(9, 9, 9, 18), NameRange: rng(9, 9, 9, 18)},
						Body:    fv(rng(10, 13, 10, 18), "model"),
					},
					{
						Range: rng(12, 9, 13, 36),
						Pattern: ast.Pattern{
							Kind:          ast.PatternNamed,
							QualifiedName: "SetName",
							Range:         rng(12, 9, 12, 21),
							NameRange:     rng(12, 9, 12, 16),
							SubPatterns: []ast.Pattern{
								{Kind: ast.PatternVar, Name: "name", Range: rng(12, 17, 12, 21)},
							},
						},
						Body: ast.Expression{
							Kind:            ast.ExprRecordUpdate,
							Range:           rng(13, 13, 13, 36),
							RecordName:      "model",
							RecordNameRange: rng(13, 15, 13, 20),
							RecordSetters: []ast.RecordSetter{
								{FieldName: "name", FieldNameRange: rng(13, 23, 13, 27), Value: fv(rng(13, 30, 13, 34), "name")},
							},
						},
					},
				},
			},
		},
	}
}

func mainDecl() ast.Declaration {
	return ast.Declaration{
		Kind:  ast.DeclFunction,
		Range: rng(15, 1, 16, 12),
		Function: &ast.FunctionDeclaration{
			Name:      "main",
			NameRange: rng(15, 1, 15, 5),
			Expression: ast.Expression{
				Kind:        ast.ExprApplication,
				Range:       rng(16, 5, 16, 12),
				AppFunction: exprPtr(fv(rng(16, 5, 16, 8), "add")),
				AppArgs: []ast.Expression{
					{Kind: ast.ExprLiteralInt, Range: rng(16, 9, 16, 10), IntValue: 1},
					{Kind: ast.ExprLiteralInt, Range: rng(16, 11, 16, 12), IntValue: 2},
				},
			},
		},
	}
}

// Workspace is a fake satisfying the navigation and completion workspace
// interfaces over the fixture modules.
type Workspace struct {
	Modules map[string]*ast.Module
	URIs    map[string]string
	Files   map[string]string
	DocSet  []manifest.ModuleDoc
	Known   []string
}

// NewWorkspace returns a Workspace holding the three fixture modules.
func NewWorkspace() *Workspace {
	return &Workspace{
		Modules: map[string]*ast.Module{
			"Helpers": HelpersModule(),
			"Types":   TypesModule(),
			"Main":    MainModule(),
		},
		URIs: map[string]string{
			"Helpers": HelpersURI,
			"Types":   TypesURI,
			"Main":    MainURI,
		},
		Files: map[string]string{
			"Helpers": "/proj/src/Helpers.elm",
			"Types":   "/proj/src/Types.elm",
			"Main":    "/proj/src/Main.elm",
		},
		Known: []string{"Helpers", "Types", "Main"},
	}
}

// ModuleAST resolves a fixture module.
func (w *Workspace) ModuleAST(_ context.Context, _ string, module string) (string, *ast.Module, bool) {
	m, ok := w.Modules[module]
	if !ok {
		return "", nil, false
	}
	return w.URIs[module], m, true
}

// ModuleFile resolves a fixture module to its path.
func (w *Workspace) ModuleFile(_ string, module string) (string, bool) {
	path, ok := w.Files[module]
	return path, ok
}

// Docs lists the fixture package docs.
func (w *Workspace) Docs(string) []manifest.ModuleDoc {
	return w.DocSet
}

// KnownModules lists the fixture module names.
func (w *Workspace) KnownModules(string) []string {
	return w.Known
}

// Lookup adapts the workspace to the identity resolver's module lookup.
func (w *Workspace) Lookup(ctx context.Context, module string) (*ast.Module, bool) {
	_, m, ok := w.ModuleAST(ctx, "", module)
	return m, ok
}
