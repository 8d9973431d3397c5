package refs

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/go-lsp"
	"github.com/spf13/afero"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/ast/asttest"
	"github.com/elmtools/elmls/internal/manifest"
)

const projectManifest = `{
	"type": "application",
	"source-directories": ["src"],
	"elm-version": "0.19.1",
	"dependencies": {"direct": {}, "indirect": {}}
}`

// fixtureParse maps fixture sources back to their hand-built ASTs, standing
// in for the parse service during sweeps.
func fixtureParse(_ context.Context, source string) *ast.Module {
	switch source {
	case asttest.HelpersSource:
		return asttest.HelpersModule()
	case asttest.TypesSource:
		return asttest.TypesModule()
	case asttest.MainSource:
		return asttest.MainModule()
	default:
		return nil
	}
}

func fixtureEngine(t *testing.T) *Engine {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/elm.json":            projectManifest,
		"/proj/src/Helpers.elm":     asttest.HelpersSource,
		"/proj/src/Types.elm":       asttest.TypesSource,
		"/proj/src/Main.elm":        asttest.MainSource,
		"/proj/src/Unparseable.elm": "module Broken where {",
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}
	m := manifest.New(manifest.WithFS(fs), manifest.WithElmHome("/elm-home"))
	return NewEngine(m, fixtureParse, WithFS(fs))
}

type refSite struct {
	uri  string
	line int // 0-based, as on the wire
	col  int
	text string
}

func sites(t *testing.T, locs []lsp.Location) []refSite {
	t.Helper()
	sources := map[string]string{
		asttest.HelpersURI: asttest.HelpersSource,
		asttest.TypesURI:   asttest.TypesSource,
		asttest.MainURI:    asttest.MainSource,
	}
	out := make([]refSite, 0, len(locs))
	for _, loc := range locs {
		source, ok := sources[string(loc.URI)]
		if !ok {
			t.Fatalf("reference in unexpected file %q", loc.URI)
		}
		lines := strings.Split(source, "\n")
		text := ""
		if loc.Range.Start.Line < len(lines) {
			line := lines[loc.Range.Start.Line]
			end := loc.Range.End.Character
			if loc.Range.End.Line != loc.Range.Start.Line || end > len(line) {
				end = len(line)
			}
			if loc.Range.Start.Character <= end {
				text = line[loc.Range.Start.Character:end]
			}
		}
		out = append(out, refSite{
			uri:  string(loc.URI),
			line: loc.Range.Start.Line,
			col:  loc.Range.Start.Character,
			text: text,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].uri != out[j].uri {
			return out[i].uri < out[j].uri
		}
		if out[i].line != out[j].line {
			return out[i].line < out[j].line
		}
		return out[i].col < out[j].col
	})
	return out
}

func TestReferences(t *testing.T) {
	e := fixtureEngine(t)
	ctx := context.Background()

	cases := map[string]struct {
		reason      string
		id          ast.SymbolIdentity
		includeDecl bool
		want        []refSite
	}{
		"ValueAcrossModules": {
			reason:      "A value is referenced at its declaration, signature, exposing entries, and uses.",
			id:          ast.SymbolIdentity{DefModule: "Helpers", Name: "add", Kind: ast.KindValue},
			includeDecl: true,
			want: []refSite{
				{uri: asttest.HelpersURI, line: 0, col: 25, text: "add"},
				{uri: asttest.HelpersURI, line: 2, col: 0, text: "add"},
				{uri: asttest.HelpersURI, line: 3, col: 0, text: "add"},
				{uri: asttest.MainURI, line: 2, col: 25, text: "add"},
				{uri: asttest.MainURI, line: 15, col: 4, text: "add"},
			},
		},
		"ValueWithoutDeclaration": {
			reason: "includeDeclaration=false drops the declaration name node only.",
			id:     ast.SymbolIdentity{DefModule: "Helpers", Name: "add", Kind: ast.KindValue},
			want: []refSite{
				{uri: asttest.HelpersURI, line: 0, col: 25, text: "add"},
				{uri: asttest.HelpersURI, line: 2, col: 0, text: "add"},
				{uri: asttest.MainURI, line: 2, col: 25, text: "add"},
				{uri: asttest.MainURI, line: 15, col: 4, text: "add"},
			},
		},
		"Constructor": {
			reason:      "A constructor is referenced at its variant and at case patterns in importers.",
			id:          ast.SymbolIdentity{DefModule: "Types", Name: "Increment", Kind: ast.KindConstructor},
			includeDecl: true,
			want: []refSite{
				{uri: asttest.MainURI, line: 8, col: 8, text: "Increment"},
				{uri: asttest.TypesURI, line: 3, col: 6, text: "Increment"},
			},
		},
		"TypeInAnnotationsAndExposing": {
			reason:      "A type is referenced in exposing lists (trimmed past the (..) suffix) and annotations.",
			id:          ast.SymbolIdentity{DefModule: "Types", Name: "Msg", Kind: ast.KindType},
			includeDecl: true,
			want: []refSite{
				{uri: asttest.MainURI, line: 3, col: 23, text: "Msg"},
				{uri: asttest.MainURI, line: 5, col: 9, text: "Msg"},
				{uri: asttest.TypesURI, line: 0, col: 23, text: "Msg"},
				{uri: asttest.TypesURI, line: 2, col: 5, text: "Msg"},
			},
		},
		"ExposingEntriesOnly": {
			reason: "A value used nowhere still appears at its exposing entries, and its own argument named elsewhere never leaks in.",
			id:     ast.SymbolIdentity{DefModule: "Helpers", Name: "greet", Kind: ast.KindValue},
			want: []refSite{
				{uri: asttest.HelpersURI, line: 0, col: 40, text: "greet"},
				{uri: asttest.MainURI, line: 2, col: 30, text: "greet"},
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := sites(t, e.References(ctx, asttest.MainURI, tc.id, tc.includeDecl))
			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(refSite{})); diff != "" {
				t.Errorf("\n%s\nReferences(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

// TestReferencesTrimmedText is the slice property: every returned range
// covers exactly the symbol's name.
func TestReferencesTrimmedText(t *testing.T) {
	e := fixtureEngine(t)
	ids := []ast.SymbolIdentity{
		{DefModule: "Helpers", Name: "add", Kind: ast.KindValue},
		{DefModule: "Helpers", Name: "greet", Kind: ast.KindValue},
		{DefModule: "Types", Name: "Msg", Kind: ast.KindType},
		{DefModule: "Types", Name: "Increment", Kind: ast.KindConstructor},
		{DefModule: "Types", Name: "SetName", Kind: ast.KindConstructor},
		{DefModule: "Types", Name: "Model", Kind: ast.KindType},
	}
	for _, id := range ids {
		for _, site := range sites(t, e.References(context.Background(), asttest.MainURI, id, true)) {
			if site.text != id.Name {
				t.Errorf("reference to %s at %s:%d:%d covers %q, want %q", id.Name, site.uri, site.line, site.col, site.text, id.Name)
			}
		}
	}
}

func TestRename(t *testing.T) {
	e := fixtureEngine(t)
	edit, ok := e.Rename(context.Background(), asttest.MainURI, ast.SymbolIdentity{DefModule: "Helpers", Name: "add", Kind: ast.KindValue}, "plus")
	if !ok {
		t.Fatal("Rename: want workspace edit, got none")
	}

	if len(edit.Changes[asttest.HelpersURI]) != 3 {
		t.Errorf("want 3 edits in Helpers.elm, got %d", len(edit.Changes[asttest.HelpersURI]))
	}
	if len(edit.Changes[asttest.MainURI]) != 2 {
		t.Errorf("want 2 edits in Main.elm, got %d", len(edit.Changes[asttest.MainURI]))
	}
	for uri, edits := range edit.Changes {
		for _, te := range edits {
			if te.NewText != "plus" {
				t.Errorf("edit in %s: want newText plus, got %q", uri, te.NewText)
			}
			if te.Range.Start.Line != te.Range.End.Line {
				t.Errorf("edit in %s spans lines: %+v", uri, te.Range)
			}
			if te.Range.End.Character-te.Range.Start.Character != len("add") {
				t.Errorf("edit in %s is not name-sized: %+v", uri, te.Range)
			}
		}
	}
}

func TestPrepareRename(t *testing.T) {
	e := fixtureEngine(t)
	id := ast.SymbolIdentity{DefModule: "Helpers", Name: "add", Kind: ast.KindValue}

	// On the use site inside main's body.
	got, ok := e.PrepareRename(context.Background(), asttest.MainURI, asttest.MainSource, id, ast.Position{Line: 16, Column: 6})
	if !ok {
		t.Fatal("PrepareRename: want result on a reference site, got refusal")
	}
	if got.Placeholder != "add" {
		t.Errorf("PrepareRename placeholder: want add, got %q", got.Placeholder)
	}
	want := lsp.Range{Start: lsp.Position{Line: 15, Character: 4}, End: lsp.Position{Line: 15, Character: 7}}
	if diff := cmp.Diff(want, got.Range); diff != "" {
		t.Errorf("PrepareRename range: -want, +got:\n%s", diff)
	}

	// Off any reference site, rename is refused.
	if _, ok := e.PrepareRename(context.Background(), asttest.MainURI, asttest.MainSource, id, ast.Position{Line: 2, Column: 1}); ok {
		t.Error("PrepareRename: want refusal away from reference sites")
	}
}
