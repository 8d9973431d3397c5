package manifest

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const testManifest = `{
	"type": "application",
	"source-directories": ["src", "vendor/elm"],
	"elm-version": "0.19.1",
	"dependencies": {
		"direct": {
			"elm/core": "1.0.5",
			"elm/json": "1.1.3"
		},
		"indirect": {
			"elm/time": "1.0.0"
		}
	}
}`

func testFS(files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for path, content := range files {
		_ = afero.WriteFile(fs, path, []byte(content), os.ModePerm)
	}
	return fs
}

func TestFindManifestFor(t *testing.T) {
	cases := map[string]struct {
		reason   string
		files    map[string]string
		filePath string
		want     string // expected project folder, "" for not found
	}{
		"SameDirectory": {
			reason:   "Should find the manifest next to the file.",
			files:    map[string]string{"/proj/elm.json": testManifest},
			filePath: "/proj/Main.elm",
			want:     "/proj",
		},
		"AncestorDirectory": {
			reason:   "Should walk parents until a manifest parses.",
			files:    map[string]string{"/proj/elm.json": testManifest},
			filePath: "/proj/src/Pages/Home.elm",
			want:     "/proj",
		},
		"SkipsUnparseable": {
			reason: "Should skip a manifest that does not parse and keep walking upward.",
			files: map[string]string{
				"/proj/elm.json":     testManifest,
				"/proj/sub/elm.json": "{ not json",
			},
			filePath: "/proj/sub/Main.elm",
			want:     "/proj",
		},
		"NotFound": {
			reason:   "Should report no project when no ancestor has a manifest.",
			files:    map[string]string{},
			filePath: "/elsewhere/Main.elm",
			want:     "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := New(WithFS(testFS(tc.files)), WithElmHome("/elm-home"))
			p, ok := r.FindManifestFor(tc.filePath)
			if tc.want == "" {
				if ok {
					t.Errorf("\n%s\nFindManifestFor(%q): want no project, got %q", tc.reason, tc.filePath, p.ProjectFolder)
				}
				return
			}
			if !ok {
				t.Fatalf("\n%s\nFindManifestFor(%q): want project, got none", tc.reason, tc.filePath)
			}
			if p.ProjectFolder != tc.want {
				t.Errorf("\n%s\nFindManifestFor(%q): want folder %q, got %q", tc.reason, tc.filePath, tc.want, p.ProjectFolder)
			}
		})
	}
}

func TestManifestContents(t *testing.T) {
	r := New(WithFS(testFS(map[string]string{"/proj/elm.json": testManifest})), WithElmHome("/elm-home"))
	p, ok := r.FindManifestFor("/proj/src/Main.elm")
	if !ok {
		t.Fatal("expected manifest to resolve")
	}

	if diff := cmp.Diff([]string{"/proj/src", "/proj/vendor/elm"}, p.SourceDirectories); diff != "" {
		t.Errorf("source directories: -want, +got:\n%s", diff)
	}

	want := []Dependency{
		{User: "elm", Name: "core", Version: "1.0.5", DocsPath: "/elm-home/0.19.1/packages/elm/core/1.0.5/docs.json"},
		{User: "elm", Name: "json", Version: "1.1.3", DocsPath: "/elm-home/0.19.1/packages/elm/json/1.1.3/docs.json"},
	}
	if diff := cmp.Diff(want, p.Dependencies); diff != "" {
		t.Errorf("direct dependencies in declaration order: -want, +got:\n%s", diff)
	}
}

func TestResolveModuleToFile(t *testing.T) {
	files := map[string]string{
		"/proj/elm.json":                testManifest,
		"/proj/src/Main.elm":            "module Main exposing (..)",
		"/proj/src/Pages/Home.elm":      "module Pages.Home exposing (..)",
		"/proj/vendor/elm/Helpers.elm":  "module Helpers exposing (..)",
		"/proj/vendor/elm/Ignored.yaml": "",
	}
	r := New(WithFS(testFS(files)), WithElmHome("/elm-home"))
	p, ok := r.FindManifestFor("/proj/src/Main.elm")
	if !ok {
		t.Fatal("expected manifest to resolve")
	}

	cases := map[string]struct {
		reason string
		module string
		want   string
	}{
		"TopLevel": {
			reason: "Should resolve a plain module in the first source directory.",
			module: "Main",
			want:   "/proj/src/Main.elm",
		},
		"Dotted": {
			reason: "Should translate dots to path separators.",
			module: "Pages.Home",
			want:   "/proj/src/Pages/Home.elm",
		},
		"SecondSourceDirectory": {
			reason: "Should probe later source directories when earlier ones miss.",
			module: "Helpers",
			want:   "/proj/vendor/elm/Helpers.elm",
		},
		"PackageModule": {
			reason: "Should not resolve modules that exist in no source directory.",
			module: "Json.Decode",
			want:   "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := r.ResolveModuleToFile(tc.module, p)
			if tc.want == "" {
				if ok {
					t.Errorf("\n%s\nResolveModuleToFile(%q): want no file, got %q", tc.reason, tc.module, got)
				}
				return
			}
			if got != tc.want {
				t.Errorf("\n%s\nResolveModuleToFile(%q): want %q, got %q", tc.reason, tc.module, tc.want, got)
			}
		})
	}
}

func TestLoadDocs(t *testing.T) {
	const docs = `[
		{
			"name": "Helpers.Math",
			"comment": "math helpers",
			"unions": [
				{"name": "Sign", "comment": "", "args": [], "cases": [["Positive", []], ["Negative", []]]}
			],
			"aliases": [],
			"values": [
				{"name": "add", "comment": "adds", "type": "Int -> Int -> Int"}
			],
			"binops": []
		}
	]`
	fs := testFS(map[string]string{
		"/elm-home/0.19.1/packages/acme/helpers/1.0.0/docs.json": docs,
	})
	r := New(WithFS(fs), WithElmHome("/elm-home"))

	dep := Dependency{User: "acme", Name: "helpers", Version: "1.0.0", DocsPath: "/elm-home/0.19.1/packages/acme/helpers/1.0.0/docs.json"}
	got := r.LoadDocs(dep)
	if len(got) != 1 || got[0].Name != "Helpers.Math" {
		t.Fatalf("LoadDocs(...): want one module Helpers.Math, got %v", got)
	}
	if diff := cmp.Diff([]UnionCase{{Name: "Positive", Args: []string{}}, {Name: "Negative", Args: []string{}}}, got[0].Unions[0].Cases); diff != "" {
		t.Errorf("union cases: -want, +got:\n%s", diff)
	}

	missing := Dependency{DocsPath: "/elm-home/0.19.1/packages/acme/gone/1.0.0/docs.json"}
	if got := r.LoadDocs(missing); len(got) != 0 {
		t.Errorf("LoadDocs(missing): want empty list, got %v", got)
	}
}

func TestURIHelpers(t *testing.T) {
	cases := map[string]struct {
		reason string
		path   string
		uri    string
	}{
		"Plain": {
			reason: "Should round-trip a plain path.",
			path:   "/proj/src/Main.elm",
			uri:    "file:///proj/src/Main.elm",
		},
		"Space": {
			reason: "Should percent-encode spaces but keep separators.",
			path:   "/proj/my src/Main.elm",
			uri:    "file:///proj/my%20src/Main.elm",
		},
		"Hash": {
			reason: "Should escape # so it is not read as a fragment.",
			path:   "/proj/a#b/Main.elm",
			uri:    "file:///proj/a%23b/Main.elm",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := PathToURI(tc.path); got != tc.uri {
				t.Errorf("\n%s\nPathToURI(%q): want %q, got %q", tc.reason, tc.path, tc.uri, got)
			}
			got, ok := URIToPath(tc.uri)
			if !ok || got != tc.path {
				t.Errorf("\n%s\nURIToPath(%q): want %q, got %q (ok %t)", tc.reason, tc.uri, tc.path, got, ok)
			}
		})
	}

	if _, ok := URIToPath("untitled:Untitled-1"); ok {
		t.Error("URIToPath: want failure for non-file URI")
	}
}
