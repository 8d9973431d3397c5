// Package refs is the reference and rename engine: a whole-workspace scan
// enumerating every binding and use site of a symbol identity, with ranges
// trimmed to the bare name so rename edits never touch qualifiers or
// exposing suffixes.
package refs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"
	"github.com/spf13/afero"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/protocol"
	"github.com/elmtools/elmls/internal/manifest"
)

const (
	errWalkSourceDir = "failed to walk source directory"
	errReadSource    = "failed to read source file"
)

// ParseFunc parses source text, returning nil on failure. Workspace sweeps
// call it sequentially, one file at a time, so a single-consumer parse
// service is never thrashed by a parallel sweep.
type ParseFunc func(ctx context.Context, source string) *ast.Module

// OpenTextFunc returns the open-document text for a path, when the editor
// has a newer buffer than the disk.
type OpenTextFunc func(path string) (string, bool)

// Engine answers references, rename, and prepareRename requests.
type Engine struct {
	fs       afero.Fs
	manifest *manifest.Resolver
	parse    ParseFunc
	open     OpenTextFunc
	log      logging.Logger
}

// NewEngine returns an Engine sweeping the workspace described by m.
func NewEngine(m *manifest.Resolver, parse ParseFunc, opts ...Option) *Engine {
	e := &Engine{
		fs:       afero.NewOsFs(),
		manifest: m,
		parse:    parse,
		open:     func(string) (string, bool) { return "", false },
		log:      logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Option provides a way to override default behavior of the Engine.
type Option func(*Engine)

// WithFS overrides the filesystem the Engine sweeps.
func WithFS(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithLogger overrides the default logging.Logger for the Engine.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithOpenText makes the Engine prefer open editor buffers over disk
// contents during sweeps.
func WithOpenText(open OpenTextFunc) Option {
	return func(e *Engine) {
		e.open = open
	}
}

// References enumerates every reference to id across the workspace owning
// fromURI. When includeDecl is false the declaration name node itself is
// dropped from the result.
func (e *Engine) References(ctx context.Context, fromURI string, id ast.SymbolIdentity, includeDecl bool) []lsp.Location {
	path, ok := manifest.URIToPath(fromURI)
	if !ok {
		return nil
	}
	project, ok := e.manifest.FindManifestFor(path)
	if !ok {
		return nil
	}

	// For a constructor, references in importers hinge on whether its parent
	// type was imported open, `Msg(..)`. The parent is read off the defining
	// module once for the whole sweep.
	ctorParent := ""
	if id.Kind == ast.KindConstructor {
		if def, ok := e.definingModule(ctx, project, id); ok {
			if decl, _, found := ast.FindConstructor(def, id.Name); found {
				ctorParent = decl.TypeDecl.Name
			}
		}
	}

	var out []lsp.Location
	seen := map[refKey]bool{}
	for _, file := range e.workspaceFiles(project) {
		m := e.parseFile(ctx, file)
		if m == nil {
			continue
		}
		if !canReference(m, id.DefModule) {
			continue
		}
		uri := manifest.PathToURI(file)
		for _, loc := range collectInFile(uri, m, id, ctorParent) {
			key := refKey{uri: string(loc.URI), line: loc.Range.Start.Line, col: loc.Range.Start.Character}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, loc)
		}
	}

	if !includeDecl {
		out = e.dropDeclaration(ctx, project, id, out)
	}
	return out
}

type refKey struct {
	uri  string
	line int
	col  int
}

// workspaceFiles lists every .elm file reachable from the project's source
// directories. I/O errors skip the file, never abort the sweep.
func (e *Engine) workspaceFiles(project *manifest.Project) []string {
	var files []string
	for _, dir := range project.SourceDirectories {
		err := afero.Walk(e.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				e.log.Debug(errWalkSourceDir, "path", path, "error", err)
				return nil //nolint:nilerr
			}
			if !info.IsDir() && filepath.Ext(path) == ".elm" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			e.log.Debug(errWalkSourceDir, "dir", dir, "error", err)
		}
	}
	return files
}

func (e *Engine) parseFile(ctx context.Context, path string) *ast.Module {
	text, ok := e.open(path)
	if !ok {
		data, err := afero.ReadFile(e.fs, path)
		if err != nil {
			e.log.Debug(errReadSource, "path", path, "error", err)
			return nil
		}
		text = string(data)
	}
	return e.parse(ctx, text)
}

// canReference reports whether a file can possibly reference a symbol
// defined in defModule: it is that module, imports it, aliases it, or
// defModule is implicitly available.
func canReference(m *ast.Module, defModule string) bool {
	if ast.ToModuleName(m) == defModule {
		return true
	}
	if ast.IsImplicitPreludeModule(defModule) {
		return true
	}
	for _, imp := range m.Imports {
		if imp.ModuleName == defModule {
			return true
		}
	}
	tracker := ast.CreateImportTracker(m)
	for alias := range tracker.AliasMapping {
		if tracker.AliasesInclude(alias, defModule) {
			return true
		}
	}
	return false
}

// definingModule parses the file defining id, when it resolves to one.
func (e *Engine) definingModule(ctx context.Context, project *manifest.Project, id ast.SymbolIdentity) (*ast.Module, bool) {
	path, ok := e.manifest.ResolveModuleToFile(id.DefModule, project)
	if !ok {
		return nil, false
	}
	m := e.parseFile(ctx, path)
	return m, m != nil
}

// dropDeclaration removes the Location that starts at the declaration's own
// name node in the defining module.
func (e *Engine) dropDeclaration(ctx context.Context, project *manifest.Project, id ast.SymbolIdentity, locs []lsp.Location) []lsp.Location {
	path, ok := e.manifest.ResolveModuleToFile(id.DefModule, project)
	if !ok {
		return locs
	}
	m := e.parseFile(ctx, path)
	if m == nil {
		return locs
	}
	declStart, ok := declarationStart(m, id)
	if !ok {
		return locs
	}
	uri := manifest.PathToURI(path)
	kept := locs[:0]
	for _, loc := range locs {
		if string(loc.URI) == uri && loc.Range.Start == protocol.ToLSPPosition(declStart) {
			continue
		}
		kept = append(kept, loc)
	}
	return kept
}

func declarationStart(m *ast.Module, id ast.SymbolIdentity) (ast.Position, bool) {
	if id.Kind == ast.KindConstructor {
		if _, c, ok := ast.FindConstructor(m, id.Name); ok {
			return c.NameRange.Start, true
		}
		return ast.Position{}, false
	}
	if decl, ok := ast.FindDeclarationByName(m, id.Name); ok {
		if nr, has := ast.DeclNameRange(decl); has {
			return nr.Start, true
		}
	}
	return ast.Position{}, false
}

// trimmedStart shifts a range's start right by the qualifier prefix so only
// the bare name remains editable.
func trimmedStart(r ast.Range, prefixLen int) ast.Range {
	return ast.Range{
		Start: ast.Position{Line: r.Start.Line, Column: r.Start.Column + prefixLen},
		End:   r.End,
	}
}

func qualifierPrefix(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".") + "."
}
