// Package server services incoming LSP requests, wiring the document store,
// AST cache, parse service, and the semantic engines together.
package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/pkg/errors"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/spf13/afero"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/astcache"
	"github.com/elmtools/elmls/internal/docstore"
	"github.com/elmtools/elmls/internal/features"
	"github.com/elmtools/elmls/internal/identity"
	"github.com/elmtools/elmls/internal/lsp/protocol"
	"github.com/elmtools/elmls/internal/manifest"
	"github.com/elmtools/elmls/internal/nav"
	"github.com/elmtools/elmls/internal/parseservice"
	"github.com/elmtools/elmls/internal/refs"
	"github.com/elmtools/elmls/internal/symbolindex"
)

const (
	serverName = "elmls"

	defaultCompilerPath  = "elm"
	defaultFormatterPath = "elm-format"

	errPublishDiagnostics = "failed to publish diagnostics"
	errShowMessage        = "failed to show message"
	errWalkSourceDir      = "failed to walk source directory"
	errFormatterMissing   = "elm-format was not found on PATH. Formatting is disabled until it is installed."
)

// Server services incoming LSP requests.
type Server struct {
	conn *jsonrpc2.Conn
	log  logging.Logger
	fs   afero.Fs

	docs     *docstore.Store
	cache    *astcache.Cache
	parser   *parseservice.Service
	manifest *manifest.Resolver

	ids       *identity.Resolver
	definer   *nav.Definer
	hoverer   *nav.Hoverer
	refs      *refs.Engine
	symbols   *symbolindex.Index
	outline   *features.DocumentSymbols
	completer *features.Completer
	diags     *features.Diagnostics
	formatter *features.Formatter

	mu           sync.RWMutex
	rootURI      string
	initialized  bool
	shuttingDown bool

	exit func(int)
}

// New returns a new Server parsing through backend.
func New(backend parseservice.Backend, opts ...Option) (*Server, error) {
	s := &Server{
		log:  logging.NewNopLogger(),
		fs:   afero.NewOsFs(),
		docs: docstore.New(),
		exit: os.Exit,
	}

	compiler := defaultCompilerPath
	formatter := defaultFormatterPath
	cfg := &config{compiler: &compiler, formatter: &formatter}
	for _, o := range opts {
		o(s, cfg)
	}

	s.cache = astcache.New()
	s.parser = parseservice.New(backend, parseservice.WithLogger(s.log))
	if s.manifest == nil {
		s.manifest = manifest.New(manifest.WithFS(s.fs), manifest.WithLogger(s.log))
	}

	s.ids = identity.New(identity.WithLogger(s.log))
	s.definer = nav.NewDefiner(s, nav.WithDefinerLogger(s.log))
	s.hoverer = nav.NewHoverer(s, s.ids, nav.WithHovererLogger(s.log))
	s.refs = refs.NewEngine(s.manifest, s.parseSource,
		refs.WithFS(s.fs),
		refs.WithLogger(s.log),
		refs.WithOpenText(s.openText),
	)
	s.symbols = symbolindex.New(symbolindex.WithFS(s.fs), symbolindex.WithLogger(s.log))
	s.outline = features.NewDocumentSymbols()
	s.completer = features.NewCompleter(s, features.WithCompleterLogger(s.log))
	s.diags = features.NewDiagnostics(*cfg.compiler, s.manifest, s, features.WithDiagnosticsLogger(s.log))
	s.formatter = features.NewFormatter(*cfg.formatter, features.WithFormatterLogger(s.log))

	return s, nil
}

type config struct {
	compiler  *string
	formatter *string
}

// Option provides a way to override default behavior of the Server.
type Option func(*Server, *config)

// WithLogger overrides the default logging.Logger for the Server with the
// supplied logging.Logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server, _ *config) {
		s.log = l
	}
}

// WithFS overrides the filesystem the Server reads sources from.
func WithFS(fs afero.Fs) Option {
	return func(s *Server, _ *config) {
		s.fs = fs
	}
}

// WithManifestResolver overrides the manifest resolver, for tests.
func WithManifestResolver(m *manifest.Resolver) Option {
	return func(s *Server, _ *config) {
		s.manifest = m
	}
}

// WithCompilerPath overrides the external compiler executable.
func WithCompilerPath(path string) Option {
	return func(_ *Server, c *config) {
		*c.compiler = path
	}
}

// WithFormatterPath overrides the external formatter executable.
func WithFormatterPath(path string) Option {
	return func(_ *Server, c *config) {
		*c.formatter = path
	}
}

// WithExitFunc overrides process exit, for tests.
func WithExitFunc(exit func(int)) Option {
	return func(s *Server, _ *config) {
		s.exit = exit
	}
}

// InitializeResult is the initialize reply: capabilities plus server info.
type InitializeResult struct {
	Capabilities lsp.ServerCapabilities `json:"capabilities"`
	ServerInfo   ServerInfo             `json:"serverInfo"`
}

// ServerInfo identifies the server to the client.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Initialize handles calls to initialize.
func (s *Server) Initialize(_ context.Context, conn *jsonrpc2.Conn, params *lsp.InitializeParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.rootURI = string(params.RootURI)
	s.initialized = true

	return &InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
					Save:      &lsp.SaveOptions{},
				},
			},
			HoverProvider:              true,
			DefinitionProvider:         true,
			ReferencesProvider:         true,
			DocumentSymbolProvider:     true,
			WorkspaceSymbolProvider:    true,
			DocumentFormattingProvider: true,
			RenameProvider:             true,
			CompletionProvider: &lsp.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
		},
		ServerInfo: ServerInfo{Name: serverName},
	}, nil
}

// Initialized reports whether initialize has been handled.
func (s *Server) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Shutdown handles calls to shutdown.
func (s *Server) Shutdown(context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
	return nil, nil
}

// Exit terminates the process: 0 after a prior shutdown, 1 otherwise.
func (s *Server) Exit(context.Context) {
	s.mu.RLock()
	clean := s.shuttingDown
	s.mu.RUnlock()
	if clean {
		s.exit(0)
		return
	}
	s.exit(1)
}

// DidOpen handles calls to DidOpen.
func (s *Server) DidOpen(_ context.Context, params *lsp.DidOpenTextDocumentParams) {
	td := params.TextDocument
	s.docs.Open(string(td.URI), td.Text, td.Version)
	s.diags.Run(string(td.URI))
}

// DidChange handles calls to DidChange. Sync is full-content: the last
// change event carries the entire document.
func (s *Server) DidChange(_ context.Context, params *lsp.DidChangeTextDocumentParams) {
	if len(params.ContentChanges) == 0 {
		return
	}
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.docs.Change(string(params.TextDocument.URI), text, params.TextDocument.Version)
}

// DidClose handles calls to DidClose.
func (s *Server) DidClose(_ context.Context, params *lsp.DidCloseTextDocumentParams) {
	s.docs.Close(string(params.TextDocument.URI))
}

// DidSave handles calls to DidSave.
func (s *Server) DidSave(_ context.Context, params *lsp.DidSaveTextDocumentParams) {
	s.diags.Run(string(params.TextDocument.URI))
}

// DocumentSymbol handles calls to DocumentSymbol, serving the last good
// outline when the current buffer does not parse.
func (s *Server) DocumentSymbol(ctx context.Context, params *lsp.DocumentSymbolParams) ([]lsp.SymbolInformation, error) {
	uri := string(params.TextDocument.URI)
	m, ok := s.currentAST(ctx, uri)
	if !ok {
		return s.outline.Symbols(uri, nil), nil
	}
	return s.outline.Symbols(uri, m), nil
}

// Definition handles calls to Definition.
func (s *Server) Definition(ctx context.Context, params *lsp.TextDocumentPositionParams) ([]lsp.Location, error) {
	uri := string(params.TextDocument.URI)
	m, ok := s.currentAST(ctx, uri)
	if !ok {
		return nil, nil
	}
	loc, ok := s.definer.Definition(ctx, uri, m, protocol.FromLSPPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return []lsp.Location{loc}, nil
}

// Hover handles calls to Hover.
func (s *Server) Hover(ctx context.Context, params *lsp.TextDocumentPositionParams) (*lsp.Hover, error) {
	uri := string(params.TextDocument.URI)
	m, ok := s.currentAST(ctx, uri)
	if !ok {
		return nil, nil
	}
	markdown, ok := s.hoverer.Hover(ctx, uri, m, protocol.FromLSPPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return &lsp.Hover{Contents: []lsp.MarkedString{lsp.RawMarkedString(markdown)}}, nil
}

// Completion handles calls to Completion.
func (s *Server) Completion(ctx context.Context, params *lsp.CompletionParams) (*lsp.CompletionList, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}
	// The AST is optional here: alias widening degrades gracefully when the
	// buffer does not parse mid-edit.
	m, _ := s.currentAST(ctx, uri)
	items := s.completer.Complete(ctx, uri, doc.Text, m, protocol.FromLSPPosition(params.Position))
	return &lsp.CompletionList{IsIncomplete: false, Items: items}, nil
}

// References handles calls to References.
func (s *Server) References(ctx context.Context, params *lsp.ReferenceParams) ([]lsp.Location, error) {
	uri := string(params.TextDocument.URI)
	id, ok := s.identityAt(ctx, uri, protocol.FromLSPPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return s.refs.References(ctx, uri, id, params.Context.IncludeDeclaration), nil
}

// PrepareRename handles calls to PrepareRename, refusing positions that are
// not themselves reference sites.
func (s *Server) PrepareRename(ctx context.Context, params *lsp.TextDocumentPositionParams) (*refs.PrepareRenameResult, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}
	pos := protocol.FromLSPPosition(params.Position)
	id, ok := s.identityAt(ctx, uri, pos)
	if !ok {
		return nil, nil
	}
	result, ok := s.refs.PrepareRename(ctx, uri, doc.Text, id, pos)
	if !ok {
		return nil, nil
	}
	return &result, nil
}

// Rename handles calls to Rename.
func (s *Server) Rename(ctx context.Context, params *lsp.RenameParams) (*lsp.WorkspaceEdit, error) {
	uri := string(params.TextDocument.URI)
	id, ok := s.identityAt(ctx, uri, protocol.FromLSPPosition(params.Position))
	if !ok {
		return nil, nil
	}
	edit, ok := s.refs.Rename(ctx, uri, id, params.NewName)
	if !ok {
		return nil, nil
	}
	return &edit, nil
}

// WorkspaceSymbol handles calls to WorkspaceSymbol.
func (s *Server) WorkspaceSymbol(_ context.Context, params *lsp.WorkspaceSymbolParams) ([]lsp.SymbolInformation, error) {
	s.mu.RLock()
	rootURI := s.rootURI
	s.mu.RUnlock()

	root, ok := manifest.URIToPath(rootURI)
	if !ok {
		return nil, nil
	}
	project, ok := s.manifest.FindManifestFor(filepath.Join(root, "elm.json"))
	if !ok {
		return nil, nil
	}
	return s.symbols.Search(params.Query, project), nil
}

// Formatting handles calls to Formatting.
func (s *Server) Formatting(ctx context.Context, params *lsp.DocumentFormattingParams) ([]lsp.TextEdit, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}
	edits, err := s.formatter.Format(ctx, doc.Text)
	if errors.Is(err, features.ErrToolMissing) {
		s.ShowMessage(ctx, &lsp.ShowMessageParams{Type: lsp.MTWarning, Message: errFormatterMissing})
		return nil, nil
	}
	if err != nil {
		return nil, nil
	}
	return edits, nil
}

// PublishDiagnostics notifies the client of a file's diagnostics.
func (s *Server) PublishDiagnostics(ctx context.Context, params *lsp.PublishDiagnosticsParams) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		s.log.Debug(errPublishDiagnostics, "error", err)
	}
}

// ShowMessage surfaces a message in the client UI.
func (s *Server) ShowMessage(ctx context.Context, params *lsp.ShowMessageParams) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, "window/showMessage", params); err != nil {
		s.log.Debug(errShowMessage, "error", err)
	}
}

// currentAST returns the AST for an open document, consulting the version
// keyed cache first. Parse failures are never cached, and a result is only
// cached and trusted after re-checking the store still holds the same
// version: the latest-wins parse service may complete after newer edits.
func (s *Server) currentAST(ctx context.Context, uri string) (*ast.Module, bool) {
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, false
	}
	if m, hit := s.cache.Get(uri, doc.Version); hit {
		return m, true
	}
	m := s.parser.Parse(ctx, doc.Text)
	if m == nil {
		return nil, false
	}
	current, ok := s.docs.Get(uri)
	if !ok || current.Version != doc.Version {
		return nil, false
	}
	s.cache.Put(uri, doc.Version, m)
	return m, true
}

// identityAt resolves the symbol identity at a position in an open document.
func (s *Server) identityAt(ctx context.Context, uri string, pos ast.Position) (ast.SymbolIdentity, bool) {
	m, ok := s.currentAST(ctx, uri)
	if !ok {
		return ast.SymbolIdentity{}, false
	}
	lookup := func(ctx context.Context, module string) (*ast.Module, bool) {
		_, target, found := s.ModuleAST(ctx, uri, module)
		return target, found
	}
	return s.ids.Resolve(ctx, m, pos, lookup)
}

// parseSource adapts the parse service for the reference engine's
// sequential sweep.
func (s *Server) parseSource(ctx context.Context, source string) *ast.Module {
	return s.parser.Parse(ctx, source)
}

// openText lets workspace sweeps prefer open editor buffers over disk.
func (s *Server) openText(path string) (string, bool) {
	doc, ok := s.docs.Get(manifest.PathToURI(path))
	if !ok {
		return "", false
	}
	return doc.Text, true
}

// ModuleAST resolves a module to its file URI and AST, relative to the
// project owning fromURI. Open documents win over disk contents.
func (s *Server) ModuleAST(ctx context.Context, fromURI, module string) (string, *ast.Module, bool) {
	path, ok := s.ModuleFile(fromURI, module)
	if !ok {
		return "", nil, false
	}
	uri := manifest.PathToURI(path)
	if _, open := s.docs.Get(uri); open {
		m, found := s.currentAST(ctx, uri)
		return uri, m, found && m != nil
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", nil, false
	}
	m := s.parser.Parse(ctx, string(data))
	if m == nil {
		return "", nil, false
	}
	return uri, m, true
}

// ModuleFile resolves a module to a file path without parsing it.
func (s *Server) ModuleFile(fromURI, module string) (string, bool) {
	project, ok := s.projectFor(fromURI)
	if !ok {
		return "", false
	}
	return s.manifest.ResolveModuleToFile(module, project)
}

// Docs lists package documentation for the project owning fromURI, in
// dependency declaration order.
func (s *Server) Docs(fromURI string) []manifest.ModuleDoc {
	project, ok := s.projectFor(fromURI)
	if !ok {
		return nil
	}
	var docs []manifest.ModuleDoc
	for _, dep := range project.Dependencies {
		docs = append(docs, s.manifest.LoadDocs(dep)...)
	}
	return docs
}

// KnownModules lists every module name visible to the project owning
// fromURI: one per source file, plus every documented package module.
func (s *Server) KnownModules(fromURI string) []string {
	project, ok := s.projectFor(fromURI)
	if !ok {
		return nil
	}
	var modules []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			modules = append(modules, name)
		}
	}
	for _, dir := range project.SourceDirectories {
		base := dir
		_ = afero.Walk(s.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				s.log.Debug(errWalkSourceDir, "path", path, "error", err)
				return nil //nolint:nilerr
			}
			if info.IsDir() || filepath.Ext(path) != ".elm" {
				return nil
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return nil //nolint:nilerr
			}
			rel = strings.TrimSuffix(rel, ".elm")
			add(strings.ReplaceAll(rel, string(filepath.Separator), "."))
			return nil
		})
	}
	for _, dep := range project.Dependencies {
		for _, doc := range s.manifest.LoadDocs(dep) {
			add(doc.Name)
		}
	}
	return modules
}

func (s *Server) projectFor(uri string) (*manifest.Project, bool) {
	path, ok := manifest.URIToPath(uri)
	if !ok {
		return nil, false
	}
	return s.manifest.FindManifestFor(path)
}
