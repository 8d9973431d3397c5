// Package dispatcher routes JSON-RPC requests to the appropriate server
// method, owning the wire-level error taxonomy: not-initialized, unknown
// method, and malformed parameters.
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/elmtools/elmls/internal/refs"
)

// CodeServerNotInitialized is returned for any request arriving before
// initialize.
const CodeServerNotInitialized = -32002

const errParseParameters = "failed to parse request parameters"

// Server defines the set of LSP methods we currently support.
type Server interface {
	Initialize(ctx context.Context, conn *jsonrpc2.Conn, params *lsp.InitializeParams) (any, error)
	Initialized() bool
	Shutdown(ctx context.Context) (any, error)
	Exit(ctx context.Context)

	DidOpen(ctx context.Context, params *lsp.DidOpenTextDocumentParams)
	DidChange(ctx context.Context, params *lsp.DidChangeTextDocumentParams)
	DidClose(ctx context.Context, params *lsp.DidCloseTextDocumentParams)
	DidSave(ctx context.Context, params *lsp.DidSaveTextDocumentParams)

	DocumentSymbol(ctx context.Context, params *lsp.DocumentSymbolParams) ([]lsp.SymbolInformation, error)
	Definition(ctx context.Context, params *lsp.TextDocumentPositionParams) ([]lsp.Location, error)
	Hover(ctx context.Context, params *lsp.TextDocumentPositionParams) (*lsp.Hover, error)
	Completion(ctx context.Context, params *lsp.CompletionParams) (*lsp.CompletionList, error)
	References(ctx context.Context, params *lsp.ReferenceParams) ([]lsp.Location, error)
	PrepareRename(ctx context.Context, params *lsp.TextDocumentPositionParams) (*refs.PrepareRenameResult, error)
	Rename(ctx context.Context, params *lsp.RenameParams) (*lsp.WorkspaceEdit, error)
	WorkspaceSymbol(ctx context.Context, params *lsp.WorkspaceSymbolParams) ([]lsp.SymbolInformation, error)
	Formatting(ctx context.Context, params *lsp.DocumentFormattingParams) ([]lsp.TextEdit, error)
}

// Dispatcher is responsible for routing JSON-RPC request events to the
// appropriate place.
type Dispatcher struct {
	log logging.Logger
}

// New returns a new Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log: logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Option provides a way to override default behavior of the Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the default logging.Logger for the Dispatcher with
// the supplied logging.Logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// Dispatch routes r to the matching server method and returns its result.
// Notifications return (nil, nil); the caller must not reply to them.
func (d *Dispatcher) Dispatch(ctx context.Context, server Server, conn *jsonrpc2.Conn, r *jsonrpc2.Request) (any, error) { //nolint:gocyclo
	if !server.Initialized() && !r.Notif && r.Method != "initialize" {
		return nil, &jsonrpc2.Error{Code: CodeServerNotInitialized, Message: "server not initialized"}
	}

	switch r.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Initialize(ctx, conn, &params)
	case "initialized":
		// NOTE: no work to do when the client reports initialized.
		return nil, nil
	case "shutdown":
		return server.Shutdown(ctx)
	case "exit":
		server.Exit(ctx)
		return nil, nil
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		server.DidOpen(ctx, &params)
		return nil, nil
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		server.DidChange(ctx, &params)
		return nil, nil
	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		server.DidClose(ctx, &params)
		return nil, nil
	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		server.DidSave(ctx, &params)
		return nil, nil
	case "textDocument/documentSymbol":
		var params lsp.DocumentSymbolParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.DocumentSymbol(ctx, &params)
	case "textDocument/definition":
		var params lsp.TextDocumentPositionParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Definition(ctx, &params)
	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Hover(ctx, &params)
	case "textDocument/completion":
		var params lsp.CompletionParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Completion(ctx, &params)
	case "textDocument/references":
		var params lsp.ReferenceParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.References(ctx, &params)
	case "textDocument/prepareRename":
		var params lsp.TextDocumentPositionParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.PrepareRename(ctx, &params)
	case "textDocument/rename":
		var params lsp.RenameParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Rename(ctx, &params)
	case "workspace/symbol":
		var params lsp.WorkspaceSymbolParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.WorkspaceSymbol(ctx, &params)
	case "textDocument/formatting":
		var params lsp.DocumentFormattingParams
		if err := d.unmarshal(r, &params); err != nil {
			return nil, err
		}
		return server.Formatting(ctx, &params)
	default:
		if r.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + r.Method}
	}
}

func (d *Dispatcher) unmarshal(r *jsonrpc2.Request, into any) error {
	if r.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: errParseParameters}
	}
	if err := json.Unmarshal(*r.Params, into); err != nil {
		d.log.Debug(errParseParameters, "method", r.Method, "error", err)
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: errParseParameters}
	}
	return nil
}
