// Package handler adapts the dispatcher to the jsonrpc2 connection: it
// replies to requests, swallows notification errors, and converts handler
// panics into internal-error responses so no request can take the server
// down.
package handler

import (
	"context"
	"fmt"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/elmtools/elmls/internal/lsp/dispatcher"
	"github.com/elmtools/elmls/internal/lsp/server"
	"github.com/elmtools/elmls/internal/parseservice"
)

const (
	errHandlerPanic = "request handler panicked"
	errReply        = "failed to reply"
)

// A Handler handles LSP requests.
type Handler struct {
	log        logging.Logger
	dispatcher *dispatcher.Dispatcher
	server     *server.Server
}

// New constructs a new LSP handler parsing through backend.
func New(backend parseservice.Backend, opts ...Option) (*Handler, error) {
	h := &Handler{
		log: logging.NewNopLogger(),
	}

	serverOpts := &options{}
	for _, o := range opts {
		o(h, serverOpts)
	}

	srv, err := server.New(backend, append([]server.Option{server.WithLogger(h.log)}, serverOpts.server...)...)
	if err != nil {
		return nil, err
	}
	h.server = srv
	h.dispatcher = dispatcher.New(dispatcher.WithLogger(h.log))

	return h, nil
}

type options struct {
	server []server.Option
}

// Option modifies a handler.
type Option func(*Handler, *options)

// WithLogger sets the logger for the handler.
func WithLogger(l logging.Logger) Option {
	return func(h *Handler, _ *options) {
		h.log = l
	}
}

// WithServerOptions passes options through to the underlying server.
func WithServerOptions(opts ...server.Option) Option {
	return func(_ *Handler, o *options) {
		o.server = append(o.server, opts...)
	}
}

// Handle handles LSP requests.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	result, err := h.dispatch(ctx, conn, r)
	if r.Notif {
		// Notifications swallow errors; they have nowhere to surface.
		if err != nil {
			h.log.Debug(err.Error(), "method", r.Method)
		}
		return
	}
	if err != nil {
		rpcErr := &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
		if known, ok := err.(*jsonrpc2.Error); ok { //nolint:errorlint
			rpcErr = known
		}
		if replyErr := conn.ReplyWithError(ctx, r.ID, rpcErr); replyErr != nil {
			h.log.Debug(errReply, "method", r.Method, "error", replyErr)
		}
		return
	}
	if replyErr := conn.Reply(ctx, r.ID, result); replyErr != nil {
		h.log.Debug(errReply, "method", r.Method, "error", replyErr)
	}
}

// dispatch runs the dispatcher under a panic guard.
func (h *Handler) dispatch(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			h.log.Info(errHandlerPanic, "method", r.Method, "panic", recovered)
			result = nil
			err = fmt.Errorf("%s: %v", errHandlerPanic, recovered)
		}
	}()
	return h.dispatcher.Dispatch(ctx, h.server, conn, r)
}
