package main

import (
	"context"
	"fmt"
	"os"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/go-logr/logr/funcr"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/elmtools/elmls/internal/lsp"
	"github.com/elmtools/elmls/internal/lsp/handler"
	"github.com/elmtools/elmls/internal/lsp/server"
	"github.com/elmtools/elmls/internal/parseservice"
)

type serveCmd struct {
	Verbose   bool   `short:"v" help:"Emit debug logs to stderr."`
	Parser    string `default:"elm-parse" help:"Parser executable reading source on stdin and writing the module AST as JSON."`
	Compiler  string `default:"elm" help:"Compiler executable invoked for diagnostics."`
	Formatter string `default:"elm-format" help:"Formatter executable invoked for document formatting."`
}

// Run starts the language server on stdio and blocks until the client
// disconnects.
func (c *serveCmd) Run() error {
	log := logging.NewNopLogger()
	if c.Verbose {
		// Stdout carries the protocol; logs go to stderr.
		log = logging.NewLogrLogger(funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{Verbosity: 1}))
	}

	h, err := handler.New(&parseservice.ExecBackend{Path: c.Parser},
		handler.WithLogger(log),
		handler.WithServerOptions(
			server.WithCompilerPath(c.Compiler),
			server.WithFormatterPath(c.Formatter),
		),
	)
	if err != nil {
		return err
	}

	conn := jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(lsp.StdRWC{}, jsonrpc2.VSCodeObjectCodec{}),
		h,
	)
	<-conn.DisconnectNotify()
	return nil
}
