package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/elmtools/elmls/internal/ast"
	"github.com/elmtools/elmls/internal/lsp/server"
)

type nilBackend struct{}

func (nilBackend) Parse(context.Context, string) (*ast.Module, error) {
	return nil, errors.New("no parser in this test")
}

func request(t *testing.T, method string, params any, notif bool) *jsonrpc2.Request {
	t.Helper()
	r := &jsonrpc2.Request{Method: method, Notif: notif}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw := json.RawMessage(data)
		r.Params = &raw
	}
	return r
}

func newServer(t *testing.T, exited *int) *server.Server {
	t.Helper()
	s, err := server.New(nilBackend{}, server.WithExitFunc(func(code int) {
		if exited != nil {
			*exited = code
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func rpcCode(t *testing.T, err error) int64 {
	t.Helper()
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("want *jsonrpc2.Error, got %v", err)
	}
	return rpcErr.Code
}

func TestDispatchBeforeInitialize(t *testing.T) {
	d := New()
	s := newServer(t, nil)
	ctx := context.Background()

	// Requests are refused until initialize.
	_, err := d.Dispatch(ctx, s, nil, request(t, "textDocument/hover", map[string]any{}, false))
	if got := rpcCode(t, err); got != CodeServerNotInitialized {
		t.Errorf("request before initialize: want code %d, got %d", CodeServerNotInitialized, got)
	}

	// Notifications pass the gate and are simply handled or dropped.
	if _, err := d.Dispatch(ctx, s, nil, request(t, "textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": "file:///a.elm"}}, true)); err != nil {
		t.Errorf("notification before initialize: unexpected error %v", err)
	}
}

func TestDispatchInitialize(t *testing.T) {
	d := New()
	s := newServer(t, nil)
	ctx := context.Background()

	result, err := d.Dispatch(ctx, s, nil, request(t, "initialize", map[string]any{"rootUri": "file:///proj"}, false))
	if err != nil {
		t.Fatalf("initialize: unexpected error %v", err)
	}
	if result == nil {
		t.Fatal("initialize: want capabilities result")
	}
	if !s.Initialized() {
		t.Error("server should report initialized")
	}

	if _, err := d.Dispatch(ctx, s, nil, request(t, "initialized", nil, true)); err != nil {
		t.Errorf("initialized notification: unexpected error %v", err)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := New()
	s := newServer(t, nil)
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, s, nil, request(t, "initialize", map[string]any{}, false)); err != nil {
		t.Fatal(err)
	}
	_, err := d.Dispatch(ctx, s, nil, request(t, "workspace/executeCommand", map[string]any{}, false))
	if got := rpcCode(t, err); got != jsonrpc2.CodeMethodNotFound {
		t.Errorf("unknown method: want code %d, got %d", jsonrpc2.CodeMethodNotFound, got)
	}

	// Unknown notifications are dropped silently.
	if _, err := d.Dispatch(ctx, s, nil, request(t, "$/cancelRequest", map[string]any{}, true)); err != nil {
		t.Errorf("unknown notification: unexpected error %v", err)
	}
}

func TestDispatchShutdownExit(t *testing.T) {
	d := New()
	ctx := context.Background()

	t.Run("CleanExit", func(t *testing.T) {
		code := -1
		s := newServer(t, &code)
		if _, err := d.Dispatch(ctx, s, nil, request(t, "initialize", map[string]any{}, false)); err != nil {
			t.Fatal(err)
		}
		if _, err := d.Dispatch(ctx, s, nil, request(t, "shutdown", nil, false)); err != nil {
			t.Fatalf("shutdown: unexpected error %v", err)
		}
		if _, err := d.Dispatch(ctx, s, nil, request(t, "exit", nil, true)); err != nil {
			t.Fatal(err)
		}
		if code != 0 {
			t.Errorf("exit after shutdown: want code 0, got %d", code)
		}
	})

	t.Run("DirtyExit", func(t *testing.T) {
		code := -1
		s := newServer(t, &code)
		if _, err := d.Dispatch(ctx, s, nil, request(t, "initialize", map[string]any{}, false)); err != nil {
			t.Fatal(err)
		}
		if _, err := d.Dispatch(ctx, s, nil, request(t, "exit", nil, true)); err != nil {
			t.Fatal(err)
		}
		if code != 1 {
			t.Errorf("exit without shutdown: want code 1, got %d", code)
		}
	})
}
