package parseservice

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/elmtools/elmls/internal/ast"
)

const (
	errRunParser    = "failed to run parser backend"
	errDecodeParser = "failed to decode parser backend output"
)

// Backend is the opaque syntax parser the service serializes access to. It is
// an external collaborator: given source text it either returns a structured
// AST or an error, and the service translates every error into "no AST".
type Backend interface {
	Parse(ctx context.Context, source string) (*ast.Module, error)
}

// ExecBackend shells out to an external parser executable for every request.
// The executable reads source text on stdin and writes the module AST as a
// single JSON document on stdout. A fresh process per request means a crashed
// backend needs no explicit restart; the next request simply spawns again.
type ExecBackend struct {
	// Path is the parser executable to invoke.
	Path string
	// Args are passed to the executable before the source is piped in.
	Args []string
}

// Parse invokes the parser executable over source.
func (b *ExecBackend) Parse(ctx context.Context, source string) (*ast.Module, error) {
	cmd := exec.CommandContext(ctx, b.Path, b.Args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(source)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, errRunParser)
	}

	var m ast.Module
	if err := json.Unmarshal(stdout.Bytes(), &m); err != nil {
		return nil, errors.Wrap(err, errDecodeParser)
	}
	return &m, nil
}
