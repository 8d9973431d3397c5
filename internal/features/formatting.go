package features

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/pkg/errors"
	"github.com/sourcegraph/go-lsp"
)

const errRunFormatter = "formatter invocation failed"

// ErrToolMissing indicates the external formatter is not installed; the
// caller surfaces it to the user once per occurrence.
var ErrToolMissing = errors.New("formatter not found on PATH")

// Formatter pipes a document through the external formatter and replaces the
// whole document with the result.
type Formatter struct {
	path string
	log  logging.Logger
}

// NewFormatter returns a Formatter invoking the executable at path.
func NewFormatter(path string, opts ...FormatterOption) *Formatter {
	f := &Formatter{path: path, log: logging.NewNopLogger()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FormatterOption provides a way to override default behavior of the
// Formatter.
type FormatterOption func(*Formatter)

// WithFormatterLogger overrides the default logging.Logger for the
// Formatter.
func WithFormatterLogger(l logging.Logger) FormatterOption {
	return func(f *Formatter) {
		f.log = l
	}
}

// Format runs the formatter over text on stdin and returns a single edit
// covering the whole document.
func (f *Formatter) Format(ctx context.Context, text string) ([]lsp.TextEdit, error) {
	if _, err := exec.LookPath(f.path); err != nil {
		return nil, ErrToolMissing
	}

	cmd := exec.CommandContext(ctx, f.path, "--stdin") //nolint:gosec
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.log.Debug(errRunFormatter, "error", err, "stderr", stderr.String())
		return nil, errors.Wrap(err, errRunFormatter)
	}

	return []lsp.TextEdit{{
		Range:   wholeDocument(text),
		NewText: stdout.String(),
	}}, nil
}

// wholeDocument spans from the document start to one past the final line.
func wholeDocument(text string) lsp.Range {
	lines := strings.Count(text, "\n") + 1
	return lsp.Range{
		Start: lsp.Position{Line: 0, Character: 0},
		End:   lsp.Position{Line: lines, Character: 0},
	}
}
