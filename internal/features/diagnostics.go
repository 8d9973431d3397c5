package features

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"

	"github.com/elmtools/elmls/internal/manifest"
)

// DefaultDebounce is how long a URI's diagnostics run is delayed so rapid
// saves collapse into one compile.
const DefaultDebounce = 300 * time.Millisecond

const (
	missingToolMsgFmt = "%s was not found on PATH. Diagnostics are disabled until it is installed."

	errNoProject   = "no project for diagnostics"
	errRunCompiler = "compiler invocation failed without a report"
)

// Publisher is the server-side surface diagnostics are delivered through.
type Publisher interface {
	PublishDiagnostics(ctx context.Context, params *lsp.PublishDiagnosticsParams)
	ShowMessage(ctx context.Context, params *lsp.ShowMessageParams)
}

// Diagnostics invokes the external compiler with a JSON report and publishes
// each reported problem on its own file.
type Diagnostics struct {
	compiler  string
	debounce  time.Duration
	manifest  *manifest.Resolver
	publisher Publisher
	log       logging.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDiagnostics returns a Diagnostics runner invoking compiler.
func NewDiagnostics(compiler string, m *manifest.Resolver, p Publisher, opts ...DiagnosticsOption) *Diagnostics {
	d := &Diagnostics{
		compiler:  compiler,
		debounce:  DefaultDebounce,
		manifest:  m,
		publisher: p,
		log:       logging.NewNopLogger(),
		timers:    map[string]*time.Timer{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// DiagnosticsOption provides a way to override default behavior of the
// Diagnostics runner.
type DiagnosticsOption func(*Diagnostics)

// WithDiagnosticsLogger overrides the default logging.Logger for the
// Diagnostics runner.
func WithDiagnosticsLogger(l logging.Logger) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.log = l
	}
}

// WithDebounce overrides the per-URI debounce interval.
func WithDebounce(interval time.Duration) DiagnosticsOption {
	return func(d *Diagnostics) {
		d.debounce = interval
	}
}

// Run schedules a debounced diagnostics pass for uri. A run already pending
// for the same URI is pushed back instead of doubled.
func (d *Diagnostics) Run(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[uri]; ok {
		timer.Reset(d.debounce)
		return
	}
	d.timers[uri] = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		delete(d.timers, uri)
		d.mu.Unlock()
		d.check(context.Background(), uri)
	})
}

func (d *Diagnostics) check(ctx context.Context, uri string) {
	path, ok := manifest.URIToPath(uri)
	if !ok {
		return
	}
	project, ok := d.manifest.FindManifestFor(path)
	if !ok {
		d.log.Debug(errNoProject, "uri", uri)
		return
	}

	if _, err := exec.LookPath(d.compiler); err != nil {
		d.publisher.ShowMessage(ctx, &lsp.ShowMessageParams{
			Type:    lsp.MTWarning,
			Message: fmt.Sprintf(missingToolMsgFmt, d.compiler),
		})
		return
	}

	cmd := exec.CommandContext(ctx, d.compiler, "make", path, "--report=json", "--output=/dev/null") //nolint:gosec
	cmd.Dir = project.ProjectFolder
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		// Clean compile: clear whatever was previously published for the
		// saved file.
		d.publisher.PublishDiagnostics(ctx, &lsp.PublishDiagnosticsParams{
			URI:         lsp.DocumentURI(uri),
			Diagnostics: []lsp.Diagnostic{},
		})
		return
	}

	byFile, ok := parseReport(stderr.Bytes(), project.ProjectFolder)
	if !ok {
		// Non-zero exit without a JSON report: clear the saved URI only.
		d.log.Debug(errRunCompiler, "error", err, "stderr", stderr.String())
		d.publisher.PublishDiagnostics(ctx, &lsp.PublishDiagnosticsParams{
			URI:         lsp.DocumentURI(uri),
			Diagnostics: []lsp.Diagnostic{},
		})
		return
	}

	if _, mentioned := byFile[path]; !mentioned {
		byFile[path] = []lsp.Diagnostic{}
	}
	for file, diags := range byFile {
		d.publisher.PublishDiagnostics(ctx, &lsp.PublishDiagnosticsParams{
			URI:         lsp.DocumentURI(manifest.PathToURI(file)),
			Diagnostics: diags,
		})
	}
}

// report is the compiler's JSON error format: either per-file compile errors
// or one global error.
type report struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Title  string `json:"title"`
	Errors []struct {
		Path     string `json:"path"`
		Problems []struct {
			Title  string `json:"title"`
			Region struct {
				Start reportPos `json:"start"`
				End   reportPos `json:"end"`
			} `json:"region"`
			Message []messagePart `json:"message"`
		} `json:"problems"`
	} `json:"errors"`
	Message []messagePart `json:"message"`
}

type reportPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// messagePart is either a bare string or a styled {"string": ...} object.
type messagePart struct {
	Text string
}

func (p *messagePart) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.Text); err == nil {
		return nil
	}
	var styled struct {
		String string `json:"string"`
	}
	if err := json.Unmarshal(data, &styled); err != nil {
		return err
	}
	p.Text = styled.String
	return nil
}

func renderMessage(title string, parts []messagePart) string {
	var b bytes.Buffer
	b.WriteString(title)
	if len(parts) > 0 {
		b.WriteString("\n")
	}
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// parseReport maps a JSON report to diagnostics keyed by absolute file path.
func parseReport(data []byte, projectFolder string) (map[string][]lsp.Diagnostic, bool) {
	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	byFile := map[string][]lsp.Diagnostic{}
	switch r.Type {
	case "compile-errors":
		for _, e := range r.Errors {
			file := absolutePath(e.Path, projectFolder)
			if _, mentioned := byFile[file]; !mentioned {
				byFile[file] = []lsp.Diagnostic{}
			}
			for _, p := range e.Problems {
				byFile[file] = append(byFile[file], lsp.Diagnostic{
					Range: lsp.Range{
						Start: lsp.Position{Line: p.Region.Start.Line - 1, Character: p.Region.Start.Column - 1},
						End:   lsp.Position{Line: p.Region.End.Line - 1, Character: p.Region.End.Column - 1},
					},
					Severity: lsp.Error,
					Source:   "elm",
					Message:  renderMessage(p.Title, p.Message),
				})
			}
		}
	case "error":
		file := absolutePath(r.Path, projectFolder)
		if file == "" {
			return nil, false
		}
		byFile[file] = []lsp.Diagnostic{{
			Range:    lsp.Range{Start: lsp.Position{}, End: lsp.Position{Line: 1}},
			Severity: lsp.Error,
			Source:   "elm",
			Message:  renderMessage(r.Title, r.Message),
		}}
	default:
		return nil, false
	}
	return byFile, true
}

func absolutePath(path, projectFolder string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(projectFolder, path)
}
