// Package symbolindex answers workspace/symbol queries. Extraction is
// regex-over-raw-text rather than AST-based so a whole project can be
// indexed in one pass, with a single-slot cache invalidated five seconds
// after it is populated.
package symbolindex

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sahilm/fuzzy"
	"github.com/sourcegraph/go-lsp"
	"github.com/spf13/afero"

	"github.com/elmtools/elmls/internal/lsp/protocol"
	"github.com/elmtools/elmls/internal/manifest"
)

// DefaultTTL is how long a built index stays valid.
const DefaultTTL = 5 * time.Second

const errWalkSources = "failed to walk source directory"

var (
	typeAliasRe = regexp.MustCompile(`^type alias ([A-Z][A-Za-z0-9_]*)`)
	typeRe      = regexp.MustCompile(`^type ([A-Z][A-Za-z0-9_]*)`)
	portRe      = regexp.MustCompile(`^port ([a-z][A-Za-z0-9_]*)`)
	functionRe  = regexp.MustCompile(`^([a-z][A-Za-z0-9_]*)[ :=]`)
)

// reserved are the keywords a lowercase line start can never be a function.
var reserved = map[string]bool{
	"module": true, "import": true, "exposing": true, "as": true,
	"if": true, "then": true, "else": true, "case": true, "of": true,
	"let": true, "in": true, "type": true, "alias": true, "port": true,
	"where": true,
}

// Index is the workspace symbol search. The zero value is not usable;
// construct with New.
type Index struct {
	fs  afero.Fs
	log logging.Logger
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	slot *cacheSlot
}

type cacheSlot struct {
	projectFolder string
	builtAt       time.Time
	symbols       []lsp.SymbolInformation
}

// New returns an Index reading sources from the operating system filesystem.
func New(opts ...Option) *Index {
	i := &Index{
		fs:  afero.NewOsFs(),
		log: logging.NewNopLogger(),
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Option provides a way to override default behavior of the Index.
type Option func(*Index)

// WithFS overrides the filesystem the Index reads from.
func WithFS(fs afero.Fs) Option {
	return func(i *Index) {
		i.fs = fs
	}
}

// WithLogger overrides the default logging.Logger for the Index.
func WithLogger(l logging.Logger) Option {
	return func(i *Index) {
		i.log = l
	}
}

// WithTTL overrides the cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(i *Index) {
		i.ttl = ttl
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		i.now = now
	}
}

// Search returns the project's symbols matching query: every symbol for the
// empty query, case-insensitive subsequence matches otherwise.
func (i *Index) Search(query string, project *manifest.Project) []lsp.SymbolInformation {
	symbols := i.projectSymbols(project)
	if query == "" {
		return symbols
	}
	names := make([]string, len(symbols))
	for n, s := range symbols {
		names[n] = s.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]lsp.SymbolInformation, 0, len(matches))
	for _, match := range matches {
		out = append(out, symbols[match.Index])
	}
	return out
}

func (i *Index) projectSymbols(project *manifest.Project) []lsp.SymbolInformation {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.slot != nil && i.slot.projectFolder == project.ProjectFolder &&
		i.now().Sub(i.slot.builtAt) < i.ttl {
		return i.slot.symbols
	}
	symbols := i.build(project)
	i.slot = &cacheSlot{
		projectFolder: project.ProjectFolder,
		builtAt:       i.now(),
		symbols:       symbols,
	}
	return symbols
}

func (i *Index) build(project *manifest.Project) []lsp.SymbolInformation {
	var symbols []lsp.SymbolInformation
	for _, dir := range project.SourceDirectories {
		err := afero.Walk(i.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				i.log.Debug(errWalkSources, "path", path, "error", err)
				return nil //nolint:nilerr
			}
			if info.IsDir() || filepath.Ext(path) != ".elm" {
				return nil
			}
			symbols = append(symbols, i.fileSymbols(path)...)
			return nil
		})
		if err != nil {
			i.log.Debug(errWalkSources, "dir", dir, "error", err)
		}
	}
	return symbols
}

// fileSymbols extracts symbols from one file's raw text. Within a file,
// duplicate names are emitted once, first occurrence wins.
func (i *Index) fileSymbols(path string) []lsp.SymbolInformation {
	f, err := i.fs.Open(path)
	if err != nil {
		i.log.Debug(errWalkSources, "path", path, "error", err)
		return nil
	}
	defer f.Close() //nolint:errcheck

	uri := lsp.DocumentURI(manifest.PathToURI(path))
	var symbols []lsp.SymbolInformation
	emitted := map[string]bool{}

	scanner := bufio.NewScanner(f)
	for line := 0; scanner.Scan(); line++ {
		text := scanner.Text()
		name, kind, col, ok := matchLine(text)
		if !ok || emitted[name] {
			continue
		}
		emitted[name] = true
		symbols = append(symbols, lsp.SymbolInformation{
			Name: name,
			Kind: kind,
			Location: lsp.Location{
				URI: uri,
				Range: lsp.Range{
					Start: lsp.Position{Line: line, Character: col},
					End:   lsp.Position{Line: line, Character: col + len(name)},
				},
			},
		})
	}
	return symbols
}

func matchLine(text string) (string, lsp.SymbolKind, int, bool) {
	if m := typeAliasRe.FindStringSubmatch(text); m != nil {
		return m[1], protocol.SKObject, len("type alias "), true
	}
	if m := typeRe.FindStringSubmatch(text); m != nil {
		return m[1], lsp.SKEnum, len("type "), true
	}
	if m := portRe.FindStringSubmatch(text); m != nil {
		return m[1], lsp.SKFunction, len("port "), true
	}
	if m := functionRe.FindStringSubmatch(text); m != nil && !reserved[m[1]] {
		return m[1], lsp.SKFunction, 0, true
	}
	// A one-word line is a function only when nothing follows the name.
	word := strings.TrimSpace(text)
	if word == text && word != "" && !reserved[word] &&
		word[0] >= 'a' && word[0] <= 'z' && isIdentifier(word) {
		return word, lsp.SKFunction, 0, true
	}
	return "", 0, 0, false
}

func isIdentifier(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
