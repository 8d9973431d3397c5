// Package manifest locates and reads a project's elm.json, resolves dotted
// module names to files across its source directories, and loads the
// pre-rendered documentation shipped with each direct package dependency.
package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

const (
	manifestName = "elm.json"
	docsName     = "docs.json"

	// EnvElmHome overrides the default documentation root.
	EnvElmHome = "ELM_HOME"

	errReadManifest   = "failed to read manifest"
	errParseManifest  = "failed to parse manifest"
	errParseDirect    = "failed to parse direct dependencies"
	errMalformedDep   = "malformed dependency name"
	errNoManifest     = "no manifest found in any ancestor directory"
	errResolveElmHome = "failed to resolve elm home"
)

// Project is a successfully parsed manifest plus the paths derived from it.
type Project struct {
	ProjectFolder     string
	ManifestPath      string
	ElmVersion        string
	SourceDirectories []string
	Dependencies      []Dependency
}

// Dependency is one direct package dependency, with the location of its
// pre-rendered documentation on disk.
type Dependency struct {
	User     string
	Name     string
	Version  string
	DocsPath string
}

// Resolver finds manifests for files and answers module and documentation
// lookups against them. The zero value is not usable; construct with New.
type Resolver struct {
	fs   afero.Fs
	log  logging.Logger
	home string

	mu       sync.Mutex
	projects map[string]*Project

	docsGroup singleflight.Group
	docsMu    sync.Mutex
	docs      map[string][]ModuleDoc
}

// New returns a Resolver reading manifests and docs from fs.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		fs:       afero.NewOsFs(),
		log:      logging.NewNopLogger(),
		projects: map[string]*Project{},
		docs:     map[string][]ModuleDoc{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Option provides a way to override default behavior of the Resolver.
type Option func(*Resolver)

// WithFS overrides the filesystem the Resolver reads from.
func WithFS(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithLogger overrides the default logging.Logger for the Resolver with the
// supplied logging.Logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// WithElmHome overrides the documentation root, taking precedence over the
// environment.
func WithElmHome(home string) Option {
	return func(r *Resolver) {
		r.home = home
	}
}

// FindManifestFor walks parent directories of filePath, inclusive, returning
// the project of the first elm.json whose contents parse successfully.
// Successful parses are cached by directory.
func (r *Resolver) FindManifestFor(filePath string) (*Project, bool) {
	dir := filepath.Dir(filePath)
	for {
		if p, ok := r.cached(dir); ok {
			return p, true
		}
		p, err := r.load(dir)
		if err == nil {
			r.cache(dir, p)
			return p, true
		}
		r.log.Debug(errNoManifest, "dir", dir, "error", err)
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

func (r *Resolver) cached(dir string) (*Project, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[dir]
	return p, ok
}

func (r *Resolver) cache(dir string, p *Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[dir] = p
}

// manifestFile is the on-disk shape of elm.json.
type manifestFile struct {
	Type              string          `json:"type"`
	SourceDirectories []string        `json:"source-directories"`
	ElmVersion        string          `json:"elm-version"`
	Dependencies      dependencyBlock `json:"dependencies"`
}

type dependencyBlock struct {
	Direct orderedDeps `json:"direct"`
}

// orderedDeps preserves the declaration order of the "direct" object, which
// encoding/json's map decoding would lose. Documentation lookups consult
// dependencies in this order, first hit wins.
type orderedDeps []orderedDep

type orderedDep struct {
	Name    string
	Version string
}

func (d *orderedDeps) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New(errParseDirect)
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		var version string
		if err := dec.Decode(&version); err != nil {
			return err
		}
		*d = append(*d, orderedDep{Name: key.(string), Version: version})
	}
	_, err = dec.Token()
	return err
}

func (r *Resolver) load(dir string) (*Project, error) {
	path := filepath.Join(dir, manifestName)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errors.Wrap(err, errReadManifest)
	}
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, errors.Wrap(err, errParseManifest)
	}

	p := &Project{
		ProjectFolder: dir,
		ManifestPath:  path,
		ElmVersion:    mf.ElmVersion,
	}
	for _, src := range mf.SourceDirectories {
		if !filepath.IsAbs(src) {
			src = filepath.Join(dir, src)
		}
		p.SourceDirectories = append(p.SourceDirectories, filepath.Clean(src))
	}

	home, err := r.elmHome()
	if err != nil {
		r.log.Debug(errResolveElmHome, "error", err)
	}
	for _, dep := range mf.Dependencies.Direct {
		user, name, found := strings.Cut(dep.Name, "/")
		if !found {
			r.log.Debug(errMalformedDep, "dependency", dep.Name)
			continue
		}
		d := Dependency{User: user, Name: name, Version: dep.Version}
		if home != "" {
			d.DocsPath = filepath.Join(home, mf.ElmVersion, "packages", user, name, dep.Version, docsName)
		}
		p.Dependencies = append(p.Dependencies, d)
	}
	return p, nil
}

// elmHome returns the documentation root: the explicit override, else the
// ELM_HOME environment variable, else ~/.elm, else the platform's roaming
// app-data directory under elm.
func (r *Resolver) elmHome() (string, error) {
	if r.home != "" {
		return r.home, nil
	}
	if env := os.Getenv(EnvElmHome); env != "" {
		return env, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".elm"), nil
	}
	roaming, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(roaming, "elm"), nil
}

// ResolveModuleToFile translates a dotted module name to a file path by
// probing each source directory in order. Package modules do not resolve to
// files, only to documentation records.
func (r *Resolver) ResolveModuleToFile(moduleName string, p *Project) (string, bool) {
	rel := strings.ReplaceAll(moduleName, ".", string(filepath.Separator)) + ".elm"
	for _, dir := range p.SourceDirectories {
		path := filepath.Join(dir, rel)
		if ok, err := afero.Exists(r.fs, path); err == nil && ok {
			return path, true
		}
	}
	return "", false
}
