package manifest

import (
	"encoding/json"

	"github.com/spf13/afero"
)

const (
	errReadDocs   = "failed to read package docs"
	errDecodeDocs = "failed to decode package docs"
)

// ModuleDoc is one module's entry in a package's pre-rendered docs.json.
type ModuleDoc struct {
	Name    string     `json:"name"`
	Comment string     `json:"comment"`
	Unions  []UnionDoc `json:"unions"`
	Aliases []AliasDoc `json:"aliases"`
	Values  []ValueDoc `json:"values"`
	Binops  []ValueDoc `json:"binops"`
}

// UnionDoc documents a custom type and its constructors.
type UnionDoc struct {
	Name    string      `json:"name"`
	Comment string      `json:"comment"`
	Args    []string    `json:"args"`
	Cases   []UnionCase `json:"cases"`
}

// UnionCase is one constructor of a documented custom type. On the wire it is
// a two-element array: the constructor name and its argument types.
type UnionCase struct {
	Name string
	Args []string
}

// UnmarshalJSON decodes the ["Ctor", ["argType", ...]] pair shape.
func (c *UnionCase) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &c.Name); err != nil {
			return err
		}
	}
	if len(pair) > 1 {
		if err := json.Unmarshal(pair[1], &c.Args); err != nil {
			return err
		}
	}
	return nil
}

// AliasDoc documents a type alias.
type AliasDoc struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment"`
	Args    []string `json:"args"`
	Type    string   `json:"type"`
}

// ValueDoc documents a value or binop, with its rendered type.
type ValueDoc struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Type    string `json:"type"`
}

// LoadDocs reads and decodes the documentation list cached on disk for dep.
// Any I/O or decode failure yields an empty list. Results are memoized
// per-process by docs path, and concurrent loads of the same path collapse
// into one read.
func (r *Resolver) LoadDocs(dep Dependency) []ModuleDoc {
	if dep.DocsPath == "" {
		return nil
	}
	r.docsMu.Lock()
	if docs, ok := r.docs[dep.DocsPath]; ok {
		r.docsMu.Unlock()
		return docs
	}
	r.docsMu.Unlock()

	loaded, _, _ := r.docsGroup.Do(dep.DocsPath, func() (any, error) {
		docs := r.readDocs(dep.DocsPath)
		r.docsMu.Lock()
		r.docs[dep.DocsPath] = docs
		r.docsMu.Unlock()
		return docs, nil
	})
	return loaded.([]ModuleDoc)
}

func (r *Resolver) readDocs(path string) []ModuleDoc {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		r.log.Debug(errReadDocs, "path", path, "error", err)
		return []ModuleDoc{}
	}
	var docs []ModuleDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		r.log.Debug(errDecodeDocs, "path", path, "error", err)
		return []ModuleDoc{}
	}
	return docs
}
