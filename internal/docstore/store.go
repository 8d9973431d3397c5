// Package docstore holds the in-memory set of documents the editor currently
// has open, keyed by URI. The latest version received over the wire is
// authoritative.
package docstore

import "sync"

// Document is one open text document.
type Document struct {
	URI     string
	Text    string
	Version int
}

// Store maps URIs to open documents.
type Store struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: map[string]Document{}}
}

// Open records a newly opened document.
func (s *Store) Open(uri, text string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = Document{URI: uri, Text: text, Version: version}
}

// Change replaces the document's text with the full new content and adopts
// the version number received over the wire.
func (s *Store) Change(uri, text string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = Document{URI: uri, Text: text, Version: version}
}

// Close removes the document. Caches keyed by (uri, version) are not
// invalidated; their stale entries simply become unreachable.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get returns the document for uri, if open.
func (s *Store) Get(uri string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

// All returns every open document, in no particular order.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		all = append(all, d)
	}
	return all
}
