// Package astcache is an LRU cache of parsed modules keyed by URI. An entry
// is valid only for the exact document version it was parsed from; a newer
// version written for the same URI evicts the older one.
package astcache

import (
	"container/list"
	"sync"

	"github.com/elmtools/elmls/internal/ast"
)

// DefaultCapacity bounds the cache so a whole-workspace sweep cannot grow it
// without limit.
const DefaultCapacity = 50

type entry struct {
	uri     string
	version int
	module  *ast.Module
}

// Cache is an LRU of parsed modules. The zero value is not usable; construct
// with New.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[string]*list.Element
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		capacity: DefaultCapacity,
		order:    list.New(),
		entries:  map[string]*list.Element{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option provides a way to override default behavior of the Cache.
type Option func(*Cache)

// WithCapacity overrides the default capacity of the Cache.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		c.capacity = n
	}
}

// Get returns the cached module for uri if one exists at exactly the given
// version, bumping its LRU position on a hit.
func (c *Cache) Get(uri string, version int) (*ast.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[uri]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.version != version {
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.module, true
}

// Put stores the module for (uri, version), replacing any existing entry for
// the URI and evicting the least recently used entry when over capacity.
func (c *Cache) Put(uri string, version int, m *ast.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[uri]; ok {
		e := el.Value.(*entry)
		e.version = version
		e.module = m
		c.order.MoveToFront(el)
		return
	}
	c.entries[uri] = c.order.PushFront(&entry{uri: uri, version: version, module: m})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).uri)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
