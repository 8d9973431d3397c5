package astcache

import (
	"fmt"
	"testing"

	"github.com/elmtools/elmls/internal/ast"
)

func mod(name string) *ast.Module {
	return &ast.Module{Header: ast.ModuleHeader{ModuleName: name}}
}

func TestGet(t *testing.T) {
	cases := map[string]struct {
		reason  string
		seed    func(*Cache)
		uri     string
		version int
		want    bool
	}{
		"Miss": {
			reason: "Should miss on a URI never stored.",
			seed:   func(*Cache) {},
			uri:    "file:///a.elm",
			want:   false,
		},
		"Hit": {
			reason: "Should hit when URI and version both match.",
			seed: func(c *Cache) {
				c.Put("file:///a.elm", 3, mod("A"))
			},
			uri:     "file:///a.elm",
			version: 3,
			want:    true,
		},
		"VersionMismatch": {
			reason: "Should miss when the cached version differs from the requested one.",
			seed: func(c *Cache) {
				c.Put("file:///a.elm", 3, mod("A"))
			},
			uri:     "file:///a.elm",
			version: 4,
			want:    false,
		},
		"NewerVersionReplaces": {
			reason: "Put for an existing URI should replace the old version outright.",
			seed: func(c *Cache) {
				c.Put("file:///a.elm", 3, mod("A"))
				c.Put("file:///a.elm", 4, mod("A"))
			},
			uri:     "file:///a.elm",
			version: 3,
			want:    false,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := New()
			tc.seed(c)
			if _, got := c.Get(tc.uri, tc.version); got != tc.want {
				t.Errorf("\n%s\nGet(%q, %d): want hit %t, got %t", tc.reason, tc.uri, tc.version, tc.want, got)
			}
		})
	}
}

// TestEviction fills the cache one past capacity and checks that exactly the
// least recently used entry was dropped.
func TestEviction(t *testing.T) {
	c := New()
	for i := 0; i < DefaultCapacity; i++ {
		c.Put(fmt.Sprintf("file:///m%d.elm", i), 1, mod("M"))
	}

	// Touch the oldest entry so m1 becomes the LRU instead.
	if _, ok := c.Get("file:///m0.elm", 1); !ok {
		t.Fatal("expected m0 to still be cached")
	}

	c.Put("file:///extra.elm", 1, mod("Extra"))

	if got := c.Len(); got != DefaultCapacity {
		t.Errorf("Len(): want %d, got %d", DefaultCapacity, got)
	}
	if _, ok := c.Get("file:///m1.elm", 1); ok {
		t.Error("expected least recently used entry m1 to be evicted")
	}
	if _, ok := c.Get("file:///m0.elm", 1); !ok {
		t.Error("expected recently read entry m0 to survive eviction")
	}
	if _, ok := c.Get("file:///extra.elm", 1); !ok {
		t.Error("expected newest entry to be cached")
	}
}
