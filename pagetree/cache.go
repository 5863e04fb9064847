package pagetree

import (
	"sync"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// Details is what we remember about a page we've seen.
type Details struct {
	Slug   string
	Parent int
	Link   string
}

type cacheKey struct {
	slug   string
	parent int
}

// Cache memoises (slug, parent) -> page ID and page ID -> Details for one migration run.  It is
// only ever written after the page was confirmed to exist remotely, or was just created.
// Entries are never evicted mid-run.
type Cache struct {
	mu     sync.Mutex
	bySlug map[cacheKey]int
	byID   map[int]Details
}

func NewCache() *Cache {
	return &Cache{
		bySlug: make(map[cacheKey]int),
		byID:   make(map[int]Details),
	}
}

func (c *Cache) Get(slug string, parentID int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.bySlug[cacheKey{slug, parentID}]
	return id, ok
}

func (c *Cache) Details(id int) (Details, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.byID[id]
	return d, ok
}

// Put upserts both indexes.  If the page was seen before under a different parent, the old
// (slug, parent) entry is dropped so a corrected parent wins.
func (c *Cache) Put(page wordpress.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.byID[page.ID]; ok && (prev.Parent != page.Parent || prev.Slug != page.Slug) {
		key := cacheKey{prev.Slug, prev.Parent}
		if c.bySlug[key] == page.ID {
			delete(c.bySlug, key)
		}
	}

	c.bySlug[cacheKey{page.Slug, page.Parent}] = page.ID
	c.byID[page.ID] = Details{
		Slug:   page.Slug,
		Parent: page.Parent,
		Link:   page.Link,
	}
}

// Alias records that looking up (slug, parentID) is answered by page id, even though the site
// has that page recorded under another parent.  Happens when link-path matching beats the
// parent field.
func (c *Cache) Alias(slug string, parentID int, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bySlug[cacheKey{slug, parentID}] = id
}

// maxDepth guards ResolveAncestryPath against parent cycles in a broken tree.
const maxDepth = 32

// ResolveAncestryPath walks parent links up from id and returns the slugs from the root down to
// id.  If any page on the way is unknown, the answer is absent: never a truncated path.
func (c *Cache) ResolveAncestryPath(id int) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := []string{}
	current := id
	for i := 0; i < maxDepth; i++ {
		d, ok := c.byID[current]
		if !ok {
			return nil, false
		}
		path = append([]string{d.Slug}, path...)
		if d.Parent == 0 {
			return path, true
		}
		current = d.Parent
	}

	return nil, false
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.byID)
}

// Clear forgets everything; call it at the end of a run.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bySlug = make(map[cacheKey]int)
	c.byID = make(map[int]Details)
}
