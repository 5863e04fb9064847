package pagetree

import (
	"context"
	"sync"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// fakeDir is an in-memory site.  Permalinks are derived from the parent chain at creation time,
// the way WordPress does it.
type fakeDir struct {
	mu      sync.Mutex
	pages   []wordpress.Page
	nextID  int
	lists   []wordpress.ListPagesQuery
	creates []wordpress.CreatePageRequest
	updates []int

	listErr error
	// slug the site hands back instead of the requested one
	renames map[string]string
}

func newFakeDir() *fakeDir {
	return &fakeDir{nextID: 100, renames: map[string]string{}}
}

func (f *fakeDir) add(id, parent int, slug, path string) wordpress.Page {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := wordpress.Page{
		ID:     id,
		Slug:   slug,
		Parent: parent,
		Link:   "https://example.com/" + path + "/",
		Status: wordpress.StatusPublish,
		Title:  wordpress.Rendered{Rendered: TitleCase(slug)},
	}
	if p.Trashed() {
		p.Status = "trash"
	}
	f.pages = append(f.pages, p)
	return p
}

func (f *fakeDir) ListPages(ctx context.Context, q wordpress.ListPagesQuery) ([]wordpress.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lists = append(f.lists, q)
	if f.listErr != nil {
		return nil, f.listErr
	}

	out := []wordpress.Page{}
	for _, p := range f.pages {
		if len(q.Slug) > 0 && !contains(q.Slug, p.Slug) {
			continue
		}
		if q.Parent != nil && *q.Parent != p.Parent {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeDir) CreatePage(ctx context.Context, req wordpress.CreatePageRequest) (*wordpress.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates = append(f.creates, req)
	f.nextID++

	slug := req.Slug
	if renamed, ok := f.renames[slug]; ok {
		slug = renamed
	}

	path := slug
	for _, p := range f.pages {
		if p.ID == req.Parent {
			path = wordpress.LinkPath(p.Link) + "/" + slug
		}
	}

	p := wordpress.Page{
		ID:      f.nextID,
		Slug:    slug,
		Parent:  req.Parent,
		Link:    "https://example.com/" + path + "/",
		Status:  req.Status,
		Title:   wordpress.Rendered{Rendered: req.Title},
		Content: wordpress.Rendered{Rendered: req.Content},
	}
	f.pages = append(f.pages, p)
	return &p, nil
}

func (f *fakeDir) UpdatePage(ctx context.Context, id int, req wordpress.UpdatePageRequest) (*wordpress.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, id)
	for i, p := range f.pages {
		if p.ID != id {
			continue
		}
		if req.Title != "" {
			f.pages[i].Title.Rendered = req.Title
		}
		if req.Content != "" {
			f.pages[i].Content.Rendered = req.Content
		}
		updated := f.pages[i]
		return &updated, nil
	}
	return nil, wordpress.ErrNotFound
}

func (f *fakeDir) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

// listedSlug reports whether any list call asked for slug.
func (f *fakeDir) listedSlug(slug string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.lists {
		if contains(q.Slug, slug) {
			return true
		}
	}
	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type tree struct {
	dir      *fakeDir
	cache    *Cache
	resolver *Resolver
	creator  *Creator
	builder  *Builder
}

func newTree(dir *fakeDir) *tree {
	cache := NewCache()
	resolver := NewResolver(dir, cache, nil)
	creator := NewCreator(dir, cache, resolver, 0, nil)
	return &tree{
		dir:      dir,
		cache:    cache,
		resolver: resolver,
		creator:  creator,
		builder:  NewBuilder(cache, resolver, creator, nil),
	}
}
