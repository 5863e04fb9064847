package migrate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/toothbrush/wp-migrate/wordpress"
	"github.com/toothbrush/wp-migrate/worksheet"
)

type site struct {
	mu      sync.Mutex
	pages   []wordpress.Page
	nextID  int
	creates []wordpress.CreatePageRequest
	updates []int
}

func newSite() *site {
	return &site{nextID: 100}
}

func (s *site) add(id, parent int, slug, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, wordpress.Page{
		ID:     id,
		Slug:   slug,
		Parent: parent,
		Link:   "https://new.example.edu/" + path + "/",
		Status: wordpress.StatusPublish,
	})
}

func (s *site) ListPages(ctx context.Context, q wordpress.ListPagesQuery) ([]wordpress.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []wordpress.Page{}
	for _, p := range s.pages {
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

func (s *site) CreatePage(ctx context.Context, req wordpress.CreatePageRequest) (*wordpress.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates = append(s.creates, req)
	s.nextID++

	path := req.Slug
	for _, p := range s.pages {
		if p.ID == req.Parent {
			path = wordpress.LinkPath(p.Link) + "/" + req.Slug
		}
	}
	p := wordpress.Page{
		ID:      s.nextID,
		Slug:    req.Slug,
		Parent:  req.Parent,
		Link:    "https://new.example.edu/" + path + "/",
		Status:  req.Status,
		Title:   wordpress.Rendered{Rendered: req.Title},
		Content: wordpress.Rendered{Rendered: req.Content},
	}
	s.pages = append(s.pages, p)
	return &p, nil
}

func (s *site) UpdatePage(ctx context.Context, id int, req wordpress.UpdatePageRequest) (*wordpress.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, id)
	for i, p := range s.pages {
		if p.ID == id {
			s.pages[i].Content.Rendered = req.Content
			updated := s.pages[i]
			return &updated, nil
		}
	}
	return nil, wordpress.ErrNotFound
}

func (s *site) createdSlugs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, c := range s.creates {
		out = append(out, c.Slug)
	}
	return out
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// oldSite serves a trivial page for any URL.
type oldSite struct {
	mu      sync.Mutex
	fetched []string
	broken  map[string]bool
}

func (o *oldSite) Fetch(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	o.mu.Lock()
	o.fetched = append(o.fetched, rawURL)
	broken := o.broken[rawURL]
	o.mu.Unlock()

	if broken {
		return nil, nil, fmt.Errorf("fetching %s: unexpected status 500", rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><main><h1>` + u.Path + `</h1><p>Migrated body</p></main></body></html>`))
	return doc, u, err
}

type memQueue struct {
	mu      sync.Mutex
	results []worksheet.Result
}

func (q *memQueue) Rows(ctx context.Context) ([]worksheet.Row, error) {
	return nil, nil
}

func (q *memQueue) Record(ctx context.Context, results ...worksheet.Result) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results = append(q.results, results...)
	return nil
}

type menus struct {
	mu    sync.Mutex
	items []wordpress.CreateMenuItemRequest
}

func (m *menus) CreateMenuItem(ctx context.Context, req wordpress.CreateMenuItemRequest) (*wordpress.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, req)
	return &wordpress.MenuItem{ID: len(m.items), ObjectID: req.ObjectID}, nil
}

func row(i int, source, action, destination string) worksheet.Row {
	return worksheet.Row{Index: i, Source: source, Action: action, Destination: destination}
}
