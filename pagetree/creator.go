package pagetree

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// LeafContent is the migrated page itself, as opposed to a placeholder hierarchy level.
type LeafContent struct {
	Title   string
	Content string
	Status  string
}

// Creator makes pages that don't exist yet.  Every create is preceded by an existence check
// through the shared cache, and concurrent requests for the same (slug, parent) share a single
// in-flight creation, so a run creates each (slug, parent) at most once.
type Creator struct {
	Dir      Directory
	Cache    *Cache
	Resolver *Resolver

	// Flat pause before every mutating call, as a courtesy to the site.
	CreateDelay time.Duration

	Logger *log.Logger

	group   singleflight.Group
	created atomic.Int64

	// swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCreator(dir Directory, cache *Cache, resolver *Resolver, delay time.Duration, logger *log.Logger) *Creator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Creator{
		Dir:         dir,
		Cache:       cache,
		Resolver:    resolver,
		CreateDelay: delay,
		Logger:      logger,
		sleep:       sleepContext,
	}
}

type createResult struct {
	page    wordpress.Page
	created bool
}

// CreateIfAbsent returns the page (slug, parentID), creating it if needed.  A nil leaf means a
// hierarchy placeholder: title derived from the slug, placeholder paragraph, published.
//
// created is true when this call, or a concurrent call it joined, made the page.
func (c *Creator) CreateIfAbsent(ctx context.Context, slug string, parentID int, leaf *LeafContent) (wordpress.Page, bool, error) {
	clean := SanitizeSlug(slug)
	if clean == "" {
		return wordpress.Page{}, false, fmt.Errorf("pagetree: refusing to create page with empty slug %q", slug)
	}

	key := fmt.Sprintf("%d/%s", parentID, clean)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.createIfAbsent(ctx, clean, parentID, leaf)
	})
	if err != nil {
		return wordpress.Page{}, false, err
	}

	res := v.(createResult)
	return res.page, res.created, nil
}

func (c *Creator) createIfAbsent(ctx context.Context, slug string, parentID int, leaf *LeafContent) (createResult, error) {
	if id, ok := c.Cache.Get(slug, parentID); ok {
		d, _ := c.Cache.Details(id)
		return createResult{page: wordpress.Page{ID: id, Slug: d.Slug, Parent: d.Parent, Link: d.Link}}, nil
	}

	existing, ok, err := c.Resolver.FindBySlug(ctx, slug, parentID)
	if err != nil {
		return createResult{}, err
	}
	if ok {
		c.Cache.Put(existing)
		return createResult{page: existing}, nil
	}

	req := wordpress.CreatePageRequest{
		Title:  TitleCase(slug),
		Slug:   slug,
		Parent: parentID,
		Status: wordpress.StatusPublish,
	}
	if leaf != nil {
		if leaf.Title != "" {
			req.Title = leaf.Title
		}
		req.Content = leaf.Content
		if leaf.Status != "" {
			req.Status = leaf.Status
		}
	} else {
		req.Content = PlaceholderContent(req.Title)
	}

	if err := c.sleep(ctx, c.CreateDelay); err != nil {
		return createResult{}, fmt.Errorf("pagetree: interrupted before creating %q: %w", slug, err)
	}

	page, err := c.Dir.CreatePage(ctx, req)
	if err != nil {
		return createResult{}, fmt.Errorf("pagetree: couldn't create %q under %d: %w", slug, parentID, err)
	}

	c.Cache.Put(*page)
	c.created.Add(1)
	c.Logger.Printf("created page %d %q under %d", page.ID, slug, parentID)
	if page.Slug != slug {
		// WordPress de-duplicated the slug ("team-2"); keep answering lookups for the one we asked for.
		c.Logger.Printf("site renamed slug %q to %q for page %d", slug, page.Slug, page.ID)
		c.Cache.Alias(slug, parentID, page.ID)
	}

	return createResult{page: *page, created: true}, nil
}

// UpdateContent replaces title and content of an existing leaf page.
func (c *Creator) UpdateContent(ctx context.Context, id int, leaf LeafContent) (wordpress.Page, error) {
	if err := c.sleep(ctx, c.CreateDelay); err != nil {
		return wordpress.Page{}, fmt.Errorf("pagetree: interrupted before updating %d: %w", id, err)
	}

	page, err := c.Dir.UpdatePage(ctx, id, wordpress.UpdatePageRequest{
		Title:   leaf.Title,
		Content: leaf.Content,
		Status:  leaf.Status,
	})
	if err != nil {
		return wordpress.Page{}, fmt.Errorf("pagetree: couldn't update page %d: %w", id, err)
	}

	c.Cache.Put(*page)
	c.Logger.Printf("updated page %d", page.ID)
	return *page, nil
}

// Created is how many pages this creator has made so far.
func (c *Creator) Created() int {
	return int(c.created.Load())
}

// SanitizeSlug lowercases and URI-encodes a slug the way WordPress stores it.  Whitespace becomes
// "-".  Already-encoded input comes out unchanged.
func SanitizeSlug(slug string) string {
	s := strings.TrimSpace(slug)
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	s = strings.ToLower(s)
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "-")
	s = strings.Trim(s, "/")
	return strings.ToLower(url.PathEscape(s))
}

// TitleCase turns a slug into a display title: "cougar-quarterly" becomes "Cougar Quarterly".
func TitleCase(slug string) string {
	s := slug
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	// Casers keep state, so they can't be shared between goroutines.
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// PlaceholderContent is the body of an auto-created hierarchy page.
func PlaceholderContent(title string) string {
	return fmt.Sprintf("<!-- wp:paragraph -->\n<p>%s</p>\n<!-- /wp:paragraph -->", html.EscapeString(title))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
