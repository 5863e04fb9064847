package pagetree

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// Directory is the part of the WordPress API the page tree needs.  *wordpress.API satisfies it.
type Directory interface {
	ListPages(ctx context.Context, opts wordpress.ListPagesQuery) ([]wordpress.Page, error)
	CreatePage(ctx context.Context, req wordpress.CreatePageRequest) (*wordpress.Page, error)
	UpdatePage(ctx context.Context, id int, req wordpress.UpdatePageRequest) (*wordpress.Page, error)
}

// AnyParent asks FindBySlug for the first page with the slug, wherever it lives.
const AnyParent = -1

// LinkMatch is what FindByLinkPath reports.
type LinkMatch struct {
	ID    int
	Title string
}

const pageFields = "id,slug,parent,link,title,status"

// Resolver finds existing pages.  It trusts the literal permalink path over the parent field the
// site records, since trashing and restoring pages can leave the two out of step.
type Resolver struct {
	Dir   Directory
	Cache *Cache

	// Segments of the site's own path when WordPress lives in a subdirectory, e.g. ["blog"].
	BasePath []string

	// Statuses to ask for when listing.  Nil means the site default (published only); seeing
	// trashed pages needs "trash" and authenticated reads.
	Statuses []string

	Logger *log.Logger
}

func NewResolver(dir Directory, cache *Cache, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{
		Dir:    dir,
		Cache:  cache,
		Logger: logger,
	}
}

// FindBySlug returns the page with slug under parentID, or with parentID == AnyParent the first
// page carrying the slug anywhere (callers must disambiguate if branches share slugs).  Live pages
// beat trashed ones.
func (r *Resolver) FindBySlug(ctx context.Context, slug string, parentID int) (wordpress.Page, bool, error) {
	slug = SanitizeSlug(slug)
	query := wordpress.ListPagesQuery{
		Slug:   []string{slug},
		Status: r.Statuses,
		Fields: pageFields,
	}
	if parentID != AnyParent {
		query.Parent = wordpress.ParentOf(parentID)
	}

	pages, err := r.Dir.ListPages(ctx, query)
	if err != nil {
		return wordpress.Page{}, false, fmt.Errorf("pagetree: couldn't look up slug %q: %w", slug, err)
	}

	for _, p := range liveFirst(pages) {
		if p.Slug != slug {
			continue
		}
		if parentID != AnyParent && p.Parent != parentID {
			continue
		}
		return p, true, nil
	}

	return wordpress.Page{}, false, nil
}

// FindByExactPath looks for the page whose permalink path is fullPath, fetching every page that
// shares the final slug and scoring them with SelectCandidate.
func (r *Resolver) FindByExactPath(ctx context.Context, fullPath string) (wordpress.Page, bool, error) {
	spec, err := NewPathSpec(fullPath, Move)
	if err != nil {
		return wordpress.Page{}, false, err
	}
	if spec.Depth() == 0 {
		return wordpress.Page{}, false, nil
	}
	finalSlug := SanitizeSlug(spec.Leaf())

	pages, err := r.Dir.ListPages(ctx, wordpress.ListPagesQuery{
		Slug:   []string{finalSlug, finalSlug + wordpress.TrashMarker},
		Status: r.Statuses,
		Fields: pageFields,
	})
	if err != nil {
		return wordpress.Page{}, false, fmt.Errorf("pagetree: couldn't list candidates for %q: %w", fullPath, err)
	}

	target := append(append([]string{}, r.BasePath...), spec.Segments...)
	sel := SelectCandidate(target, pages)

	switch sel.Reason {
	case Selected:
		if sel.Page.Trashed() {
			r.Logger.Printf("path %s matched trashed page %d (%s)", spec, sel.Page.ID, sel.Page.Link)
		}
		return sel.Page, true, nil
	case Ambiguous:
		r.Logger.Printf("path %s: %d candidates, best matches %d/%d segments, treating as missing",
			spec, len(pages), sel.Score, len(target))
	}

	return wordpress.Page{}, false, nil
}

// FindByLinkPath scans every page for a permalink path equal to normalizedPath or ending in
// "/"+normalizedPath.  It is the expensive fallback for when slug lookups fail.
func (r *Resolver) FindByLinkPath(ctx context.Context, normalizedPath string) (LinkMatch, bool, error) {
	page, ok, err := r.findByLinkPath(ctx, normalizedPath)
	if err != nil || !ok {
		return LinkMatch{}, ok, err
	}
	return LinkMatch{ID: page.ID, Title: page.Title.Rendered}, true, nil
}

func (r *Resolver) findByLinkPath(ctx context.Context, normalizedPath string) (wordpress.Page, bool, error) {
	normalizedPath = strings.Trim(normalizedPath, "/")
	if normalizedPath == "" {
		return wordpress.Page{}, false, nil
	}

	pages, err := r.Dir.ListPages(ctx, wordpress.ListPagesQuery{
		Status: r.Statuses,
		Fields: pageFields,
	})
	if err != nil {
		return wordpress.Page{}, false, fmt.Errorf("pagetree: couldn't scan pages for %q: %w", normalizedPath, err)
	}

	// permalinks carry the site's own directory
	fullPath := strings.Join(append(append([]string{}, r.BasePath...), normalizedPath), "/")

	var suffixMatch *wordpress.Page
	for _, p := range liveFirst(pages) {
		lp := wordpress.LinkPath(p.Link)
		if lp == fullPath {
			return p, true, nil
		}
		if suffixMatch == nil && strings.HasSuffix(lp, "/"+normalizedPath) {
			p := p
			suffixMatch = &p
		}
	}

	if suffixMatch != nil {
		return *suffixMatch, true, nil
	}
	return wordpress.Page{}, false, nil
}

// Lookup resolves the last of segments under parentID, trying the slug index first, then the
// permalink path, and for top-level pages a full scan.  Whatever it finds goes into the cache.
func (r *Resolver) Lookup(ctx context.Context, segments []string, parentID int) (wordpress.Page, bool, error) {
	if len(segments) == 0 {
		return wordpress.Page{}, false, nil
	}
	slug := SanitizeSlug(segments[len(segments)-1])
	fullPath := strings.Join(segments, "/")

	page, ok, err := r.FindBySlug(ctx, slug, parentID)
	if err != nil {
		return wordpress.Page{}, false, err
	}
	if ok {
		r.Logger.Printf("found %s as page %d under %d", fullPath, page.ID, parentID)
		r.Cache.Put(page)
		return page, true, nil
	}

	page, ok, err = r.FindByExactPath(ctx, fullPath)
	if err != nil {
		return wordpress.Page{}, false, err
	}
	if !ok && len(segments) == 1 {
		page, ok, err = r.findByLinkPath(ctx, fullPath)
		if err != nil {
			return wordpress.Page{}, false, err
		}
	}
	if !ok {
		return wordpress.Page{}, false, nil
	}

	r.Cache.Put(page)
	if page.Parent != parentID {
		r.Logger.Printf("found %s as page %d by permalink; site records parent %d, expected %d",
			fullPath, page.ID, page.Parent, parentID)
	} else {
		r.Logger.Printf("found %s as page %d by permalink", fullPath, page.ID)
	}
	if page.Parent != parentID || page.Slug != slug {
		r.Cache.Alias(slug, parentID, page.ID)
	}

	return page, true, nil
}
