package pagetree

import (
	"context"
	"io"
	"log"
)

// HomeSlug is looked up when asked to resolve the site root.
const HomeSlug = "home"

// Resolution is the outcome of a successful Builder.Resolve.
type Resolution struct {
	// ID of the deepest page of the path.  Zero means the root: no parent page needed.
	ID int
	// Exists is false when ID is zero because the page simply isn't there (a top-level page in Move
	// mode, or a site without a home page).
	Exists bool
	// Pages created on the way, root first.
	Created []int
}

// Builder walks a hierarchy path from the root, resolving each level through the cache and the
// resolver, and creating placeholders for missing levels when the path's action allows it.
type Builder struct {
	Cache    *Cache
	Resolver *Resolver
	Creator  *Creator

	Logger *log.Logger
}

func NewBuilder(cache *Cache, resolver *Resolver, creator *Creator, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Builder{
		Cache:    cache,
		Resolver: resolver,
		Creator:  creator,
		Logger:   logger,
	}
}

// Resolve makes sure every level of spec exists and returns the ID of the deepest one, which is
// the parent for whatever the caller places below it.
//
// Levels are handled strictly root first: level i is only looked up, or created, once level i-1
// has an ID.  In Move mode a missing level fails with *MissingAncestorError and nothing is
// created.  A single-segment path is a top-level page: if it's missing in Move mode the answer is
// the root (ID 0), not a failure.  Transport and remote errors abort the walk.
func (b *Builder) Resolve(ctx context.Context, spec PathSpec) (Resolution, error) {
	if spec.Depth() == 0 {
		return b.resolveHome(ctx)
	}
	return b.walk(ctx, spec, spec.Depth() == 1)
}

// ResolveParent makes sure every level above the leaf of spec exists and returns the deepest
// one, i.e. the page the leaf belongs under.  A top-level leaf gets the root.  Every level walked
// here is an ancestor, so in Move mode any missing one, top level included, is a
// *MissingAncestorError.
func (b *Builder) ResolveParent(ctx context.Context, spec PathSpec) (Resolution, error) {
	if spec.Depth() <= 1 {
		return Resolution{ID: 0, Exists: true}, nil
	}
	return b.walk(ctx, spec.Parent(), false)
}

// walk resolves spec level by level.  With topLevelIsRoot, a missing single level in Move mode
// answers the root instead of failing.
func (b *Builder) walk(ctx context.Context, spec PathSpec, topLevelIsRoot bool) (Resolution, error) {
	res := Resolution{}
	parent := 0

	for i, seg := range spec.Segments {
		slug := SanitizeSlug(seg)
		soFar := spec.Prefix(i + 1)

		if id, ok := b.Cache.Get(slug, parent); ok {
			b.Logger.Printf("cache hit: %s is page %d", soFar, id)
			parent = id
			continue
		}

		page, ok, err := b.Resolver.Lookup(ctx, soFar.Segments, parent)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			parent = page.ID
			continue
		}

		if spec.Action == Move {
			if topLevelIsRoot {
				b.Logger.Printf("no top-level page %s; placing at the root", soFar)
				return Resolution{ID: 0, Exists: false}, nil
			}
			b.Logger.Printf("missing ancestor %s, not creating in move mode", soFar)
			return Resolution{}, &MissingAncestorError{Slug: seg, Path: soFar.String()}
		}

		created, isNew, err := b.Creator.CreateIfAbsent(ctx, seg, parent, nil)
		if err != nil {
			return Resolution{}, err
		}
		if isNew {
			res.Created = append(res.Created, created.ID)
		}
		if created.Slug != slug {
			b.Cache.Alias(slug, parent, created.ID)
		}
		parent = created.ID
	}

	res.ID = parent
	res.Exists = true
	return res, nil
}

func (b *Builder) resolveHome(ctx context.Context) (Resolution, error) {
	if id, ok := b.Cache.Get(HomeSlug, 0); ok {
		return Resolution{ID: id, Exists: true}, nil
	}

	page, ok, err := b.Resolver.FindBySlug(ctx, HomeSlug, 0)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		b.Logger.Printf("no %q page at the root; using the site root", HomeSlug)
		return Resolution{}, nil
	}

	b.Cache.Put(page)
	return Resolution{ID: page.ID, Exists: true}, nil
}
