package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/toothbrush/wp-migrate/content"
	"github.com/toothbrush/wp-migrate/pagetree"
	"github.com/toothbrush/wp-migrate/wordpress"
	"github.com/toothbrush/wp-migrate/worksheet"
)

// PageSource fetches a page from the old site.  *content.Fetcher satisfies it.
type PageSource interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error)
}

// ImageCopier moves a page's images into the media library.  *content.ImageMigrator satisfies it.
type ImageCopier interface {
	Migrate(ctx context.Context, c *content.Converted) (int, error)
}

// MenuMaker adds main menu entries.  *wordpress.API satisfies it.
type MenuMaker interface {
	CreateMenuItem(ctx context.Context, req wordpress.CreateMenuItemRequest) (*wordpress.MenuItem, error)
}

// Runner migrates queue rows one tree level at a time: every row at depth n is finished before
// any row at depth n+1 starts, so ancestors always exist (or have failed) before their
// descendants look for them.
type Runner struct {
	Cache   *pagetree.Cache
	Builder *pagetree.Builder
	Creator *pagetree.Creator

	Source      PageSource
	Transformer *content.Transformer
	// Optional pieces; nil turns them off.
	Images  ImageCopier
	Preview *content.Preview
	Menus   MenuMaker
	Queue   worksheet.Queue
	Missing *MissingLog

	MenuID  int
	Workers int

	// Progress bars go here; nil hides them.
	Progress io.Writer
	Logger   *log.Logger

	now func() time.Time
}

// NewRunner wires up the page tree over dir.  The caller fills in the content pipeline and
// whatever optional pieces it wants.
func NewRunner(dir pagetree.Directory, createDelay time.Duration, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cache := pagetree.NewCache()
	resolver := pagetree.NewResolver(dir, cache, logger)
	creator := pagetree.NewCreator(dir, cache, resolver, createDelay, logger)

	return &Runner{
		Cache:       cache,
		Builder:     pagetree.NewBuilder(cache, resolver, creator, logger),
		Creator:     creator,
		Transformer: content.NewTransformer(""),
		Workers:     4,
		Logger:      logger,
		now:         time.Now,
	}
}

// Run migrates the pending rows.  Per-row failures are counted, not returned; the error is only
// for an interrupted run, and the summary is valid either way.
func (r *Runner) Run(ctx context.Context, rows []worksheet.Row) (Summary, error) {
	_, summary := r.run(ctx, rows)
	if summary.Interrupted {
		return summary, fmt.Errorf("migrate: run interrupted: %w", context.Cause(ctx))
	}
	return summary, nil
}

func (r *Runner) run(ctx context.Context, rows []worksheet.Row) ([]JobResult, Summary) {
	summary := Summary{}
	createdBefore := r.Creator.Created()
	defer func() {
		r.Logger.Printf("forgetting %d cached pages", r.Cache.Len())
		r.Cache.Clear()
	}()

	jobs := []Job{}
	for _, row := range rows {
		if !row.Pending() {
			summary.add(Skipped)
			continue
		}
		spec, err := row.Spec()
		if err != nil {
			r.Logger.Printf("row %d (%s): %v", row.Index, row.Source, err)
			summary.add(Failed)
			continue
		}
		jobs = append(jobs, Job{Row: row, Spec: spec})
	}

	levels, depths := byLevel(jobs)
	r.Logger.Printf("migrating %d rows across %d levels", len(jobs), len(depths))

	all := []JobResult{}
	for _, depth := range depths {
		results := r.runLevel(ctx, depth, levels[depth])
		all = append(all, results...)

		written := []worksheet.Result{}
		for _, res := range results {
			summary.add(res.Outcome)
			if res.Outcome == Succeeded {
				written = append(written, worksheet.Result{
					Index:  res.Job.Row.Index,
					PostID: res.PageID,
					Link:   res.Link,
					At:     r.now(),
				})
			}
		}
		if r.Queue != nil && len(written) > 0 {
			// still record what finished, even when interrupted
			if err := r.Queue.Record(context.WithoutCancel(ctx), written...); err != nil {
				r.Logger.Printf("couldn't write %d results back to the queue: %v", len(written), err)
			}
		}

		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
	}

	// rows of levels we never got to
	summary.Skipped += len(jobs) - len(all)
	summary.PagesCreated = r.Creator.Created() - createdBefore

	r.Logger.Printf("done: %s", summary)
	return all, summary
}

// runLevel is a bounded pool over one level.  Cancellation stops dispatching; whatever is in
// flight runs to completion and is reported.
func (r *Runner) runLevel(ctx context.Context, depth int, jobs []Job) []JobResult {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(r.Progress))
	bar := p.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("level %d:", depth),
				decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	results := make([]JobResult, len(jobs))
	dispatched := 0

	grp := errgroup.Group{}
	grp.SetLimit(workers)

	// in-flight rows finish even after cancellation
	workCtx := context.WithoutCancel(ctx)

	for i, job := range jobs {
		if ctx.Err() != nil {
			r.Logger.Printf("interrupted: not starting %d remaining rows at level %d", len(jobs)-i, depth)
			break
		}
		i, job := i, job
		dispatched++
		grp.Go(func() error {
			results[i] = r.processJob(workCtx, job)
			bar.Increment()
			return nil
		})
	}

	_ = grp.Wait()
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()

	return results[:dispatched]
}

func (r *Runner) processJob(ctx context.Context, job Job) JobResult {
	res := JobResult{Job: job}
	row := job.Row

	page, created, images, err := r.migrateRow(ctx, job)
	var missing *pagetree.MissingAncestorError
	switch {
	case errors.As(err, &missing):
		res.Outcome = MissingAncestor
		res.Err = err
		r.Logger.Printf("row %d: %s needs %s first; logged for reprocessing", row.Index, job.Spec, missing.Path)
		if r.Missing != nil {
			if err := r.Missing.Append(row.Source); err != nil {
				r.Logger.Printf("row %d: %v", row.Index, err)
			}
		}
	case err != nil:
		res.Outcome = Failed
		res.Err = err
		r.Logger.Printf("row %d: %s failed: %v", row.Index, job.Spec, err)
		var remote *wordpress.RemoteError
		if errors.As(err, &remote) && remote.Forbidden() {
			r.Logger.Printf("row %d: the site refused us; check the user's role and application password", row.Index)
		}
	default:
		res.Outcome = Succeeded
		res.PageID = page.ID
		res.Link = page.Link
		res.Created = created
		res.Images = images
		verb := "updated"
		if created {
			verb = "created"
		}
		r.Logger.Printf("row %d: %s %s as page %d", row.Index, verb, job.Spec, page.ID)
	}

	return res
}

// migrateRow does one row: ancestors, content, leaf page, menu entry and preview, in that order.
// Ancestors made before a later failure stay made.
func (r *Runner) migrateRow(ctx context.Context, job Job) (wordpress.Page, bool, int, error) {
	// A top-level page needs no ancestors.  The site root itself is the home page.
	parentID, homeID := 0, 0
	switch {
	case job.Spec.Depth() == 0:
		home, err := r.Builder.Resolve(ctx, job.Spec)
		if err != nil {
			return wordpress.Page{}, false, 0, err
		}
		homeID = home.ID
	case job.Spec.Depth() > 1:
		parent, err := r.Builder.ResolveParent(ctx, job.Spec)
		if err != nil {
			return wordpress.Page{}, false, 0, err
		}
		parentID = parent.ID
	}

	converted, err := r.convert(ctx, job.Row.Source)
	if err != nil {
		return wordpress.Page{}, false, 0, err
	}

	images := 0
	if r.Images != nil {
		if images, err = r.Images.Migrate(ctx, &converted); err != nil {
			return wordpress.Page{}, false, 0, err
		}
	}

	leafSlug := job.Spec.Leaf()
	if leafSlug == "" {
		leafSlug = pagetree.HomeSlug
	}
	title := converted.Title
	if title == "" {
		title = pagetree.TitleCase(leafSlug)
	}
	leaf := pagetree.LeafContent{
		Title:   title,
		Content: converted.Blocks,
		Status:  wordpress.StatusPublish,
	}

	existing := job.Row.PostID
	if existing == 0 {
		existing = homeID
	}
	page, created, err := r.placeLeaf(ctx, job, existing, leafSlug, parentID, leaf)
	if err != nil {
		return wordpress.Page{}, false, images, err
	}

	if job.Row.MainMenu != "" {
		r.addMenuItem(ctx, job.Row, page)
	}
	if r.Preview != nil {
		r.writePreview(job, page, converted, images)
	}

	return page, created, images, nil
}

func (r *Runner) convert(ctx context.Context, source string) (content.Converted, error) {
	if r.Source == nil {
		return content.Converted{}, fmt.Errorf("migrate: no page source configured")
	}
	doc, base, err := r.Source.Fetch(ctx, source)
	if err != nil {
		return content.Converted{}, err
	}
	converted, err := r.Transformer.Transform(doc, base)
	if err != nil {
		return content.Converted{}, fmt.Errorf("migrate: %s: %w", source, err)
	}
	return converted, nil
}

// placeLeaf updates existing if set, and otherwise finds or creates the page under parent.
func (r *Runner) placeLeaf(ctx context.Context, job Job, existing int, slug string, parent int, leaf pagetree.LeafContent) (wordpress.Page, bool, error) {
	if existing != 0 {
		page, err := r.Creator.UpdateContent(ctx, existing, leaf)
		return page, false, err
	}

	page, created, err := r.Creator.CreateIfAbsent(ctx, slug, parent, &leaf)
	if err != nil || created {
		return page, created, err
	}

	r.Logger.Printf("row %d: %s already exists as page %d, refreshing its content", job.Row.Index, job.Spec, page.ID)
	page, err = r.Creator.UpdateContent(ctx, page.ID, leaf)
	return page, false, err
}

func (r *Runner) addMenuItem(ctx context.Context, row worksheet.Row, page wordpress.Page) {
	if r.Menus == nil || r.MenuID == 0 {
		r.Logger.Printf("row %d: wants main menu entry %q but no menu is configured", row.Index, row.MainMenu)
		return
	}
	item, err := r.Menus.CreateMenuItem(ctx, wordpress.CreateMenuItemRequest{
		Title:    row.MainMenu,
		Type:     "post_type",
		Object:   "page",
		ObjectID: page.ID,
		Menus:    r.MenuID,
		Status:   wordpress.StatusPublish,
	})
	if err != nil {
		r.Logger.Printf("row %d: couldn't add menu entry %q: %v", row.Index, row.MainMenu, err)
		return
	}
	r.Logger.Printf("row %d: added menu entry %d %q", row.Index, item.ID, row.MainMenu)
}

func (r *Runner) writePreview(job Job, page wordpress.Page, converted content.Converted, images int) {
	header := content.PreviewHeader{
		Title:       converted.Title,
		Source:      job.Row.Source,
		Destination: job.Spec.String(),
		Link:        page.Link,
		PostID:      page.ID,
		Parent:      page.Parent,
		Action:      job.Spec.Action.String(),
		Images:      images,
		Timestamp:   r.now(),
	}
	if path, ok := r.Cache.ResolveAncestryPath(page.Parent); ok && page.Parent != 0 {
		header.Ancestors = path
	}

	if _, err := r.Preview.Write(header, converted.Blocks); err != nil {
		r.Logger.Printf("row %d: preview: %v", job.Row.Index, err)
	}
}
