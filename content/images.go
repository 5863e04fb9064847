package content

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// MediaUploader stores a file in the destination media library.  *wordpress.API satisfies it.
type MediaUploader interface {
	UploadMedia(ctx context.Context, filename, contentType string, body io.Reader) (*wordpress.Media, error)
}

// ImageMigrator copies the images a page references into the media library and points the page
// at the copies.  Images shared between pages are uploaded once per run.
type ImageMigrator struct {
	Uploader  MediaUploader
	Client    *http.Client
	UserAgent string
	// Concurrent transfers per page.
	Parallel int64

	Logger *log.Logger

	mu       sync.Mutex
	uploaded map[string]string
}

func NewImageMigrator(uploader MediaUploader, client *http.Client, userAgent string, logger *log.Logger) *ImageMigrator {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ImageMigrator{
		Uploader:  uploader,
		Client:    client,
		UserAgent: userAgent,
		Parallel:  4,
		Logger:    logger,
		uploaded:  make(map[string]string),
	}
}

// Migrate uploads every image in c and rewrites c.Blocks to use the uploaded copies.  A failed
// image is logged and left pointing at the old site; only cancellation is an error.  It returns
// how many images were rewritten.
func (m *ImageMigrator) Migrate(ctx context.Context, c *Converted) (int, error) {
	if len(c.Images) == 0 {
		return 0, nil
	}

	parallel := m.Parallel
	if parallel < 1 {
		parallel = 1
	}
	sem := semaphore.NewWeighted(parallel)

	var mu sync.Mutex
	replacements := map[string]string{}

	for _, src := range c.Images {
		if err := sem.Acquire(ctx, 1); err != nil {
			return 0, fmt.Errorf("content: image migration interrupted: %w", err)
		}
		go func(src string) {
			defer sem.Release(1)

			dst, err := m.migrateOne(ctx, src)
			if err != nil {
				m.Logger.Printf("image %s: %v; keeping original", src, err)
				return
			}
			mu.Lock()
			replacements[src] = dst
			mu.Unlock()
		}(src)
	}

	// wait for the stragglers
	if err := sem.Acquire(ctx, parallel); err != nil {
		return 0, fmt.Errorf("content: image migration interrupted: %w", err)
	}
	sem.Release(parallel)

	// Only whole quoted attribute values are swapped, so a.png can't eat into a.png?v=2.
	for src, dst := range replacements {
		c.Blocks = strings.ReplaceAll(c.Blocks, `="`+src+`"`, `="`+dst+`"`)
		if escaped := html.EscapeString(src); escaped != src {
			c.Blocks = strings.ReplaceAll(c.Blocks, `="`+escaped+`"`, `="`+html.EscapeString(dst)+`"`)
		}
	}
	for i, src := range c.Images {
		if dst, ok := replacements[src]; ok {
			c.Images[i] = dst
		}
	}

	return len(replacements), nil
}

func (m *ImageMigrator) migrateOne(ctx context.Context, src string) (string, error) {
	m.mu.Lock()
	dst, ok := m.uploaded[src]
	m.mu.Unlock()
	if ok {
		return dst, nil
	}

	dlCtx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}

	res, err := m.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", res.Status)
	}

	filename := imageFilename(src)
	contentType := res.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		if byExt := mime.TypeByExtension(path.Ext(filename)); byExt != "" {
			contentType = byExt
		}
	}

	media, err := m.Uploader.UploadMedia(ctx, filename, contentType, res.Body)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	if media.SourceURL == "" {
		return "", fmt.Errorf("upload of %s returned no source URL", filename)
	}

	m.mu.Lock()
	m.uploaded[src] = media.SourceURL
	m.mu.Unlock()

	m.Logger.Printf("uploaded %s as media %d", src, media.ID)
	return media.SourceURL, nil
}

func imageFilename(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return "image"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
