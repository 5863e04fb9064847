package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FetchTimeout bounds a single page or image download.
var FetchTimeout = 30 * time.Second

// Fetcher downloads pages from the old site.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client, UserAgent: userAgent}
}

// Fetch retrieves and parses rawURL.  The returned URL is where we ended up after redirects, which
// is what relative links in the document are relative to.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("content: bad source URL %q: %w", rawURL, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("content: couldn't fetch %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("content: fetching %s: unexpected status %s", rawURL, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("content: couldn't parse %s: %w", rawURL, err)
	}

	return doc, res.Request.URL, nil
}
