package wordpress

import (
	"context"
	"fmt"
	"time"
)

// RequestTimeout bounds each individual page of a listing.
var RequestTimeout = 20 * time.Second

// maxListPages stops a runaway listing if a site never reports its page count.
const maxListPages = 1000

// ListPages fetches every page matching opts, following pagination until an empty page or the
// X-WP-TotalPages marker is reached.
func (api *API) ListPages(ctx context.Context, opts ListPagesQuery) ([]Page, error) {
	pages := []Page{}

	if opts.PerPage == 0 {
		opts.PerPage = MaxPerPage
	}
	if opts.Page == 0 {
		opts.Page = 1
	}

	for i := 0; i < maxListPages; i++ {
		result, err := api.listOnePage(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("wordpress: couldn't list pages (page %d): %w", opts.Page, err)
		}

		pages = append(pages, result.Pages...)

		if len(result.Pages) == 0 {
			break
		}
		if result.TotalPages > 0 && opts.Page >= result.TotalPages {
			break
		}
		if result.TotalPages == 0 && len(result.Pages) < opts.PerPage {
			// no marker, but a short page is the last one.
			break
		}
		opts.Page++
	}

	return pages, nil
}

func (api *API) listOnePage(ctx context.Context, opts ListPagesQuery) (*PagesResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	return api.ListPagesPage(ctx, opts)
}
