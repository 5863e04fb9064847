package wordpress

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getPagesEndpoint returns the API endpoint to list pages:
// https://developer.wordpress.org/rest-api/reference/pages/#list-pages
func (a *API) getPagesEndpoint(opts ListPagesQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("wp-json/wp/v2/pages")
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getPageByIDEndpoint returns the API endpoint to retrieve (GET) or update (POST) one page:
// https://developer.wordpress.org/rest-api/reference/pages/#retrieve-a-page
func (a *API) getPageByIDEndpoint(id int) (*url.URL, error) {
	if id < 1 {
		return nil, fmt.Errorf("wordpress: please provide ID to get page by ID")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("wp-json/wp/v2/pages/%d", id))
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't resolve endpoint: %w", err)
	}

	return ep, nil
}

// createPageEndpoint returns the API endpoint to create a page:
// https://developer.wordpress.org/rest-api/reference/pages/#create-a-page
func (a *API) createPageEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("wp-json/wp/v2/pages")
}

// createMediaEndpoint returns the API endpoint to upload an attachment:
// https://developer.wordpress.org/rest-api/reference/media/#create-a-media-item
func (a *API) createMediaEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("wp-json/wp/v2/media")
}

// createMenuItemEndpoint returns the API endpoint to add a navigation menu item:
// https://developer.wordpress.org/rest-api/reference/nav_menu_items/#create-a-nav_menu_item
func (a *API) createMenuItemEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("wp-json/wp/v2/menu-items")
}

// getCurrentUserEndpoint returns the API endpoint describing whoever we authenticated as:
// https://developer.wordpress.org/rest-api/reference/users/#retrieve-a-user-2
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	ep, err := a.resolveEndpoint("wp-json/wp/v2/users/me")
	if err != nil {
		return nil, err
	}
	// capabilities are only returned in the edit context.
	ep.RawQuery = url.Values{"context": []string{"edit"}}.Encode()
	return ep, nil
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("wordpress: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}
