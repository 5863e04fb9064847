package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// PagesResponse is one page of results from the pages collection.
type PagesResponse struct {
	Pages []Page

	// From the X-WP-Total and X-WP-TotalPages headers; zero when the site didn't send them.
	Total      int
	TotalPages int
}

func (api *API) ListPagesPage(ctx context.Context, opts ListPagesQuery) (*PagesResponse, error) {
	ep, err := api.getPagesEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get pages endpoint: %w", err)
	}

	resp, err := api.request(ctx, http.MethodGet, ep, nil, "")
	if err != nil {
		return nil, err
	}

	var pages []Page
	if err := json.Unmarshal(resp.body, &pages); err != nil {
		return nil, fmt.Errorf("wordpress: couldn't parse json response: %w", err)
	}

	total, _ := strconv.Atoi(resp.header.Get("X-WP-Total"))
	totalPages, _ := strconv.Atoi(resp.header.Get("X-WP-TotalPages"))

	return &PagesResponse{
		Pages:      pages,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (api *API) GetPage(ctx context.Context, id int) (*Page, error) {
	ep, err := api.getPageByIDEndpoint(id)
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get single page endpoint: %w", err)
	}

	resp, err := api.request(ctx, http.MethodGet, ep, nil, "")
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, fmt.Errorf("wordpress: couldn't parse json response: %w", err)
	}

	return &page, nil
}

func (api *API) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	ep, err := api.createPageEndpoint()
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get create page endpoint: %w", err)
	}

	var page Page
	if err := api.postJSON(ctx, ep, req, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

func (api *API) UpdatePage(ctx context.Context, id int, req UpdatePageRequest) (*Page, error) {
	ep, err := api.getPageByIDEndpoint(id)
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get update page endpoint: %w", err)
	}

	var page Page
	if err := api.postJSON(ctx, ep, req, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

func (api *API) CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*MenuItem, error) {
	ep, err := api.createMenuItemEndpoint()
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get menu item endpoint: %w", err)
	}

	var item MenuItem
	if err := api.postJSON(ctx, ep, req, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

// UploadMedia sends the raw file body, WordPress derives the attachment from the
// Content-Disposition filename.
func (api *API) UploadMedia(ctx context.Context, filename string, contentType string, body io.Reader) (*Media, error) {
	ep, err := api.createMediaEndpoint()
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get media endpoint: %w", err)
	}

	resp, err := api.doRequest(ctx, http.MethodPost, ep, body, contentType, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
	if err != nil {
		return nil, err
	}

	var media Media
	if err := json.Unmarshal(resp.body, &media); err != nil {
		return nil, fmt.Errorf("wordpress: couldn't parse json response: %w", err)
	}

	return &media, nil
}

// CurrentUser returns whoever the configured credentials belong to.
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	if !api.HasCredentials() {
		return nil, ErrNoCredentials
	}

	ep, err := api.getCurrentUserEndpoint()
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't get current user endpoint: %w", err)
	}

	resp, err := api.doRequest(ctx, http.MethodGet, ep, nil, "", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(resp.body, &user); err != nil {
		return nil, fmt.Errorf("wordpress: couldn't parse json response: %w", err)
	}

	return &user, nil
}

func (api *API) postJSON(ctx context.Context, ep *url.URL, payload any, into any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wordpress: couldn't encode request body: %w", err)
	}

	resp, err := api.request(ctx, http.MethodPost, ep, bytes.NewReader(b), "application/json")
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.body, into); err != nil {
		return fmt.Errorf("wordpress: couldn't parse json response: %w", err)
	}
	return nil
}

type response struct {
	body   []byte
	header http.Header
}

// request is doRequest without extra headers.
func (api *API) request(ctx context.Context, method string, u *url.URL, body io.Reader, contentType string) (*response, error) {
	return api.doRequest(ctx, method, u, body, contentType, nil)
}

// doRequest implements the basic request function.  Mutating calls always carry credentials, reads
// carry them unless AnonymousReads was asked for.
func (api *API) doRequest(ctx context.Context, method string, u *url.URL, body io.Reader, contentType string, headers map[string]string) (*response, error) {
	mutating := method != http.MethodGet && method != http.MethodHead
	if mutating && !api.HasCredentials() {
		return nil, ErrNoCredentials
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't instantiate http request: %w", err)
	}

	req.Header.Set("Accept", "application/json, */*")
	req.Header.Set("User-Agent", api.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if api.HasCredentials() && (mutating || !api.anonymousReads) {
		req.SetBasicAuth(api.username, api.password)
	}

	res, err := api.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: u.String(), Err: err}
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		res.Body.Close()
		return nil, &TransportError{Op: method, URL: u.String(), Err: fmt.Errorf("reading body: %w", err)}
	}

	if err := res.Body.Close(); err != nil {
		return nil, fmt.Errorf("wordpress: couldn't close response body: %w", err)
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return &response{body: respBody, header: res.Header}, nil
	}

	remoteErr := &RemoteError{
		StatusCode: res.StatusCode,
		URL:        u.String(),
	}
	var wpErr apiError
	if err := json.Unmarshal(respBody, &wpErr); err == nil {
		remoteErr.Code = wpErr.Code
		remoteErr.Message = wpErr.Message
	} else {
		remoteErr.Message = res.Status
	}
	return nil, remoteErr
}
