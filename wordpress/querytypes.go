package wordpress

// ListPagesQuery defines the query parameters for:
// https://developer.wordpress.org/rest-api/reference/pages/#list-pages
type ListPagesQuery struct {
	// Filter the results to pages based on...
	Slug    []string `url:"slug,omitempty,comma"`    // their slugs.
	Parent  *int     `url:"parent,omitempty"`        // their parent ID; 0 means top level.
	Include []int    `url:"include,omitempty,comma"` // their IDs.
	Search  string   `url:"search,omitempty"`
	Status  []string `url:"status,omitempty,comma"` // publish, draft, trash, ... (trash needs auth)

	OrderBy string `url:"orderby,omitempty"` // id, slug, parent, menu_order, ...
	Order   string `url:"order,omitempty"`   // asc, desc

	// Limit the response to these fields, e.g. "id,link,title".
	Fields string `url:"_fields,omitempty"`

	// Pagination.  WordPress reports the number of pages in the X-WP-TotalPages header.
	PerPage int `url:"per_page,omitempty"` // default 10, max 100
	Page    int `url:"page,omitempty"`     // 1-based
}

// MaxPerPage is the largest page size WordPress will accept.
const MaxPerPage = 100

// ParentOf is a little helper so callers can write Parent: wordpress.ParentOf(0).
func ParentOf(id int) *int {
	return &id
}

// CreatePageRequest is the body for:
// https://developer.wordpress.org/rest-api/reference/pages/#create-a-page
type CreatePageRequest struct {
	Title   string `json:"title,omitempty"`
	Slug    string `json:"slug,omitempty"`
	Parent  int    `json:"parent"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"` // publish, draft, ...
}

// UpdatePageRequest is the body for:
// https://developer.wordpress.org/rest-api/reference/pages/#update-a-page
//
// Zero values are left out so only the fields you set are touched.
type UpdatePageRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Parent  *int   `json:"parent,omitempty"`
}

// CreateMenuItemRequest is the body for:
// https://developer.wordpress.org/rest-api/reference/nav_menu_items/#create-a-nav_menu_item
type CreateMenuItemRequest struct {
	Title    string `json:"title"`
	Type     string `json:"type"`   // "post_type" for pages
	Object   string `json:"object"` // "page"
	ObjectID int    `json:"object_id"`
	Menus    int    `json:"menus"`
	Parent   int    `json:"parent,omitempty"`
	Status   string `json:"status,omitempty"`
}

const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)
