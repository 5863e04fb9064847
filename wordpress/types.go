package wordpress

import (
	"net/url"
	"strings"
)

// Rendered wraps the {"rendered": "..."} objects WordPress uses for titles and content.
type Rendered struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

// See https://developer.wordpress.org/rest-api/reference/pages/#schema.  Only the fields we need
// for placing pages in the tree are here.
type Page struct {
	ID       int      `json:"id"`
	Slug     string   `json:"slug"`
	Parent   int      `json:"parent"`
	Link     string   `json:"link"`
	Status   string   `json:"status,omitempty"`
	Title    Rendered `json:"title"`
	Content  Rendered `json:"content,omitempty"`
	Modified string   `json:"modified_gmt,omitempty"`
}

// TrashMarker is the suffix WordPress appends to the slug (and therefore the permalink) of a
// trashed page.
const TrashMarker = "__trashed"

// Trashed reports whether the page's permalink carries a trash marker segment.  Such pages are
// still returned by the API for authenticated users.
func (p Page) Trashed() bool {
	for _, seg := range LinkSegments(p.Link) {
		if strings.HasSuffix(seg, TrashMarker) {
			return true
		}
	}
	return p.Status == "trash"
}

// LinkPath returns the normalised path of a permalink: no scheme, host, query or leading and
// trailing slashes.  "https://x.org/about/team/" becomes "about/team".
func LinkPath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return strings.Trim(link, "/")
	}
	p := u.Path
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return strings.Trim(p, "/")
}

// LinkSegments splits a permalink's path into its slugs.
func LinkSegments(link string) []string {
	p := LinkPath(link)
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Media is the subset of https://developer.wordpress.org/rest-api/reference/media/#schema we use.
type Media struct {
	ID        int      `json:"id"`
	Slug      string   `json:"slug"`
	Link      string   `json:"link"`
	SourceURL string   `json:"source_url"`
	MimeType  string   `json:"mime_type"`
	Title     Rendered `json:"title"`
}

// See https://developer.wordpress.org/rest-api/reference/users/#schema
type User struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Email        string          `json:"email,omitempty"`
	Roles        []string        `json:"roles,omitempty"`
	Capabilities map[string]bool `json:"capabilities,omitempty"`
}

// Can reports whether the user holds a capability, e.g. "publish_pages".
func (u User) Can(capability string) bool {
	return u.Capabilities[capability]
}

// See https://developer.wordpress.org/rest-api/reference/nav_menu_items/#schema
type MenuItem struct {
	ID       int      `json:"id"`
	Title    Rendered `json:"title"`
	URL      string   `json:"url"`
	ObjectID int      `json:"object_id"`
	Menus    int      `json:"menus"`
	Parent   int      `json:"parent"`
}

// apiError is the JSON body WordPress sends along with a non-2xx status.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}
