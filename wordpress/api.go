package wordpress

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configures an API instance.  Only BaseURL is required; credentials are needed for
// anything that writes.
type Options struct {
	// Site root, e.g. https://staging.example.edu.  The /wp-json prefix is added for you.
	BaseURL string

	Username string
	// WordPress application password.
	Password string

	// Staging sites tend to run on self-signed certificates.  This is a per-environment trust
	// decision, keep it off for production.
	InsecureSkipVerify bool

	// Send GET requests without credentials.
	AnonymousReads bool

	UserAgent string
	Timeout   time.Duration
}

func NewAPI(opts Options) (*API, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("wordpress: configure your site URL with --wordpress-url")
	}

	u, err := url.ParseRequestURI(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("wordpress: couldn't parse REST API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("wordpress: unsupported scheme %q in %s", u.Scheme, opts.BaseURL)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	a := &API{
		BaseURI:        u,
		UserAgent:      opts.UserAgent,
		anonymousReads: opts.AnonymousReads,
		username:       strings.TrimSpace(opts.Username),
		password:       strings.TrimSpace(opts.Password),
	}
	a.Client = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	return a, nil
}

// DefaultUserAgent identifies us to the target site's access logs.
const DefaultUserAgent = "wp-migrate/dev"

type API struct {
	// Root of the WordPress site, always with a trailing slash.
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	UserAgent string

	anonymousReads bool

	// Auth info
	username, password string
}

// HasCredentials reports whether mutating calls can be made.
func (a *API) HasCredentials() bool {
	return a.username != "" && a.password != ""
}
