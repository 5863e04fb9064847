package content

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// PreviewHeader is the front matter of a preview file.
type PreviewHeader struct {
	Title       string    `yaml:"title"`
	Source      string    `yaml:"source"`
	Destination string    `yaml:"destination"`
	Link        string    `yaml:"link,omitempty"`
	PostID      int       `yaml:"post_id,omitempty"`
	Parent      int       `yaml:"parent"`
	Ancestors   []string  `yaml:"ancestors,omitempty"`
	Action      string    `yaml:"action"`
	Images      int       `yaml:"images_migrated,omitempty"`
	Timestamp   time.Time `yaml:"migrated_at"`
}

// Preview keeps a Markdown copy of every migrated page in a local directory, for reviewing a run
// with ordinary diff tools.
type Preview struct {
	// Must exist already.
	StorePath string
	// Host that root-relative links in the page belong to.
	SiteURL *url.URL
	// Off means render but don't write (dry run).
	Enabled bool
}

// Render converts blocks to Markdown under a YAML header.
func (p *Preview) Render(header PreviewHeader, blocks string) (string, error) {
	// md.NewConverter only takes a hostname, not a base URL, so the scheme is patched in here.
	opt := &md.Options{
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL string, domain string) string {
			if domain == "" {
				return rawURL
			}
			u, err := url.Parse(rawURL)
			if err != nil || u.Scheme == "data" {
				return rawURL
			}
			if u.Scheme == "" && p.SiteURL != nil {
				u.Scheme = p.SiteURL.Scheme
			}
			if u.Host == "" {
				u.Host = domain
			}
			return u.String()
		},
	}

	domain := ""
	if p.SiteURL != nil {
		domain = p.SiteURL.Host
	}
	converter := md.NewConverter(domain, true, opt)
	converter.Use(mdplugin.GitHubFlavored())

	markdown, err := converter.ConvertString(blocks)
	if err != nil {
		return "", fmt.Errorf("content: failed to convert to Markdown: %w", err)
	}

	yamlHeader, err := yaml.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("content: couldn't marshal header YAML: %w", err)
	}

	return fmt.Sprintf("---\n%s\n---\n%s\n", strings.TrimSpace(string(yamlHeader)), markdown), nil
}

// RelativePath is where the preview of a destination path lives inside the store.
func RelativePath(destination string) string {
	clean := strings.Trim(path.Clean("/"+destination), "/")
	if clean == "" {
		return "index.md"
	}
	return clean + ".md"
}

// Write renders and stores the preview, returning the file's path.
func (p *Preview) Write(header PreviewHeader, blocks string) (string, error) {
	stat, err := os.Stat(p.StorePath)
	if err != nil {
		return "", fmt.Errorf("content: cannot stat '%s': %w", p.StorePath, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("content: preview store not a directory: '%s'", p.StorePath)
	}

	body, err := p.Render(header, blocks)
	if err != nil {
		return "", err
	}

	abs := path.Join(p.StorePath, RelativePath(header.Destination))
	if !p.Enabled {
		return abs, nil
	}

	if err := os.MkdirAll(path.Dir(abs), 0750); err != nil {
		return "", fmt.Errorf("content: couldn't create directory %s: %w", path.Dir(abs), err)
	}
	if err := os.WriteFile(abs, []byte(body), 0640); err != nil {
		return "", fmt.Errorf("content: couldn't write %s: %w", abs, err)
	}

	return abs, nil
}
