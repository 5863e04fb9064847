package content

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSelector is tried, in order, when no content selector is configured.
const DefaultSelector = "main, article, #content, body"

// ErrNoContent means none of the selectors matched anything.
var ErrNoContent = errors.New("content: no content root found")

// Converted is a source page turned into block editor markup.
type Converted struct {
	Title string
	// Gutenberg block markup, ready for the content field of a page.
	Blocks string
	// Absolute URLs of every image referenced by Blocks, in document order.
	Images []string
}

// stripped before conversion
const chrome = "script, style, noscript, nav, header, footer, aside, form, iframe"

type Transformer struct {
	// Comma-separated CSS selectors; the first one that matches is the content root.
	Selector string
}

func NewTransformer(selector string) *Transformer {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultSelector
	}
	return &Transformer{Selector: selector}
}

// Transform converts doc into blocks.  Relative links and image sources are resolved against
// base.  doc is modified.
func (t *Transformer) Transform(doc *goquery.Document, base *url.URL) (Converted, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())

	root := t.contentRoot(doc)
	if root == nil {
		return Converted{}, fmt.Errorf("%w (selector %q)", ErrNoContent, t.Selector)
	}
	root.Find(chrome).Remove()

	if h1 := strings.TrimSpace(root.Find("h1").First().Text()); h1 != "" {
		title = h1
	}
	if base != nil {
		absolutise(root, "a[href]", "href", base)
		absolutise(root, "img[src]", "src", base)
	}

	images := []string{}
	seen := map[string]bool{}
	root.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" || seen[src] || strings.HasPrefix(src, "data:") {
			return
		}
		seen[src] = true
		images = append(images, src)
	})

	blocks := []string{}
	convertChildren(root, &blocks)

	return Converted{
		Title:  title,
		Blocks: strings.Join(blocks, "\n\n"),
		Images: images,
	}, nil
}

func (t *Transformer) contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, sel := range strings.Split(t.Selector, ",") {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func absolutise(root *goquery.Selection, selector, attr string, base *url.URL) {
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.AttrOr(attr, ""))
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "data" || u.Scheme == "mailto" || u.Scheme == "tel" {
			return
		}
		s.SetAttr(attr, base.ResolveReference(u).String())
	})
}

// convertChildren walks the direct children of s, descending through layout containers.
func convertChildren(s *goquery.Selection, blocks *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if b, ok := convertNode(c, blocks); ok {
			*blocks = append(*blocks, b)
		}
	})
}

func convertNode(s *goquery.Selection, blocks *[]string) (string, bool) {
	name := goquery.NodeName(s)
	switch name {
	case "#text":
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return "", false
		}
		return paragraph(html.EscapeString(text)), true
	case "#comment":
		return "", false
	case "div", "section", "article", "main", "span", "center":
		convertChildren(s, blocks)
		return "", false
	case "h1", "h2", "h3", "h4", "h5", "h6":
		inner, _ := s.Html()
		if strings.TrimSpace(s.Text()) == "" {
			return "", false
		}
		return heading(name, strings.TrimSpace(inner)), true
	case "p":
		inner, _ := s.Html()
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			return "", false
		}
		return paragraph(strings.TrimSpace(inner)), true
	case "ul", "ol":
		inner, _ := s.Html()
		return list(name, strings.TrimSpace(inner)), true
	case "img":
		return image(s), true
	case "figure":
		if s.Find("img").Length() == 0 {
			break
		}
		s.AddClass("wp-block-image")
		outer, _ := goquery.OuterHtml(s)
		return "<!-- wp:image -->\n" + outer + "\n<!-- /wp:image -->", true
	case "blockquote":
		inner, _ := s.Html()
		return "<!-- wp:quote -->\n<blockquote class=\"wp-block-quote\">" + strings.TrimSpace(inner) +
			"</blockquote>\n<!-- /wp:quote -->", true
	case "table":
		outer, _ := goquery.OuterHtml(s)
		return "<!-- wp:table -->\n<figure class=\"wp-block-table\">" + outer + "</figure>\n<!-- /wp:table -->", true
	case "hr":
		return "<!-- wp:separator -->\n<hr class=\"wp-block-separator has-alpha-channel-opacity\"/>\n<!-- /wp:separator -->", true
	}

	outer, err := goquery.OuterHtml(s)
	if err != nil || strings.TrimSpace(outer) == "" {
		return "", false
	}
	return "<!-- wp:html -->\n" + outer + "\n<!-- /wp:html -->", true
}

func paragraph(inner string) string {
	return "<!-- wp:paragraph -->\n<p>" + inner + "</p>\n<!-- /wp:paragraph -->"
}

func heading(tag, inner string) string {
	attrs := ""
	if tag != "h2" {
		attrs = fmt.Sprintf(` {"level":%s}`, tag[1:])
	}
	return fmt.Sprintf("<!-- wp:heading%s -->\n<%s class=\"wp-block-heading\">%s</%s>\n<!-- /wp:heading -->",
		attrs, tag, inner, tag)
}

func list(tag, inner string) string {
	attrs := ""
	if tag == "ol" {
		attrs = ` {"ordered":true}`
	}
	return fmt.Sprintf("<!-- wp:list%s -->\n<%s>%s</%s>\n<!-- /wp:list -->", attrs, tag, inner, tag)
}

func image(s *goquery.Selection) string {
	src := html.EscapeString(s.AttrOr("src", ""))
	alt := html.EscapeString(s.AttrOr("alt", ""))
	return fmt.Sprintf("<!-- wp:image -->\n<figure class=\"wp-block-image\"><img src=\"%s\" alt=\"%s\"/></figure>\n<!-- /wp:image -->",
		src, alt)
}
