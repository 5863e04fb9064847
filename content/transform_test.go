package content

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `<html><head><title>Old Site | About</title></head>
<body>
<nav><a href="/">menu</a></nav>
<main>
  <h1>About Us</h1>
  <p>Welcome to <a href="/contact">the office</a>.</p>
  <p>   </p>
  <h3>History</h3>
  <ul><li>One</li></ul>
  <ol><li>First</li></ol>
  <img src="img/logo.png" alt="Logo">
  <div class="row"><p>Nested</p></div>
  <script>track()</script>
  <table><tr><td>1</td></tr></table>
  <hr>
  <blockquote>Quoted</blockquote>
  <video src="intro.mp4"></video>
  Loose text
</main>
<footer>Copyright</footer>
</body></html>`

func parse(t *testing.T, doc string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestTransformBlocks(t *testing.T) {
	base, _ := url.Parse("https://old.example.edu/about/")
	got, err := NewTransformer("").Transform(parse(t, samplePage), base)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if got.Title != "About Us" {
		t.Errorf("title %q", got.Title)
	}

	want := []string{
		"<!-- wp:heading {\"level\":1} -->\n<h1 class=\"wp-block-heading\">About Us</h1>",
		`<a href="https://old.example.edu/contact">the office</a>`,
		`<!-- wp:heading {"level":3} -->`,
		"<!-- wp:list -->\n<ul><li>One</li></ul>",
		`<!-- wp:list {"ordered":true} -->`,
		`<img src="https://old.example.edu/about/img/logo.png" alt="Logo"/>`,
		"<p>Nested</p>",
		"<!-- wp:table -->",
		"<!-- wp:separator -->",
		"<!-- wp:quote -->\n<blockquote class=\"wp-block-quote\">Quoted</blockquote>",
		"<!-- wp:html -->\n<video",
		"<p>Loose text</p>",
	}
	for _, w := range want {
		if !strings.Contains(got.Blocks, w) {
			t.Errorf("blocks missing %q\n%s", w, got.Blocks)
		}
	}

	for _, unwanted := range []string{"track()", "menu", "Copyright", "<p></p>"} {
		if strings.Contains(got.Blocks, unwanted) {
			t.Errorf("blocks contain %q", unwanted)
		}
	}

	if len(got.Images) != 1 || got.Images[0] != "https://old.example.edu/about/img/logo.png" {
		t.Errorf("images %v", got.Images)
	}
}

func TestTransformSelector(t *testing.T) {
	doc := `<html><head><title>Fallback</title></head><body>
		<div class="sidebar"><p>Ignore me</p></div>
		<div class="entry"><p>Keep me</p></div>
	</body></html>`

	got, err := NewTransformer(".missing, .entry").Transform(parse(t, doc), nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.Contains(got.Blocks, "Keep me") || strings.Contains(got.Blocks, "Ignore me") {
		t.Errorf("wrong content root:\n%s", got.Blocks)
	}
	if got.Title != "Fallback" {
		t.Errorf("title %q, want the document title", got.Title)
	}

	_, err = NewTransformer("#nothing").Transform(parse(t, doc), nil)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestTransformFigure(t *testing.T) {
	doc := `<main><figure><img src="/a.jpg"><figcaption>Campus</figcaption></figure></main>`
	base, _ := url.Parse("https://old.example.edu/")

	got, err := NewTransformer("main").Transform(parse(t, doc), base)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.Contains(got.Blocks, `<figure class="wp-block-image">`) || !strings.Contains(got.Blocks, "<figcaption>Campus</figcaption>") {
		t.Errorf("figure not kept as image block:\n%s", got.Blocks)
	}
	if len(got.Images) != 1 || got.Images[0] != "https://old.example.edu/a.jpg" {
		t.Errorf("images %v", got.Images)
	}
}
