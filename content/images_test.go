package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/toothbrush/wp-migrate/wordpress"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	types []string
}

func (f *fakeUploader) UploadMedia(ctx context.Context, filename, contentType string, body io.Reader) (*wordpress.Media, error) {
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filename)
	f.types = append(f.types, contentType)
	return &wordpress.Media{
		ID:        len(f.calls),
		SourceURL: "https://new.example.edu/wp-content/uploads/" + filename,
	}, nil
}

func TestImageMigrator(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/img/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	logo := srv.URL + "/img/logo.png"
	missing := srv.URL + "/img/missing.png"
	up := &fakeUploader{}
	m := NewImageMigrator(up, srv.Client(), "wp-migrate/test", nil)

	c := &Converted{
		Blocks: `<img src="` + logo + `"/><img src="` + missing + `"/>`,
		Images: []string{logo, missing},
	}
	n, err := m.Migrate(context.Background(), c)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if n != 1 {
		t.Errorf("migrated %d images, want 1", n)
	}

	newLogo := "https://new.example.edu/wp-content/uploads/logo.png"
	if !strings.Contains(c.Blocks, newLogo) || strings.Contains(c.Blocks, logo) {
		t.Errorf("logo not rewritten: %s", c.Blocks)
	}
	if !strings.Contains(c.Blocks, missing) {
		t.Errorf("failed image should keep its original URL: %s", c.Blocks)
	}
	if len(up.types) != 1 || up.types[0] != "image/png" {
		t.Errorf("content types %v", up.types)
	}

	again := &Converted{Blocks: `<img src="` + logo + `"/>`, Images: []string{logo}}
	if _, err := m.Migrate(context.Background(), again); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if len(up.calls) != 1 {
		t.Errorf("shared image uploaded %d times", len(up.calls))
	}
	if !strings.Contains(again.Blocks, newLogo) {
		t.Errorf("cached upload not applied: %s", again.Blocks)
	}
}

func TestImageFilename(t *testing.T) {
	tests := map[string]string{
		"https://x.org/a/b/photo.jpg?w=300": "photo.jpg",
		"https://x.org/a/my%20pic.png":      "my pic.png",
		"https://x.org/":                    "image",
	}
	for in, want := range tests {
		if got := imageFilename(in); got != want {
			t.Errorf("imageFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

// numberedUploader hands out a fresh media URL per upload.
type numberedUploader struct {
	mu sync.Mutex
	n  int
}

func (u *numberedUploader) UploadMedia(ctx context.Context, filename, contentType string, body io.Reader) (*wordpress.Media, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	return &wordpress.Media{
		ID:        u.n,
		SourceURL: fmt.Sprintf("https://new.example.edu/wp-content/uploads/%d.png", u.n),
	}, nil
}

func TestImageMigratorOverlappingURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	short := srv.URL + "/a.png"
	long := srv.URL + "/a.png?v=2"
	up := &numberedUploader{}
	m := NewImageMigrator(up, srv.Client(), "", nil)
	m.Parallel = 1

	c := &Converted{
		Blocks: `<img src="` + long + `"/><img src="` + short + `"/>`,
		Images: []string{long, short},
	}
	if _, err := m.Migrate(context.Background(), c); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if strings.Contains(c.Blocks, srv.URL) {
		t.Errorf("old URL left behind: %s", c.Blocks)
	}
	var got []string
	for _, part := range strings.Split(c.Blocks, `src="`)[1:] {
		got = append(got, part[:strings.Index(part, `"`)])
	}
	if len(got) != 2 || got[0] == got[1] {
		t.Errorf("each image should point at its own upload, got %v", got)
	}
	for i, src := range got {
		if c.Images[i] != src {
			t.Errorf("Images[%d] = %s, blocks say %s", i, c.Images[i], src)
		}
	}
}
