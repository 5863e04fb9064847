package migrate

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/toothbrush/wp-migrate/worksheet"
)

func newTestRunner(t *testing.T, s *site) (*Runner, *oldSite) {
	t.Helper()
	old := &oldSite{broken: map[string]bool{}}
	r := NewRunner(s, 0, nil)
	r.Source = old
	r.Workers = 3
	return r, old
}

func TestRunCreatesParentsBeforeChildren(t *testing.T) {
	s := newSite()
	r, _ := newTestRunner(t, s)

	// queue order deliberately deepest first
	rows := []worksheet.Row{
		row(0, "https://old.example.edu/people.html", "create", "/about/team/people"),
		row(1, "https://old.example.edu/team.html", "create", "/about/team"),
		row(2, "https://old.example.edu/about.html", "create", "/about"),
	}

	summary, err := r.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 3 || summary.Total() != 3 {
		t.Errorf("summary: %s", summary)
	}
	if got, want := s.createdSlugs(), []string{"about", "team", "people"}; !reflect.DeepEqual(got, want) {
		t.Errorf("created %v, want %v", got, want)
	}
	if summary.PagesCreated != 3 {
		t.Errorf("PagesCreated = %d", summary.PagesCreated)
	}
	if !strings.Contains(s.creates[2].Content, "Migrated body") {
		t.Errorf("leaf content not migrated: %q", s.creates[2].Content)
	}
}

func TestRunCreateModeMakesPlaceholders(t *testing.T) {
	s := newSite()
	r, _ := newTestRunner(t, s)

	summary, err := r.Run(context.Background(), []worksheet.Row{
		row(0, "https://old.example.edu/people.html", "create", "/about/team/people"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("summary: %s", summary)
	}
	if got := s.createdSlugs(); !reflect.DeepEqual(got, []string{"about", "team", "people"}) {
		t.Errorf("created %v", got)
	}
	if s.creates[0].Title != "About" || !strings.Contains(s.creates[0].Content, "<p>About</p>") {
		t.Errorf("placeholder: %+v", s.creates[0])
	}
}

func TestRunMoveLogsMissingAncestor(t *testing.T) {
	s := newSite()
	s.add(5, 0, "about", "about")
	r, old := newTestRunner(t, s)

	log, err := OpenMissingLog(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatal(err)
	}
	r.Missing = log

	summary, err := r.Run(context.Background(), []worksheet.Row{
		row(0, "https://old.example.edu/people.html", "move", "/about/team/people"),
		row(1, "https://old.example.edu/news.html", "move", "/news"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.MissingAncestor != 1 || summary.Succeeded != 1 {
		t.Errorf("summary: %s", summary)
	}
	if got := s.createdSlugs(); !reflect.DeepEqual(got, []string{"news"}) {
		t.Errorf("created %v, want only the top-level leaf", got)
	}
	for _, u := range old.fetched {
		if strings.Contains(u, "people") {
			t.Errorf("fetched %s although its ancestor is missing", u)
		}
	}

	entries, _ := log.Entries()
	if !reflect.DeepEqual(entries, []string{"https://old.example.edu/people.html"}) {
		t.Errorf("log entries %v", entries)
	}
}

func TestRunMoveMissingTopLevelParent(t *testing.T) {
	s := newSite()
	r, old := newTestRunner(t, s)

	log, err := OpenMissingLog(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatal(err)
	}
	r.Missing = log

	summary, err := r.Run(context.Background(), []worksheet.Row{
		row(0, "https://old.example.edu/team.html", "move", "/about/team"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.MissingAncestor != 1 || summary.Succeeded != 0 {
		t.Errorf("summary: %s", summary)
	}
	if got := s.createdSlugs(); len(got) != 0 {
		t.Errorf("created %v, want nothing", got)
	}
	if len(old.fetched) != 0 {
		t.Errorf("fetched %v although the parent is missing", old.fetched)
	}

	entries, _ := log.Entries()
	if !reflect.DeepEqual(entries, []string{"https://old.example.edu/team.html"}) {
		t.Errorf("log entries %v", entries)
	}
}

func TestRunWritesResultsBack(t *testing.T) {
	s := newSite()
	r, _ := newTestRunner(t, s)
	q := &memQueue{}
	r.Queue = q

	_, err := r.Run(context.Background(), []worksheet.Row{
		row(4, "https://old.example.edu/about.html", "create", "/about"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.results) != 1 {
		t.Fatalf("results %+v", q.results)
	}
	got := q.results[0]
	if got.Index != 4 || got.PostID == 0 || got.Link != "https://new.example.edu/about/" || got.At.IsZero() {
		t.Errorf("result %+v", got)
	}
}

func TestRunUpdatesExistingPages(t *testing.T) {
	s := newSite()
	s.add(5, 0, "about", "about")
	s.add(9, 0, "contact", "contact")
	r, _ := newTestRunner(t, s)

	withID := row(1, "https://old.example.edu/contact.html", "move", "/contact")
	withID.PostID = 9
	withID.ProcessFirst = true

	summary, err := r.Run(context.Background(), []worksheet.Row{
		row(0, "https://old.example.edu/about.html", "move", "/about"),
		withID,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Errorf("summary: %s", summary)
	}
	if len(s.creates) != 0 {
		t.Errorf("created %v", s.createdSlugs())
	}
	if !reflect.DeepEqual(s.updates, []int{9, 5}) && !reflect.DeepEqual(s.updates, []int{5, 9}) {
		t.Errorf("updates %v", s.updates)
	}
}

func TestRunCountsSkippedAndFailed(t *testing.T) {
	s := newSite()
	r, old := newTestRunner(t, s)
	old.broken["https://old.example.edu/broken.html"] = true

	done := row(0, "https://old.example.edu/done.html", "move", "/done")
	done.PostID = 3

	summary, err := r.Run(context.Background(), []worksheet.Row{
		done,
		row(1, "https://old.example.edu/odd.html", "teleport", "/odd"),
		row(2, "https://old.example.edu/broken.html", "create", "/broken"),
		row(3, "https://old.example.edu/fine.html", "create", "/fine"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Summary{Succeeded: 1, Failed: 2, Skipped: 1, PagesCreated: 1}
	if summary != want {
		t.Errorf("got %s, want %s", summary, want)
	}
}

func TestRunInterrupted(t *testing.T) {
	s := newSite()
	r, _ := newTestRunner(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, []worksheet.Row{
		row(0, "https://old.example.edu/about.html", "create", "/about"),
		row(1, "https://old.example.edu/team.html", "create", "/about/team"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if !summary.Interrupted || summary.Skipped != 2 {
		t.Errorf("summary: %s", summary)
	}
	if len(s.creates) != 0 {
		t.Errorf("created %v after cancellation", s.createdSlugs())
	}
}

func TestRunAddsMenuItems(t *testing.T) {
	s := newSite()
	r, _ := newTestRunner(t, s)
	m := &menus{}
	r.Menus = m
	r.MenuID = 3

	about := row(0, "https://old.example.edu/about.html", "create", "/about")
	about.MainMenu = "About Us"
	if _, err := r.Run(context.Background(), []worksheet.Row{about}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.items) != 1 {
		t.Fatalf("menu items %+v", m.items)
	}
	item := m.items[0]
	if item.Title != "About Us" || item.Menus != 3 || item.ObjectID != s.pages[0].ID || item.Object != "page" {
		t.Errorf("menu item %+v", item)
	}
}

func TestRunRootDestinationUpdatesHome(t *testing.T) {
	s := newSite()
	s.add(2, 0, "home", "home")
	r, _ := newTestRunner(t, s)

	summary, err := r.Run(context.Background(), []worksheet.Row{
		row(0, "https://old.example.edu/", "move", ""),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || len(s.creates) != 0 || !reflect.DeepEqual(s.updates, []int{2}) {
		t.Errorf("summary %s, creates %v, updates %v", summary, s.createdSlugs(), s.updates)
	}
}

func TestByLevel(t *testing.T) {
	mk := func(dest string, first bool) Job {
		r := row(0, "https://old.example.edu"+dest, "move", dest)
		r.ProcessFirst = first
		spec, _ := r.Spec()
		return Job{Row: r, Spec: spec}
	}
	levels, depths := byLevel([]Job{
		mk("/a/b/c", false),
		mk("/a", false),
		mk("/x/y", false),
		mk("/a/b", true),
	})

	if !reflect.DeepEqual(depths, []int{1, 2, 3}) {
		t.Errorf("depths %v", depths)
	}
	if got := levels[2][0].Spec.String(); got != "a/b" {
		t.Errorf("process-first row not first in its level: %s", got)
	}
}
