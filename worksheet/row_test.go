package worksheet

import (
	"reflect"
	"testing"

	"github.com/toothbrush/wp-migrate/pagetree"
)

func TestParseRows(t *testing.T) {
	records := [][]string{
		{"source", "Action", "Destination", "Process First", "Post ID", "Main Menu"},
		{"https://old.example.edu/About/", "move", "", "", "", "About"},
		{"https://old.example.edu/staff.html", "create", "/about/team/", "yes", "42", ""},
		{},
	}

	rows, _, err := parseRows(records)
	if err != nil {
		t.Fatalf("parseRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}

	if rows[1].Index != 1 || rows[1].PostID != 42 || !rows[1].ProcessFirst || rows[1].Destination != "/about/team/" {
		t.Errorf("row 1: %+v", rows[1])
	}
	if rows[0].MainMenu != "About" {
		t.Errorf("row 0 main menu %q", rows[0].MainMenu)
	}
	if rows[2].Pending() {
		t.Error("blank row is pending")
	}
}

func TestParseRowsErrors(t *testing.T) {
	if _, _, err := parseRows(nil); err == nil {
		t.Error("expected error for empty table")
	}
	if _, _, err := parseRows([][]string{{"URL", "Action"}}); err == nil {
		t.Error("expected error without a Source column")
	}
}

func TestParseRowsBadPostIDFailsOnlyThatRow(t *testing.T) {
	rows, _, err := parseRows([][]string{
		{"Source", "Action", "Post ID"},
		{"https://x.org/a", "move", "abc"},
		{"https://x.org/b", "move", "7"},
		{"https://x.org/c", "move", ""},
	})
	if err != nil {
		t.Fatalf("parseRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}

	if !rows[0].Pending() {
		t.Error("row with a bad post ID should still be attempted")
	}
	if _, err := rows[0].Spec(); err == nil {
		t.Error("expected Spec to report the bad post ID")
	}
	if rows[1].PostID != 7 {
		t.Errorf("row 1 post ID %d", rows[1].PostID)
	}
	if _, err := rows[2].Spec(); err != nil {
		t.Errorf("row 2: %v", err)
	}
}

func TestRowSpec(t *testing.T) {
	row := Row{Source: "https://old.example.edu/Staff.html", Action: "Create", Destination: "/about/team"}
	spec, err := row.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if !reflect.DeepEqual(spec.Segments, []string{"about", "team"}) || spec.Action != pagetree.Create {
		t.Errorf("got %+v", spec)
	}

	row = Row{Source: "https://old.example.edu/News/Archive/"}
	spec, err = row.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.String() != "news/archive" || spec.Action != pagetree.Move {
		t.Errorf("source fallback: got %+v", spec)
	}

	if _, err := (Row{Source: "x", Action: "destroy"}).Spec(); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestRowPending(t *testing.T) {
	tests := []struct {
		row  Row
		want bool
	}{
		{Row{Source: "https://x.org/a"}, true},
		{Row{Source: "https://x.org/a", PostID: 4}, false},
		{Row{Source: "https://x.org/a", PostID: 4, ProcessFirst: true}, true},
		{Row{}, false},
	}
	for _, tt := range tests {
		if got := tt.row.Pending(); got != tt.want {
			t.Errorf("%+v: Pending() = %v", tt.row, got)
		}
	}
}
