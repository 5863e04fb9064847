package worksheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/toothbrush/wp-migrate/pagetree"
)

// Column headings, in the order a fresh sheet has them.
const (
	ColSource        = "Source"
	ColAction        = "Action"
	ColDateImported  = "Date Imported"
	ColDestination   = "Destination"
	ColProcessFirst  = "Process First"
	ColMainMenu      = "Main Menu"
	ColPostID        = "Post ID"
	ColWordpressLink = "Wordpress Link"
)

var Columns = []string{
	ColSource,
	ColAction,
	ColDateImported,
	ColDestination,
	ColProcessFirst,
	ColMainMenu,
	ColPostID,
	ColWordpressLink,
}

// DateLayout is how Date Imported is written.
const DateLayout = "2006-01-02 15:04"

// Row is one page to migrate.
type Row struct {
	// Position among the data rows, 0-based, header excluded.
	Index int

	Source        string
	Action        string
	DateImported  string
	Destination   string
	ProcessFirst  bool
	MainMenu      string
	PostID        int
	WordpressLink string

	// a cell that couldn't be read; the row fails on its own instead of the whole queue
	invalid error
}

// Spec is where the row's page goes: Destination if set, otherwise the path of Source.
func (r Row) Spec() (pagetree.PathSpec, error) {
	if r.invalid != nil {
		return pagetree.PathSpec{}, r.invalid
	}
	action, err := pagetree.ParseAction(r.Action)
	if err != nil {
		return pagetree.PathSpec{}, fmt.Errorf("worksheet: row %d: %w", r.Index, err)
	}

	raw := strings.TrimSpace(r.Destination)
	if raw == "" {
		raw = r.Source
	}
	return pagetree.NewPathSpec(raw, action)
}

// Pending rows still need migrating: never imported, or flagged to be redone.
func (r Row) Pending() bool {
	return strings.TrimSpace(r.Source) != "" && (r.PostID == 0 || r.ProcessFirst)
}

// Result is written back to a row once its page exists.
type Result struct {
	Index  int
	PostID int
	Link   string
	At     time.Time
}

// Queue is a table of rows we read from and write results back to.
type Queue interface {
	Rows(ctx context.Context) ([]Row, error)
	Record(ctx context.Context, results ...Result) error
}

// header maps column heading to position.
type header map[string]int

func parseHeader(cells []string) (header, error) {
	h := header{}
	for i, c := range cells {
		name := strings.TrimSpace(c)
		for _, known := range Columns {
			if strings.EqualFold(name, known) {
				h[known] = i
			}
		}
	}
	if _, ok := h[ColSource]; !ok {
		return nil, fmt.Errorf("worksheet: header has no %q column: %q", ColSource, cells)
	}
	return h, nil
}

func (h header) cell(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRows turns a header line plus records into rows.  Blank lines keep their index so write
// back lands on the right line.
func parseRows(records [][]string) ([]Row, header, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("worksheet: empty table")
	}
	h, err := parseHeader(records[0])
	if err != nil {
		return nil, nil, err
	}

	rows := []Row{}
	for i, rec := range records[1:] {
		row := Row{
			Index:         i,
			Source:        h.cell(rec, ColSource),
			Action:        h.cell(rec, ColAction),
			DateImported:  h.cell(rec, ColDateImported),
			Destination:   h.cell(rec, ColDestination),
			ProcessFirst:  truthy(h.cell(rec, ColProcessFirst)),
			MainMenu:      h.cell(rec, ColMainMenu),
			WordpressLink: h.cell(rec, ColWordpressLink),
		}
		if raw := h.cell(rec, ColPostID); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				row.invalid = fmt.Errorf("worksheet: row %d: bad %s %q: %w", i, ColPostID, raw, err)
			}
			row.PostID = id
		}
		rows = append(rows, row)
	}

	return rows, h, nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "x", "1":
		return true
	}
	return false
}

// resultCells are the columns a Result fills in.
func resultCells(r Result) map[string]string {
	return map[string]string{
		ColPostID:        strconv.Itoa(r.PostID),
		ColWordpressLink: r.Link,
		ColDateImported:  r.At.Format(DateLayout),
	}
}
