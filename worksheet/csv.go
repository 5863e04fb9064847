package worksheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSV is a queue kept in a CSV export of the sheet.  Results are written back into the same file.
type CSV struct {
	Path string

	mu sync.Mutex
}

func NewCSV(path string) *CSV {
	return &CSV{Path: path}
}

func (c *CSV) Rows(ctx context.Context) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.read()
	if err != nil {
		return nil, err
	}
	rows, _, err := parseRows(records)
	return rows, err
}

// Record fills in the result columns, adding any that are missing from the header, and rewrites
// the file.
func (c *CSV) Record(ctx context.Context, results ...Result) error {
	if len(results) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.read()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("worksheet: %s is empty", c.Path)
	}
	h, err := parseHeader(records[0])
	if err != nil {
		return err
	}

	for _, col := range []string{ColDateImported, ColPostID, ColWordpressLink} {
		if _, ok := h[col]; !ok {
			h[col] = len(records[0])
			records[0] = append(records[0], col)
		}
	}

	for _, r := range results {
		line := r.Index + 1
		if line >= len(records) {
			return fmt.Errorf("worksheet: result for row %d, but %s has %d rows", r.Index, c.Path, len(records)-1)
		}
		for col, value := range resultCells(r) {
			i := h[col]
			for len(records[line]) <= i {
				records[line] = append(records[line], "")
			}
			records[line][i] = value
		}
	}

	return c.write(records)
}

func (c *CSV) read() ([][]string, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("worksheet: couldn't open %s: %w", c.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("worksheet: couldn't parse %s: %w", c.Path, err)
	}
	return records, nil
}

// write replaces the file atomically, so an interrupted run never leaves half a queue behind.
func (c *CSV) write(records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.Path), ".queue-*.csv")
	if err != nil {
		return fmt.Errorf("worksheet: couldn't create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("worksheet: couldn't write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("worksheet: couldn't write %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		return fmt.Errorf("worksheet: couldn't replace %s: %w", c.Path, err)
	}
	return nil
}
