package worksheet

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheet is a queue living in a Google Sheets range such as "Migration!A:H".  The range must start
// at the header row.
type Sheet struct {
	Service       *sheets.Service
	SpreadsheetID string
	Range         string

	mu     sync.Mutex
	header header
}

// NewSheet connects to the Sheets API.  Pass option.WithCredentialsFile for a service account.
func NewSheet(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*Sheet, error) {
	if spreadsheetID == "" || rng == "" {
		return nil, fmt.Errorf("worksheet: need both a spreadsheet ID and a range")
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("worksheet: couldn't create Sheets client: %w", err)
	}

	return &Sheet{Service: srv, SpreadsheetID: spreadsheetID, Range: rng}, nil
}

func (s *Sheet) Rows(ctx context.Context) ([]Row, error) {
	resp, err := s.Service.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("worksheet: couldn't read %s: %w", s.Range, err)
	}

	records := make([][]string, 0, len(resp.Values))
	for _, line := range resp.Values {
		rec := make([]string, len(line))
		for i, v := range line {
			rec[i] = fmt.Sprint(v)
		}
		records = append(records, rec)
	}

	rows, h, err := parseRows(records)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.header = h
	s.mu.Unlock()

	return rows, nil
}

// Record writes the result columns of each row in a single batch update.  Columns the header
// doesn't have are skipped.
func (s *Sheet) Record(ctx context.Context, results ...Result) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	h := s.header
	s.mu.Unlock()
	if h == nil {
		if _, err := s.Rows(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		h = s.header
		s.mu.Unlock()
	}

	tab, firstCol, firstRow := splitRange(s.Range)

	data := []*sheets.ValueRange{}
	for _, r := range results {
		for col, value := range resultCells(r) {
			i, ok := h[col]
			if !ok {
				continue
			}
			// +1 for the header line
			cell := fmt.Sprintf("%s%d", columnLetter(firstCol+i), firstRow+1+r.Index)
			if tab != "" {
				cell = tab + "!" + cell
			}
			data = append(data, &sheets.ValueRange{
				Range:  cell,
				Values: [][]interface{}{{value}},
			})
		}
	}
	if len(data) == 0 {
		return nil
	}

	_, err := s.Service.Spreadsheets.Values.BatchUpdate(s.SpreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("worksheet: couldn't write results: %w", err)
	}
	return nil
}

var a1Notation = regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]*(:[A-Za-z]{0,3}[0-9]*)?$`)

// splitRange picks apart "Tab!B3:I" into the tab name, the 0-based first column and the 1-based
// first row.
func splitRange(rng string) (tab string, col int, row int) {
	cells := rng
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		tab, cells = rng[:i], rng[i+1:]
	} else if !a1Notation.MatchString(rng) {
		// a bare tab name
		return rng, 0, 1
	}
	start := strings.SplitN(cells, ":", 2)[0]

	letters := strings.TrimRightFunc(start, func(r rune) bool { return r >= '0' && r <= '9' })
	digits := start[len(letters):]

	for _, r := range strings.ToUpper(letters) {
		col = col*26 + int(r-'A'+1)
	}
	if col > 0 {
		col--
	}
	row = 1
	if digits != "" {
		fmt.Sscanf(digits, "%d", &row)
	}
	return tab, col, row
}

// columnLetter turns a 0-based column index into its A1 name: 0 is A, 26 is AA.
func columnLetter(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
