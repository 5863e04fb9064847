package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/toothbrush/wp-migrate/worksheet"
)

// Reprocess replays the queue rows whose source URL is in the missing-ancestors log, level by
// level, and drops the log entries that now succeed.  Entries that still fail stay put, as do
// entries with no matching row.
func (r *Runner) Reprocess(ctx context.Context, rows []worksheet.Row) (Summary, error) {
	if r.Missing == nil {
		return Summary{}, fmt.Errorf("migrate: no missing-ancestors log configured")
	}

	entries, err := r.Missing.Entries()
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		r.Logger.Printf("missing-ancestors log %s is empty, nothing to do", r.Missing.Path)
		return Summary{}, nil
	}

	wanted := map[string]bool{}
	for _, e := range entries {
		wanted[e] = true
	}

	matched := map[string]bool{}
	selected := []worksheet.Row{}
	for _, row := range rows {
		src := strings.TrimSpace(row.Source)
		if !wanted[src] {
			continue
		}
		// logged rows are redone even if someone filled in a post ID meanwhile
		row.ProcessFirst = true
		selected = append(selected, row)
		matched[src] = true
	}
	for _, e := range entries {
		if !matched[e] {
			r.Logger.Printf("no queue row for %s; leaving it in the log", e)
		}
	}

	r.Logger.Printf("reprocessing %d of %d logged URLs", len(matched), len(entries))
	results, summary := r.run(ctx, selected)

	resolved := []string{}
	for _, res := range results {
		if res.Outcome == Succeeded {
			resolved = append(resolved, res.Job.Row.Source)
		}
	}
	if err := r.Missing.Remove(resolved...); err != nil {
		return summary, err
	}
	r.Logger.Printf("removed %d resolved URLs from %s", len(resolved), r.Missing.Path)

	if summary.Interrupted {
		return summary, fmt.Errorf("migrate: reprocessing interrupted: %w", context.Cause(ctx))
	}
	return summary, nil
}
