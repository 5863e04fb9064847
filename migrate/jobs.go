package migrate

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/toothbrush/wp-migrate/pagetree"
	"github.com/toothbrush/wp-migrate/worksheet"
)

// Job is a queue row with its destination already parsed.
type Job struct {
	Row  worksheet.Row
	Spec pagetree.PathSpec
}

// Level is the depth of the job's destination: 1 for a top-level page.
func (j Job) Level() int {
	return j.Spec.Depth()
}

// JobResult is what happened to one Job.
type JobResult struct {
	Job     Job
	Outcome Outcome
	Err     error

	// Set when Outcome is Succeeded.
	PageID  int
	Link    string
	Created bool
	Images  int
}

// byLevel groups jobs by depth and returns the depths, shallowest first.  Within a level, rows
// flagged Process First go ahead of the rest; otherwise queue order is kept.
func byLevel(jobs []Job) (map[int][]Job, []int) {
	levels := map[int][]Job{}
	for _, j := range jobs {
		levels[j.Level()] = append(levels[j.Level()], j)
	}
	for _, js := range levels {
		sort.SliceStable(js, func(a, b int) bool {
			return js[a].Row.ProcessFirst && !js[b].Row.ProcessFirst
		})
	}

	keys := maps.Keys(levels)
	sort.Ints(keys)
	return levels, keys
}
