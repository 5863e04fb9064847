package migrate

import "fmt"

// Outcome of one queue row.
type Outcome int8

const (
	Succeeded Outcome = iota
	Failed
	MissingAncestor
	// not pending, or never dispatched because the run was interrupted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case MissingAncestor:
		return "missing ancestor"
	default:
		return "skipped"
	}
}

// Summary is what a run did.
type Summary struct {
	Succeeded       int
	Failed          int
	MissingAncestor int
	Skipped         int

	// pages made along the way, placeholders included
	PagesCreated int
	Interrupted  bool
}

func (s *Summary) add(o Outcome) {
	switch o {
	case Succeeded:
		s.Succeeded++
	case Failed:
		s.Failed++
	case MissingAncestor:
		s.MissingAncestor++
	default:
		s.Skipped++
	}
}

func (s Summary) Total() int {
	return s.Succeeded + s.Failed + s.MissingAncestor + s.Skipped
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d succeeded, %d failed, %d missing ancestor, %d skipped (%d pages created)",
		s.Succeeded, s.Failed, s.MissingAncestor, s.Skipped, s.PagesCreated)
	if s.Interrupted {
		out += "; interrupted"
	}
	return out
}
