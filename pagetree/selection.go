package pagetree

import (
	"strings"

	"github.com/toothbrush/wp-migrate/wordpress"
)

// Reason explains a Selection.
type Reason int

const (
	Selected Reason = iota
	NoCandidates
	// Ambiguous: the best candidate matches every segment but one (usually the parent).  We'd
	// rather create the page in the right place than attach it to a near miss.
	Ambiguous
	BelowThreshold
)

func (r Reason) String() string {
	switch r {
	case Selected:
		return "selected"
	case NoCandidates:
		return "no candidates"
	case Ambiguous:
		return "ambiguous"
	default:
		return "below threshold"
	}
}

// Selection is the outcome of SelectCandidate.  Page and Score are only meaningful when Reason is
// Selected; Score is also reported for Ambiguous.
type Selection struct {
	Page   wordpress.Page
	Score  int
	Exact  bool
	Reason Reason
}

// SelectCandidate picks the page whose permalink path matches target, using these rules in order:
//
//  1. a permalink path equal to the target wins outright (live pages before trashed ones);
//  2. live pages are preferred to trashed ones;
//  3. a candidate matching every segment, position by position, is selected;
//  4. if the best candidate matches all segments but one, the match is ambiguous and nothing is
//     selected;
//  5. anything scoring lower is not a match.
//
// Only candidates with the same number of segments as target are scored.  Trash markers are
// stripped from candidate slugs before comparing.
func SelectCandidate(target []string, candidates []wordpress.Page) Selection {
	if len(candidates) == 0 || len(target) == 0 {
		return Selection{Reason: NoCandidates}
	}

	ordered := liveFirst(candidates)
	targetPath := strings.Join(target, "/")

	for _, c := range ordered {
		if strings.Join(cleanSegments(c.Link), "/") == targetPath {
			return Selection{Page: c, Score: len(target), Exact: true, Reason: Selected}
		}
	}

	best := -1
	var bestPage wordpress.Page
	for _, c := range ordered {
		score := matchScore(target, cleanSegments(c.Link))
		if score > best {
			best = score
			bestPage = c
		}
	}

	switch {
	case best == len(target):
		return Selection{Page: bestPage, Score: best, Reason: Selected}
	case best > 0 && best == len(target)-1:
		return Selection{Score: best, Reason: Ambiguous}
	default:
		return Selection{Score: best, Reason: BelowThreshold}
	}
}

// matchScore counts segments equal position by position, or -1 when the lengths differ.
func matchScore(target, segments []string) int {
	if len(segments) != len(target) {
		return -1
	}
	score := 0
	for i := range target {
		if strings.EqualFold(target[i], segments[i]) {
			score++
		}
	}
	return score
}

func cleanSegments(link string) []string {
	segs := wordpress.LinkSegments(link)
	for i, s := range segs {
		segs[i] = strings.TrimSuffix(s, wordpress.TrashMarker)
	}
	return segs
}

// liveFirst keeps the original order within the live and trashed groups.
func liveFirst(pages []wordpress.Page) []wordpress.Page {
	out := make([]wordpress.Page, 0, len(pages))
	for _, p := range pages {
		if !p.Trashed() {
			out = append(out, p)
		}
	}
	for _, p := range pages {
		if p.Trashed() {
			out = append(out, p)
		}
	}
	return out
}
