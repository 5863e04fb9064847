package pagetree

import (
	"fmt"
	"net/url"
	"strings"
)

// Action says what a migration row may do to the destination tree.
type Action int

const (
	// Move requires the full destination hierarchy to exist already.
	Move Action = iota
	// Create may synthesise missing ancestor placeholder pages.
	Create
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	default:
		return "move"
	}
}

// ParseAction accepts the values found in the work queue's Action column.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move", "":
		return Move, nil
	case "create", "new":
		return Create, nil
	}
	return Move, fmt.Errorf("pagetree: unknown action %q", s)
}

// PathSpec is a destination path, root first, plus what we're allowed to do to build it.  Make
// them with NewPathSpec so the segments are always normalised.
type PathSpec struct {
	Segments []string
	Action   Action
}

// NewPathSpec normalises a full URL ("https://old.example.edu/About/Team/?x=1") or a bare path
// ("/about/team") into its slug segments.
func NewPathSpec(raw string, action Action) (PathSpec, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return PathSpec{}, fmt.Errorf("pagetree: couldn't parse path %q: %w", raw, err)
	}

	segments := []string{}
	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		segments = append(segments, strings.ToLower(seg))
	}

	return PathSpec{Segments: segments, Action: action}, nil
}

// String renders the path without leading or trailing slashes: "about/team".
func (s PathSpec) String() string {
	return strings.Join(s.Segments, "/")
}

func (s PathSpec) Depth() int {
	return len(s.Segments)
}

// Leaf is the final segment, or "" for the site root.
func (s PathSpec) Leaf() string {
	if len(s.Segments) == 0 {
		return ""
	}
	return s.Segments[len(s.Segments)-1]
}

// Parent drops the leaf.  The parent of a top-level page is the (empty) root path.
func (s PathSpec) Parent() PathSpec {
	if len(s.Segments) == 0 {
		return s
	}
	return s.Prefix(len(s.Segments) - 1)
}

// Prefix returns the first n segments as a new spec with the same action.
func (s PathSpec) Prefix(n int) PathSpec {
	if n > len(s.Segments) {
		n = len(s.Segments)
	}
	segs := make([]string, n)
	copy(segs, s.Segments[:n])
	return PathSpec{Segments: segs, Action: s.Action}
}
