package pagetree

import (
	"errors"
	"fmt"
)

// MissingAncestorError is the expected failure of a Move: an ancestor of the destination doesn't
// exist and we're not allowed to make it.  Queue the path and try again once it does.
type MissingAncestorError struct {
	Slug string
	// The path up to and including the missing slug.
	Path string
}

func (e *MissingAncestorError) Error() string {
	return fmt.Sprintf("pagetree: missing ancestor %q (path %s)", e.Slug, e.Path)
}

// IsMissingAncestor is shorthand for errors.As with a MissingAncestorError.
func IsMissingAncestor(err error) (*MissingAncestorError, bool) {
	var missing *MissingAncestorError
	if errors.As(err, &missing) {
		return missing, true
	}
	return nil, false
}
