package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidTreeStructure is matched by every structural validation failure
var ErrInvalidTreeStructure = errors.New("invalid tree structure")

// InvalidTreeStructureError describes which node broke which invariant
type InvalidTreeStructureError struct {
	ID     string
	Reason string
}

func (e *InvalidTreeStructureError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidTreeStructure, e.Reason)
	}
	return fmt.Sprintf("%s: node %q: %s", ErrInvalidTreeStructure, e.ID, e.Reason)
}

func (e *InvalidTreeStructureError) Is(target error) bool {
	return target == ErrInvalidTreeStructure
}

func invalid(id, format string, args ...any) error {
	return &InvalidTreeStructureError{ID: id, Reason: fmt.Sprintf(format, args...)}
}
