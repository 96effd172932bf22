package engine

import (
	"errors"
	"fmt"

	"github.com/taskhive/taskhive/internal/store"
)

// ErrAlreadyMember is returned when adding an email already on the roster.
var ErrAlreadyMember = errors.New("a member with this email is already in the group")

// NotFoundError reports a missing task, member, or group.
type NotFoundError struct {
	Kind string // "task", "member", "group"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PermissionError reports an operation the caller's role does not allow.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// notFound converts a store miss into a NotFoundError, passing other
// failures through unchanged.
func notFound(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotExist) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}
