// Package ledger maintains per-member outstanding task counters. Every task
// lifecycle event that changes who is accountable for open work flows through
// Apply, which adjusts the counters and detects drift. Counters never go
// negative: an underflow is clamped at zero, logged, and the member is flagged
// so the next reconciliation sweep recomputes the true count from the task
// table.
package ledger

import (
	"context"
	"fmt"

	"github.com/taskhive/taskhive/internal/logging"
)

// Kind identifies a task lifecycle event that affects workload counters.
type Kind string

const (
	// Created fires when a new task is stored. Counts only if assigned
	// and non-terminal.
	Created Kind = "created"
	// Reassigned fires when a task moves between members.
	Reassigned Kind = "reassigned"
	// EnteredTerminal fires when a task reaches a terminal status.
	EnteredTerminal Kind = "entered_terminal"
	// LeftTerminal fires when a terminal task is reopened.
	LeftTerminal Kind = "left_terminal"
	// Deleted fires when a task is removed outright.
	Deleted Kind = "deleted"
)

// Transition describes one counter-relevant task event.
type Transition struct {
	Kind         Kind
	TaskID       string
	MemberID     string // assignee after the event, empty if unassigned
	PrevMemberID string // assignee before a reassignment, empty if none
	Terminal     bool   // task is in a terminal status at event time
}

// counterStore is the slice of the store the ledger needs.
type counterStore interface {
	IncrementMemberTasks(ctx context.Context, memberID string, delta int) (clamped bool, err error)
	FlagMemberForReconcile(ctx context.Context, memberID string) error
}

// Ledger applies counter transitions against a store.
type Ledger struct {
	store counterStore
	log   *logging.Logger
}

// New creates a ledger over the given store.
func New(store counterStore, log *logging.Logger) *Ledger {
	if log == nil {
		log = logging.Discard()
	}
	return &Ledger{store: store, log: log}
}

// Apply adjusts outstanding counters for one transition. The task mutation
// must already be committed before Apply runs; a failed adjustment leaves a
// flagged member, not an inconsistent task row.
func (l *Ledger) Apply(ctx context.Context, tr Transition) error {
	switch tr.Kind {
	case Created:
		if tr.MemberID == "" || tr.Terminal {
			return nil
		}
		return l.adjust(ctx, tr, tr.MemberID, +1)

	case Reassigned:
		if tr.Terminal {
			return nil
		}
		if tr.PrevMemberID != "" && tr.PrevMemberID != tr.MemberID {
			if err := l.adjust(ctx, tr, tr.PrevMemberID, -1); err != nil {
				return err
			}
		}
		if tr.MemberID != "" && tr.MemberID != tr.PrevMemberID {
			return l.adjust(ctx, tr, tr.MemberID, +1)
		}
		return nil

	case EnteredTerminal:
		if tr.MemberID == "" {
			return nil
		}
		return l.adjust(ctx, tr, tr.MemberID, -1)

	case LeftTerminal:
		if tr.MemberID == "" {
			return nil
		}
		return l.adjust(ctx, tr, tr.MemberID, +1)

	case Deleted:
		if tr.MemberID == "" || tr.Terminal {
			return nil
		}
		return l.adjust(ctx, tr, tr.MemberID, -1)

	default:
		return fmt.Errorf("unknown ledger transition kind %q", tr.Kind)
	}
}

func (l *Ledger) adjust(ctx context.Context, tr Transition, memberID string, delta int) error {
	clamped, err := l.store.IncrementMemberTasks(ctx, memberID, delta)
	if err != nil {
		return fmt.Errorf("adjusting counter for member %s: %w", memberID, err)
	}
	if !clamped {
		return nil
	}

	// The counter wanted to go negative: something earlier lost an
	// increment. Clamp at zero and let the sweep recompute.
	l.log.WarnCtx("consistency violation: counter clamped at zero", map[string]any{
		"member_id":  memberID,
		"task_id":    tr.TaskID,
		"transition": string(tr.Kind),
		"delta":      delta,
	})
	if err := l.store.FlagMemberForReconcile(ctx, memberID); err != nil {
		return fmt.Errorf("flagging member %s for reconcile: %w", memberID, err)
	}
	return nil
}
