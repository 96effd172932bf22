package engine

import (
	"context"
)

// Drift is one corrected counter from a reconciliation sweep.
type Drift struct {
	MemberID string
	Email    string
	Stored   int
	Actual   int
}

// ReconcileCounters recomputes every member's outstanding-task counter from
// the task table and overwrites drifted values. This is the authoritative
// correction for counters left stale by crashes or races; it is idempotent
// and safe to run at any time. It returns the corrections made.
func (e *Engine) ReconcileCounters(ctx context.Context) ([]Drift, error) {
	members, err := e.store.AllMembers(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.store.ActiveCountsByMember(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, m := range members {
		actual := counts[m.ID]
		if m.OutstandingTasks == actual && !m.NeedsReconcile {
			continue
		}

		if err := e.store.SetMemberTasks(ctx, m.ID, actual); err != nil {
			return drifts, err
		}

		if m.OutstandingTasks != actual {
			e.log.WarnCtx("counter drift corrected", map[string]any{
				"member_id": m.ID,
				"email":     m.Email,
				"stored":    m.OutstandingTasks,
				"actual":    actual,
			})
			drifts = append(drifts, Drift{
				MemberID: m.ID,
				Email:    m.Email,
				Stored:   m.OutstandingTasks,
				Actual:   actual,
			})
		}
	}

	e.log.Infof("reconciliation sweep finished: %d members checked, %d corrected",
		len(members), len(drifts))
	return drifts, nil
}
