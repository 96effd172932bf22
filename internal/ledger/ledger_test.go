package ledger

import (
	"context"
	"testing"
)

// fakeCounters records counter adjustments and simulates clamping for
// members whose counter is already zero.
type fakeCounters struct {
	counts  map[string]int
	flagged map[string]bool
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{
		counts:  make(map[string]int),
		flagged: make(map[string]bool),
	}
}

func (f *fakeCounters) IncrementMemberTasks(_ context.Context, memberID string, delta int) (bool, error) {
	next := f.counts[memberID] + delta
	if next < 0 {
		f.counts[memberID] = 0
		return true, nil
	}
	f.counts[memberID] = next
	return false, nil
}

func (f *fakeCounters) FlagMemberForReconcile(_ context.Context, memberID string) error {
	f.flagged[memberID] = true
	return nil
}

func TestApplyTransitions(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]int
		tr     Transition
		want   map[string]int
	}{
		{
			name: "created assigned",
			tr:   Transition{Kind: Created, MemberID: "m1"},
			want: map[string]int{"m1": 1},
		},
		{
			name: "created unassigned",
			tr:   Transition{Kind: Created},
			want: map[string]int{},
		},
		{
			name: "created already terminal",
			tr:   Transition{Kind: Created, MemberID: "m1", Terminal: true},
			want: map[string]int{},
		},
		{
			name:   "reassigned moves count",
			before: map[string]int{"m1": 2},
			tr:     Transition{Kind: Reassigned, PrevMemberID: "m1", MemberID: "m2"},
			want:   map[string]int{"m1": 1, "m2": 1},
		},
		{
			name:   "reassigned to same member",
			before: map[string]int{"m1": 2},
			tr:     Transition{Kind: Reassigned, PrevMemberID: "m1", MemberID: "m1"},
			want:   map[string]int{"m1": 2},
		},
		{
			name:   "reassigned terminal task",
			before: map[string]int{"m1": 2},
			tr:     Transition{Kind: Reassigned, PrevMemberID: "m1", MemberID: "m2", Terminal: true},
			want:   map[string]int{"m1": 2},
		},
		{
			name: "assigned from unassigned",
			tr:   Transition{Kind: Reassigned, MemberID: "m2"},
			want: map[string]int{"m2": 1},
		},
		{
			name:   "unassigned from member",
			before: map[string]int{"m1": 1},
			tr:     Transition{Kind: Reassigned, PrevMemberID: "m1"},
			want:   map[string]int{"m1": 0},
		},
		{
			name:   "entered terminal",
			before: map[string]int{"m1": 3},
			tr:     Transition{Kind: EnteredTerminal, MemberID: "m1"},
			want:   map[string]int{"m1": 2},
		},
		{
			name:   "left terminal",
			before: map[string]int{"m1": 1},
			tr:     Transition{Kind: LeftTerminal, MemberID: "m1"},
			want:   map[string]int{"m1": 2},
		},
		{
			name:   "deleted open task",
			before: map[string]int{"m1": 1},
			tr:     Transition{Kind: Deleted, MemberID: "m1"},
			want:   map[string]int{"m1": 0},
		},
		{
			name:   "deleted terminal task",
			before: map[string]int{"m1": 1},
			tr:     Transition{Kind: Deleted, MemberID: "m1", Terminal: true},
			want:   map[string]int{"m1": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counters := newFakeCounters()
			for id, n := range tt.before {
				counters.counts[id] = n
			}

			l := New(counters, nil)
			if err := l.Apply(context.Background(), tt.tr); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for id, want := range tt.want {
				if got := counters.counts[id]; got != want {
					t.Errorf("counter[%s] = %d, want %d", id, got, want)
				}
			}
			for id := range counters.counts {
				if _, expected := tt.want[id]; !expected && counters.counts[id] != 0 {
					t.Errorf("unexpected counter[%s] = %d", id, counters.counts[id])
				}
			}
		})
	}
}

func TestApplyClampFlagsMember(t *testing.T) {
	counters := newFakeCounters()
	l := New(counters, nil)

	err := l.Apply(context.Background(), Transition{
		Kind:     EnteredTerminal,
		TaskID:   "t1",
		MemberID: "m1",
	})
	if err != nil {
		t.Fatalf("clamped apply must not error: %v", err)
	}
	if counters.counts["m1"] != 0 {
		t.Errorf("counter = %d, want 0 (clamped)", counters.counts["m1"])
	}
	if !counters.flagged["m1"] {
		t.Errorf("member should be flagged for reconciliation after clamp")
	}
}

func TestApplyUnknownKind(t *testing.T) {
	l := New(newFakeCounters(), nil)
	if err := l.Apply(context.Background(), Transition{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown transition kind")
	}
}
