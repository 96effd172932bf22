package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "taskhive.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableExists(t *testing.T, s *Store, table string) bool {
	t.Helper()
	var name string
	row := s.SQL().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
	if err := row.Scan(&name); err != nil {
		return false
	}
	return true
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"schema_version", "groups", "members", "tasks"} {
		if !tableExists(t, s, table) {
			t.Fatalf("expected table %q to exist", table)
		}
	}
}

func TestOpenIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "taskhive.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	s, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = s.Close() }()

	var count int
	row := s.SQL().QueryRow(`SELECT COUNT(*) FROM schema_version`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan schema_version count: %v", err)
	}
	if count != len(migrations) {
		t.Fatalf("expected %d schema_version rows, got %d", len(migrations), count)
	}
}

func TestGroupCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &Group{ID: "g1", Name: "Backend", Description: "server team", CreatedBy: "admin@example.com"}
	if err := s.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}

	got, err := s.GroupByID(ctx, "g1")
	if err != nil {
		t.Fatalf("group by id: %v", err)
	}
	if got.Name != "Backend" || got.CreatedBy != "admin@example.com" {
		t.Errorf("unexpected group: %+v", got)
	}

	if _, err := s.GroupByID(ctx, "missing"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	if err := s.AddMember(ctx, &Member{ID: "m1", GroupID: "g1", Name: "Ana", Email: "ana@example.com", Role: RoleAdmin}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	groups, err := s.GroupsByMemberEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("groups by member: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != "g1" {
		t.Errorf("expected [g1], got %+v", groups)
	}

	if err := s.DeleteGroup(ctx, "g1"); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if _, err := s.MemberByID(ctx, "m1"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected cascade to remove member, got %v", err)
	}
	if err := s.DeleteGroup(ctx, "g1"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist on double delete, got %v", err)
	}
}

func TestMemberRosterOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, &Group{ID: "g1", Name: "Team", CreatedBy: "a@x.com"}); err != nil {
		t.Fatalf("create group: %v", err)
	}

	for _, m := range []Member{
		{ID: "m1", GroupID: "g1", Name: "First", Email: "first@x.com"},
		{ID: "m2", GroupID: "g1", Name: "Second", Email: "second@x.com"},
		{ID: "m3", GroupID: "g1", Name: "Third", Email: "third@x.com"},
	} {
		m := m
		if err := s.AddMember(ctx, &m); err != nil {
			t.Fatalf("add member %s: %v", m.ID, err)
		}
	}

	roster, err := s.MembersByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("members by group: %v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("expected 3 members, got %d", len(roster))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if roster[i].ID != want {
			t.Errorf("roster[%d] = %s, want %s", i, roster[i].ID, want)
		}
	}
	if roster[0].Availability != 100 {
		t.Errorf("expected default availability 100, got %d", roster[0].Availability)
	}
}

func TestAddMemberDuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, &Group{ID: "g1", Name: "Team", CreatedBy: "a@x.com"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := s.AddMember(ctx, &Member{ID: "m1", GroupID: "g1", Name: "Ana", Email: "ana@x.com"}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.AddMember(ctx, &Member{ID: "m2", GroupID: "g1", Name: "Ana2", Email: "ana@x.com"}); err == nil {
		t.Fatalf("expected unique constraint violation for duplicate email")
	}
}

func TestIncrementMemberTasks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, &Group{ID: "g1", Name: "Team", CreatedBy: "a@x.com"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := s.AddMember(ctx, &Member{ID: "m1", GroupID: "g1", Name: "Ana", Email: "ana@x.com"}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	clamped, err := s.IncrementMemberTasks(ctx, "m1", 2)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if clamped {
		t.Errorf("unexpected clamp on increment")
	}

	clamped, err = s.IncrementMemberTasks(ctx, "m1", -3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !clamped {
		t.Errorf("expected clamp when counter would go negative")
	}

	m, err := s.MemberByID(ctx, "m1")
	if err != nil {
		t.Fatalf("member by id: %v", err)
	}
	if m.OutstandingTasks != 0 {
		t.Errorf("expected counter floored at 0, got %d", m.OutstandingTasks)
	}

	if _, err := s.IncrementMemberTasks(ctx, "missing", 1); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestIncrementMemberTasksConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.SQL().SetMaxOpenConns(1)

	if err := s.CreateGroup(ctx, &Group{ID: "g1", Name: "Team", CreatedBy: "a@x.com"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := s.AddMember(ctx, &Member{ID: "m1", GroupID: "g1", Name: "Ana", Email: "ana@x.com"}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := s.IncrementMemberTasks(ctx, "m1", 1); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent increment: %v", err)
	}

	m, err := s.MemberByID(ctx, "m1")
	if err != nil {
		t.Fatalf("member by id: %v", err)
	}
	if m.OutstandingTasks != workers*perWorker {
		t.Errorf("lost updates: counter = %d, want %d", m.OutstandingTasks, workers*perWorker)
	}
}

func TestTaskCRUDAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, &Group{ID: "g1", Name: "Team", CreatedBy: "a@x.com"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := s.AddMember(ctx, &Member{ID: "m1", GroupID: "g1", Name: "Ana", Email: "ana@x.com"}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	task := &Task{
		ID: "t1", GroupID: "g1", Title: "Write report",
		AssigneeID: "m1", AssigneeName: "Ana", AssigneeEmail: "ana@x.com",
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != StatusOpen || task.Priority != PriorityMedium {
		t.Errorf("expected defaults applied, got %s/%s", task.Status, task.Priority)
	}

	if err := s.CreateTask(ctx, &Task{ID: "t2", GroupID: "g1", Title: "Done task", AssigneeID: "m1", Status: StatusDone}); err != nil {
		t.Fatalf("create done task: %v", err)
	}

	n, err := s.CountActiveTasks(ctx, "m1")
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 active task, got %d", n)
	}

	counts, err := s.ActiveCountsByMember(ctx)
	if err != nil {
		t.Fatalf("active counts: %v", err)
	}
	if counts["m1"] != 1 {
		t.Errorf("expected counts[m1]=1, got %v", counts)
	}

	got, err := s.TaskByID(ctx, "t1")
	if err != nil {
		t.Fatalf("task by id: %v", err)
	}
	got.Status = StatusReview
	if err := s.UpdateTask(ctx, got); err != nil {
		t.Fatalf("update task: %v", err)
	}

	got, err = s.TaskByID(ctx, "t1")
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if got.Status != StatusReview {
		t.Errorf("expected Review, got %s", got.Status)
	}
	if !got.StartTime.IsZero() {
		t.Errorf("expected zero start time, got %v", got.StartTime)
	}

	if err := s.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := s.DeleteTask(ctx, "t1"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist on double delete, got %v", err)
	}
}

func TestPersonalTasks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, &Task{ID: "p1", OwnerEmail: "me@x.com", Title: "Buy groceries"}); err != nil {
		t.Fatalf("create personal task: %v", err)
	}

	tasks, err := s.TasksByOwner(ctx, "me@x.com")
	if err != nil {
		t.Fatalf("tasks by owner: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "p1" {
		t.Errorf("expected [p1], got %+v", tasks)
	}
	if tasks[0].Assigned() {
		t.Errorf("personal task should be unassigned")
	}
}

func TestStatusAndPriorityValidation(t *testing.T) {
	valid := []Status{StatusOpen, StatusReady, StatusInProgress, StatusReview, StatusDone}
	for _, st := range valid {
		if !st.Valid() {
			t.Errorf("%s should be valid", st)
		}
	}
	if Status("Archived").Valid() {
		t.Errorf("unknown status should be invalid")
	}
	if !StatusDone.Terminal() || StatusReview.Terminal() {
		t.Errorf("terminal check wrong")
	}
	if !PriorityCritical.Valid() || Priority("Urgent").Valid() {
		t.Errorf("priority validation wrong")
	}
}
