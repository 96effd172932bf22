package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, group_id, owner_email, title, description,
	assignee_id, assignee_name, assignee_email,
	status, priority, estimated_time,
	start_time, end_time, all_day, location,
	created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var t Task
	var start, end sql.NullTime
	var allDay int
	err := row.Scan(&t.ID, &t.GroupID, &t.OwnerEmail, &t.Title, &t.Description,
		&t.AssigneeID, &t.AssigneeName, &t.AssigneeEmail,
		&t.Status, &t.Priority, &t.EstimatedTime,
		&start, &end, &allDay, &t.Location,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		t.StartTime = start.Time
	}
	if end.Valid {
		t.EndTime = end.Time
	}
	t.AllDay = allDay != 0
	return &t, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateTask inserts a task, stamping creation and update times.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO tasks (id, group_id, owner_email, title, description,
		 assignee_id, assignee_name, assignee_email,
		 status, priority, estimated_time,
		 start_time, end_time, all_day, location,
		 created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.GroupID, t.OwnerEmail, t.Title, t.Description,
		t.AssigneeID, t.AssigneeName, t.AssigneeEmail,
		t.Status, t.Priority, t.EstimatedTime,
		nullTime(t.StartTime), nullTime(t.EndTime), boolInt(t.AllDay), t.Location,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// TaskByID fetches a task. Returns ErrNotExist when missing.
func (s *Store) TaskByID(ctx context.Context, id string) (*Task, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notExistIf(err)
	}
	return t, nil
}

// UpdateTask persists all mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, t *Task) error {
	t.UpdatedAt = time.Now().UTC()

	res, err := s.sql.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?,
		 assignee_id = ?, assignee_name = ?, assignee_email = ?,
		 status = ?, priority = ?, estimated_time = ?,
		 start_time = ?, end_time = ?, all_day = ?, location = ?,
		 updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Description,
		t.AssigneeID, t.AssigneeName, t.AssigneeEmail,
		t.Status, t.Priority, t.EstimatedTime,
		nullTime(t.StartTime), nullTime(t.EndTime), boolInt(t.AllDay), t.Location,
		t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotExist
	}
	return nil
}

// DeleteTask removes a task record.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.sql.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotExist
	}
	return nil
}

// TasksByGroup returns a group's tasks, newest first.
func (s *Store) TasksByGroup(ctx context.Context, groupID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE group_id = ? ORDER BY created_at DESC`, groupID)
}

// RecentTasksByGroup returns up to limit tasks ordered by start time, used as
// prompt context for AI task generation.
func (s *Store) RecentTasksByGroup(ctx context.Context, groupID string, limit int) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE group_id = ?
		 ORDER BY start_time IS NULL, start_time LIMIT ?`, groupID, limit)
}

// TasksByAssignee returns every task currently referencing a member.
func (s *Store) TasksByAssignee(ctx context.Context, memberID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = ? ORDER BY created_at DESC`, memberID)
}

// TasksByOwner returns a user's personal (ungrouped) tasks.
func (s *Store) TasksByOwner(ctx context.Context, email string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_email = ? AND group_id = '' ORDER BY created_at DESC`, email)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CountActiveTasks counts the non-terminal tasks assigned to a member.
// This is the ground truth the outstanding-task counter must agree with.
func (s *Store) CountActiveTasks(ctx context.Context, memberID string) (int, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE assignee_id = ? AND status != ?`,
		memberID, StatusDone)

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	return n, nil
}

// ActiveCountsByMember returns member id -> non-terminal task count for every
// member that has at least one active task. Members absent from the map have
// a true count of zero.
func (s *Store) ActiveCountsByMember(ctx context.Context) (map[string]int, error) {
	rows, err := s.sql.QueryContext(ctx,
		`SELECT assignee_id, COUNT(*) FROM tasks
		 WHERE assignee_id != '' AND status != ?
		 GROUP BY assignee_id`, StatusDone)
	if err != nil {
		return nil, fmt.Errorf("query active counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan active count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
