package store

import (
	"context"
	"fmt"
	"time"
)

// CreateGroup inserts a new group, stamping creation and update times.
func (s *Store) CreateGroup(ctx context.Context, g *Group) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Description, g.CreatedBy, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GroupByID fetches a single group. Returns ErrNotExist when missing.
func (s *Store) GroupByID(ctx context.Context, id string) (*Group, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT id, name, description, created_by, created_at, updated_at
		 FROM groups WHERE id = ?`, id)

	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, notExistIf(err)
	}
	return &g, nil
}

// GroupsByMemberEmail returns every group whose roster contains the email.
func (s *Store) GroupsByMemberEmail(ctx context.Context, email string) ([]Group, error) {
	rows, err := s.sql.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at
		 FROM groups g
		 JOIN members m ON m.group_id = g.id
		 WHERE m.email = ?
		 ORDER BY g.created_at`, email)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group together with its members and tasks.
// The deletes are sequential; a crash in between leaves orphans that the
// next reconciliation sweep will not count, never overstated counters.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.sql.ExecContext(ctx, `DELETE FROM tasks WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete group tasks: %w", err)
	}
	if _, err := s.sql.ExecContext(ctx, `DELETE FROM members WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}
	res, err := s.sql.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotExist
	}
	return nil
}
