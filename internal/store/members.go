package store

import (
	"context"
	"fmt"
	"time"
)

const memberColumns = `id, group_id, name, email, role, availability, outstanding_tasks, needs_reconcile, added_at`

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	var reconcile int
	err := row.Scan(&m.ID, &m.GroupID, &m.Name, &m.Email, &m.Role,
		&m.Availability, &m.OutstandingTasks, &reconcile, &m.AddedAt)
	if err != nil {
		return nil, err
	}
	m.NeedsReconcile = reconcile != 0
	return &m, nil
}

// AddMember inserts a roster entry. The (group, email) pair is unique.
func (s *Store) AddMember(ctx context.Context, m *Member) error {
	if m.Role == "" {
		m.Role = RoleMember
	}
	if m.Availability == 0 {
		m.Availability = 100
	}
	m.AddedAt = time.Now().UTC()

	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO members (id, group_id, name, email, role, availability, outstanding_tasks, needs_reconcile, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.GroupID, m.Name, m.Email, m.Role, m.Availability, m.OutstandingTasks, m.AddedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// MemberByID fetches a member. Returns ErrNotExist when missing.
func (s *Store) MemberByID(ctx context.Context, id string) (*Member, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return nil, notExistIf(err)
	}
	return m, nil
}

// MemberByEmail fetches the roster entry for an email within a group.
func (s *Store) MemberByEmail(ctx context.Context, groupID, email string) (*Member, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE group_id = ? AND email = ?`, groupID, email)
	m, err := scanMember(row)
	if err != nil {
		return nil, notExistIf(err)
	}
	return m, nil
}

// MembersByGroup returns the roster in insertion order. The order is part of
// the recommender contract: ties on workload break toward earlier entries.
func (s *Store) MembersByGroup(ctx context.Context, groupID string) ([]Member, error) {
	return s.queryMembers(ctx,
		`SELECT `+memberColumns+` FROM members WHERE group_id = ? ORDER BY added_at, id`, groupID)
}

// AllMembers returns every member across all groups, for the sweep.
func (s *Store) AllMembers(ctx context.Context) ([]Member, error) {
	return s.queryMembers(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY group_id, added_at, id`)
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// RemoveMember deletes a roster entry.
func (s *Store) RemoveMember(ctx context.Context, id string) error {
	res, err := s.sql.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotExist
	}
	return nil
}

// IncrementMemberTasks adjusts a member's outstanding-task counter by delta.
// The adjustment is a relative UPDATE inside one transaction so concurrent
// adjustments compose instead of overwriting each other. The counter never
// goes below zero; the returned flag reports whether the floor clamp fired,
// which indicates a missed transition somewhere earlier.
func (s *Store) IncrementMemberTasks(ctx context.Context, id string, delta int) (clamped bool, err error) {
	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin counter update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE members SET outstanding_tasks = outstanding_tasks + ? WHERE id = ?`, delta, id)
	if err != nil {
		return false, fmt.Errorf("update member counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrNotExist
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE members SET outstanding_tasks = 0 WHERE id = ? AND outstanding_tasks < 0`, id)
	if err != nil {
		return false, fmt.Errorf("clamp member counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		clamped = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit counter update: %w", err)
	}
	return clamped, nil
}

// SetMemberTasks overwrites a member's counter and clears the reconcile flag.
// Used by the reconciliation sweep, which recomputes from ground truth.
func (s *Store) SetMemberTasks(ctx context.Context, id string, count int) error {
	res, err := s.sql.ExecContext(ctx,
		`UPDATE members SET outstanding_tasks = ?, needs_reconcile = 0 WHERE id = ?`, count, id)
	if err != nil {
		return fmt.Errorf("set member counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotExist
	}
	return nil
}

// FlagMemberForReconcile marks a member whose counter is suspected stale.
func (s *Store) FlagMemberForReconcile(ctx context.Context, id string) error {
	_, err := s.sql.ExecContext(ctx,
		`UPDATE members SET needs_reconcile = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("flag member: %w", err)
	}
	return nil
}
