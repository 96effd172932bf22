package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/store"
)

// CreateGroup creates a group and enrolls the creator as its admin.
func (e *Engine) CreateGroup(ctx context.Context, name, description, creatorName, creatorEmail string) (*store.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	creatorEmail = strings.TrimSpace(creatorEmail)
	if creatorEmail == "" {
		return nil, fmt.Errorf("creator email is required")
	}

	group := &store.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorEmail,
	}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	admin := &store.Member{
		ID:      uuid.NewString(),
		GroupID: group.ID,
		Name:    creatorName,
		Email:   creatorEmail,
		Role:    store.RoleAdmin,
	}
	if err := e.store.AddMember(ctx, admin); err != nil {
		return nil, fmt.Errorf("enrolling creator: %w", err)
	}

	e.log.Infof("group %q created by %s", name, creatorEmail)
	return group, nil
}

// Group fetches a group by id.
func (e *Engine) Group(ctx context.Context, groupID string) (*store.Group, error) {
	g, err := e.store.GroupByID(ctx, groupID)
	if err != nil {
		return nil, notFound("group", groupID, err)
	}
	return g, nil
}

// Groups lists every group whose roster contains the email.
func (e *Engine) Groups(ctx context.Context, email string) ([]store.Group, error) {
	return e.store.GroupsByMemberEmail(ctx, email)
}

// DeleteGroup removes a group with its members and tasks. Admin only.
func (e *Engine) DeleteGroup(ctx context.Context, groupID, actorEmail string) error {
	if _, err := e.store.GroupByID(ctx, groupID); err != nil {
		return notFound("group", groupID, err)
	}
	if _, err := e.requireAdmin(ctx, groupID, actorEmail); err != nil {
		return err
	}
	if err := e.store.DeleteGroup(ctx, groupID); err != nil {
		return notFound("group", groupID, err)
	}
	e.log.Infof("group %s deleted by %s", groupID, actorEmail)
	return nil
}

// Roster returns the group's members in roster order.
func (e *Engine) Roster(ctx context.Context, groupID string) ([]store.Member, error) {
	if _, err := e.store.GroupByID(ctx, groupID); err != nil {
		return nil, notFound("group", groupID, err)
	}
	return e.store.MembersByGroup(ctx, groupID)
}

// AddMember enrolls a new member by email. Admin only; emails are unique
// within a group.
func (e *Engine) AddMember(ctx context.Context, groupID, actorEmail, name, email string) (*store.Member, error) {
	if _, err := e.store.GroupByID(ctx, groupID); err != nil {
		return nil, notFound("group", groupID, err)
	}
	if _, err := e.requireAdmin(ctx, groupID, actorEmail); err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("member email is required")
	}

	if _, err := e.store.MemberByEmail(ctx, groupID, email); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, store.ErrNotExist) {
		return nil, err
	}

	member := &store.Member{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Name:    name,
		Email:   email,
		Role:    store.RoleMember,
	}
	if err := e.store.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember takes a member off the roster. Admin only; admins cannot
// remove themselves. The member's open tasks are unassigned so the workload
// ground truth stays consistent after the counter row disappears.
func (e *Engine) RemoveMember(ctx context.Context, groupID, actorEmail, email string) error {
	actor, err := e.requireAdmin(ctx, groupID, actorEmail)
	if err != nil {
		return err
	}

	target, err := e.store.MemberByEmail(ctx, groupID, email)
	if err != nil {
		return notFound("member", email, err)
	}
	if target.ID == actor.ID {
		return &PermissionError{Reason: "admins cannot remove themselves; delete the group instead"}
	}

	if err := e.unassignMemberTasks(ctx, target.ID); err != nil {
		return err
	}
	if err := e.store.RemoveMember(ctx, target.ID); err != nil {
		return notFound("member", email, err)
	}
	return nil
}

// LeaveGroup removes the caller from a group. Admins may not leave their
// own group.
func (e *Engine) LeaveGroup(ctx context.Context, groupID, email string) error {
	member, err := e.store.MemberByEmail(ctx, groupID, email)
	if err != nil {
		return notFound("member", email, err)
	}
	if member.Role == store.RoleAdmin {
		return &PermissionError{Reason: "admins cannot leave their own group; delete it instead"}
	}

	if err := e.unassignMemberTasks(ctx, member.ID); err != nil {
		return err
	}
	return e.store.RemoveMember(ctx, member.ID)
}

// requireAdmin resolves the actor on the roster and checks the admin role.
func (e *Engine) requireAdmin(ctx context.Context, groupID, email string) (*store.Member, error) {
	member, err := e.store.MemberByEmail(ctx, groupID, email)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return nil, &PermissionError{Reason: fmt.Sprintf("%s is not a member of this group", email)}
		}
		return nil, err
	}
	if member.Role != store.RoleAdmin {
		return nil, &PermissionError{Reason: fmt.Sprintf("%s is not an admin of this group", email)}
	}
	return member, nil
}

// unassignMemberTasks clears the assignee on a member's non-terminal tasks.
// No ledger transition runs: the member row, counter included, is about to
// be removed.
func (e *Engine) unassignMemberTasks(ctx context.Context, memberID string) error {
	tasks, err := e.store.TasksByAssignee(ctx, memberID)
	if err != nil {
		return err
	}
	for i := range tasks {
		task := &tasks[i]
		clearAssignee(task)
		if err := e.store.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("unassigning task %s: %w", task.ID, err)
		}
	}
	return nil
}
