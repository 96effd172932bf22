// Package engine coordinates the task lifecycle: it sequences store
// mutations, assignment recommendations, and workload ledger updates so that
// per-member outstanding-task counters track the tasks actually assigned.
//
// Ordering contract: the store mutation commits before the ledger adjusts
// counters, except for deletion, where the decrement runs first. Either way a
// crash in between leaves a counter understated, which the reconciliation
// sweep recovers; an overstated counter would not be recoverable.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/ai"
	"github.com/taskhive/taskhive/internal/assign"
	"github.com/taskhive/taskhive/internal/ledger"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/store"
)

// Provider is the slice of the AI client the coordinator needs. A nil or
// unconfigured provider disables generation and falls back to deterministic
// behavior everywhere else.
type Provider interface {
	Configured() bool
	Chat(ctx context.Context, prompt string) (string, error)
	PredictDuration(ctx context.Context, title, description string) (string, error)
}

// Engine is the task lifecycle coordinator.
type Engine struct {
	store    *store.Store
	ledger   *ledger.Ledger
	rec      *assign.Recommender
	provider Provider
	log      *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithProvider sets the AI provider.
func WithProvider(p Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithRecommender sets the assignment recommender.
func WithRecommender(r *assign.Recommender) Option {
	return func(e *Engine) { e.rec = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine over the given store.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, log: logging.Component("engine")}
	for _, opt := range opts {
		opt(e)
	}
	if e.rec == nil {
		e.rec = assign.New(nil, e.log)
	}
	e.ledger = ledger.New(st, e.log)
	return e
}

// CreateTaskInput describes a task to create. GroupID empty means a personal
// task owned by OwnerEmail, which carries no assignee and no ledger effect.
type CreateTaskInput struct {
	GroupID       string
	OwnerEmail    string
	Title         string
	Description   string
	AssigneeEmail string // empty means recommend one for group tasks
	Priority      store.Priority
	EstimatedTime string
	StartTime     time.Time
	EndTime       time.Time
	AllDay        bool
	Location      string
	CreatedBy     string
}

// CreateTask persists a new task. Group tasks get an assignee, explicit or
// recommended, and the assignee's counter is incremented after the insert
// commits. The duration estimate is attached best-effort.
func (e *Engine) CreateTask(ctx context.Context, in CreateTaskInput) (*store.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q", in.Priority)
	}

	task := &store.Task{
		ID:            uuid.NewString(),
		GroupID:       in.GroupID,
		OwnerEmail:    in.OwnerEmail,
		Title:         title,
		Description:   in.Description,
		Priority:      in.Priority,
		EstimatedTime: in.EstimatedTime,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		AllDay:        in.AllDay,
		Location:      in.Location,
		CreatedBy:     in.CreatedBy,
	}

	if in.GroupID != "" {
		if _, err := e.store.GroupByID(ctx, in.GroupID); err != nil {
			return nil, notFound("group", in.GroupID, err)
		}

		switch {
		case in.AssigneeEmail != "":
			m, err := e.store.MemberByEmail(ctx, in.GroupID, in.AssigneeEmail)
			if err != nil {
				return nil, notFound("member", in.AssigneeEmail, err)
			}
			setAssignee(task, *m)
		default:
			roster, err := e.store.MembersByGroup(ctx, in.GroupID)
			if err != nil {
				return nil, err
			}
			if len(roster) > 0 {
				rec, err := e.rec.Recommend(ctx, title, in.Description, roster)
				if err != nil {
					return nil, err
				}
				e.log.Infof("assignee %s picked via %s for %q", rec.Member.Email, rec.Method, title)
				setAssignee(task, rec.Member)
			}
		}
	}

	if task.EstimatedTime == "" {
		task.EstimatedTime = e.estimateDuration(ctx, title, in.Description)
	}

	if err := e.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if task.Assigned() {
		e.applyLedger(ctx, ledger.Transition{
			Kind:     ledger.Created,
			TaskID:   task.ID,
			MemberID: task.AssigneeID,
			Terminal: task.Status.Terminal(),
		})
	}
	return task, nil
}

// ReassignTask moves a group task to another member, or unassigns it when
// newAssigneeEmail is empty. Reassigning to the current assignee is a no-op.
func (e *Engine) ReassignTask(ctx context.Context, taskID, newAssigneeEmail string) (*store.Task, error) {
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, notFound("task", taskID, err)
	}
	if task.GroupID == "" {
		return nil, fmt.Errorf("personal tasks cannot be reassigned")
	}

	prev := task.AssigneeID
	if newAssigneeEmail == "" {
		clearAssignee(task)
	} else {
		m, err := e.store.MemberByEmail(ctx, task.GroupID, newAssigneeEmail)
		if err != nil {
			return nil, notFound("member", newAssigneeEmail, err)
		}
		if m.ID == prev {
			return task, nil
		}
		setAssignee(task, *m)
	}
	if task.AssigneeID == prev {
		return task, nil
	}

	if err := e.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	e.applyLedger(ctx, ledger.Transition{
		Kind:         ledger.Reassigned,
		TaskID:       task.ID,
		MemberID:     task.AssigneeID,
		PrevMemberID: prev,
		Terminal:     task.Status.Terminal(),
	})
	return task, nil
}

// SetStatus moves a task to a new lifecycle status. Only crossings of the
// terminal boundary touch the ledger, so repeated moves to Done can never
// double-decrement.
func (e *Engine) SetStatus(ctx context.Context, taskID string, status store.Status) (*store.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, notFound("task", taskID, err)
	}

	old := task.Status
	if old == status {
		return task, nil
	}

	task.Status = status
	if err := e.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	if task.Assigned() {
		switch {
		case !old.Terminal() && status.Terminal():
			e.applyLedger(ctx, ledger.Transition{
				Kind: ledger.EnteredTerminal, TaskID: task.ID, MemberID: task.AssigneeID,
			})
		case old.Terminal() && !status.Terminal():
			e.applyLedger(ctx, ledger.Transition{
				Kind: ledger.LeftTerminal, TaskID: task.ID, MemberID: task.AssigneeID,
			})
		}
	}
	return task, nil
}

// DeleteTask removes a task. The counter decrement runs before the delete:
// a crash in between leaves the counter understated with the task still
// present, which the sweep corrects upward.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return notFound("task", taskID, err)
	}

	if task.Assigned() {
		e.applyLedger(ctx, ledger.Transition{
			Kind:     ledger.Deleted,
			TaskID:   task.ID,
			MemberID: task.AssigneeID,
			Terminal: task.Status.Terminal(),
		})
	}

	if err := e.store.DeleteTask(ctx, taskID); err != nil {
		return notFound("task", taskID, err)
	}
	return nil
}

// Task fetches a task by id.
func (e *Engine) Task(ctx context.Context, taskID string) (*store.Task, error) {
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, notFound("task", taskID, err)
	}
	return task, nil
}

// GroupTasks lists a group's tasks, newest first.
func (e *Engine) GroupTasks(ctx context.Context, groupID string) ([]store.Task, error) {
	if _, err := e.store.GroupByID(ctx, groupID); err != nil {
		return nil, notFound("group", groupID, err)
	}
	return e.store.TasksByGroup(ctx, groupID)
}

// PersonalTasks lists a user's ungrouped tasks.
func (e *Engine) PersonalTasks(ctx context.Context, email string) ([]store.Task, error) {
	return e.store.TasksByOwner(ctx, email)
}

// Recommend picks an assignee for a described task without creating it.
func (e *Engine) Recommend(ctx context.Context, groupID, title, description string) (assign.Recommendation, error) {
	if _, err := e.store.GroupByID(ctx, groupID); err != nil {
		return assign.Recommendation{}, notFound("group", groupID, err)
	}
	roster, err := e.store.MembersByGroup(ctx, groupID)
	if err != nil {
		return assign.Recommendation{}, err
	}
	if len(roster) == 0 {
		return assign.Recommendation{}, fmt.Errorf("group %s has no members", groupID)
	}
	return e.rec.Recommend(ctx, title, description, roster)
}

// applyLedger runs a counter transition after the task mutation committed.
// Failures are logged, not propagated: the task state is already correct and
// a stale counter is recoverable by the sweep.
func (e *Engine) applyLedger(ctx context.Context, tr ledger.Transition) {
	if err := e.ledger.Apply(ctx, tr); err != nil {
		e.log.Err(err).Msg("counter update failed, sweep will recover")
	}
}

func (e *Engine) estimateDuration(ctx context.Context, title, description string) string {
	if e.provider == nil || !e.provider.Configured() {
		return ai.DefaultDurationEstimate
	}
	est, err := e.provider.PredictDuration(ctx, title, description)
	if err != nil || strings.TrimSpace(est) == "" {
		e.log.Warnf("duration prediction failed, using default: %v", err)
		return ai.DefaultDurationEstimate
	}
	return strings.TrimSpace(est)
}

func setAssignee(t *store.Task, m store.Member) {
	t.AssigneeID = m.ID
	t.AssigneeName = m.Name
	t.AssigneeEmail = m.Email
}

func clearAssignee(t *store.Task) {
	t.AssigneeID = ""
	t.AssigneeName = ""
	t.AssigneeEmail = ""
}
