package store

import "time"

// Role is a member's role within a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Status is a task lifecycle status. StatusDone is the terminal value:
// a Done task no longer counts toward its assignee's workload.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusReady      Status = "Ready"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusDone       Status = "Done"
)

// Terminal reports whether the status marks a task as finished.
func (s Status) Terminal() bool {
	return s == StatusDone
}

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusReady, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority is a task priority level.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Group is a team with a member roster.
type Group struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string // email of the creator
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is a group member with a workload counter.
//
// OutstandingTasks is maintained incrementally by the ledger and must equal
// the number of non-terminal tasks assigned to the member. NeedsReconcile is
// set when a counter update had to be clamped, signalling drift.
type Member struct {
	ID               string
	GroupID          string
	Name             string
	Email            string
	Role             Role
	Availability     int // 0-100 percent of capacity
	OutstandingTasks int
	NeedsReconcile   bool
	AddedAt          time.Time
}

// Task is a unit of work, either belonging to a group or owned directly by a
// user (personal calendar variant, GroupID empty).
type Task struct {
	ID            string
	GroupID       string
	OwnerEmail    string
	Title         string
	Description   string
	AssigneeID    string
	AssigneeName  string
	AssigneeEmail string
	Status        Status
	Priority      Priority
	EstimatedTime string // AI-generated, e.g. "2-3 hours"
	StartTime     time.Time
	EndTime       time.Time
	AllDay        bool
	Location      string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Assigned reports whether the task references an assignee.
func (t *Task) Assigned() bool {
	return t.AssigneeID != ""
}
