package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a task. Values are case-sensitive.
type TaskStatus string

// TaskStatus constants
const (
	TaskStatusNew        TaskStatus = "New"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses lists the accepted statuses in display order
var TaskStatuses = []TaskStatus{TaskStatusNew, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is exactly one of the known statuses
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task represents a tracked unit of work owned by a single identity
type Task struct {
	ID          int64      `json:"id" db:"id"`
	OwnerID     int64      `json:"owner" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskFilter restricts which tasks a query may see.
// AllOwners is only ever set for administrators.
type TaskFilter struct {
	AllOwners bool
	OwnerID   int64
	Status    *TaskStatus
}

// Matches reports whether the task passes the filter
func (f TaskFilter) Matches(t *Task) bool {
	if !f.AllOwners && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	return true
}

// TaskPage is one page of a filtered task listing
type TaskPage struct {
	Items    []*Task
	Total    int
	Page     int
	PageSize int
}

// HasNext reports whether another page follows this one
func (p *TaskPage) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

// HasPrevious reports whether a page precedes this one
func (p *TaskPage) HasPrevious() bool {
	return p.Page > 1
}
