package models

import "time"

// TaskEventType names a task lifecycle transition. It doubles as the routing key.
type TaskEventType string

// TaskEventType constants
const (
	TaskEventCreated TaskEventType = "task.created"
	TaskEventUpdated TaskEventType = "task.updated"
	TaskEventDeleted TaskEventType = "task.deleted"
)

// TaskEvent is published after a task mutation has been committed
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     int64         `json:"task_id"`
	OwnerID    int64         `json:"owner_id"`
	ActorID    int64         `json:"actor_id"`
	Status     TaskStatus    `json:"status,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
