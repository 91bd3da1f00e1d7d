package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends a task's lifecycle. Terminal
// tasks are never considered overdue.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

type Priority string

const (
	PriorityNone   Priority = "NONE"
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is an immutable snapshot of a persisted task. Mutation happens in
// the storage layer; everything downstream treats the value as read-only.
type Task struct {
	ID               string
	Title            string
	Description      string
	Status           TaskStatus
	Priority         Priority
	DueAt            *time.Time
	StartAt          *time.Time
	EstimatedMinutes int
	RecurrenceRule   string
	ListID           string
	ParentID         string
	Tags             []Tag
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.EstimatedMinutes < 0 {
		return errors.New("model: task estimated_minutes must not be negative")
	}
	if t.Status == StatusDone && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task status is DONE")
	}
	if t.Status != StatusDone && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when task status is not DONE")
	}
	return nil
}
