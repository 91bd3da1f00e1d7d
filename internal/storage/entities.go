package storage

import "time"

type Task struct {
	ID               string
	Title            string
	Description      string
	Status           string
	Priority         string
	DueAt            *time.Time
	StartAt          *time.Time
	EstimatedMinutes int
	RecurrenceRule   string
	ListID           string
	ParentID         string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

type List struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

type Tag struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

type Reminder struct {
	ID            string
	TaskID        string
	Type          string
	FireAt        *time.Time
	OffsetMinutes *int
	Status        string
	SnoozedUntil  *time.Time
	CreatedAt     time.Time
}

type TaskListFilter struct {
	Status  string
	ListID  string
	DueFrom *time.Time
	DueTo   *time.Time
	Limit   int
	Offset  int
}

type ListListFilter struct {
	Limit  int
	Offset int
}

type TagListFilter struct {
	Limit  int
	Offset int
}

type ReminderListFilter struct {
	TaskID string
	Status string
	Limit  int
	Offset int
}
