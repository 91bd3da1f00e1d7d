package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, in Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)

	CreateList(ctx context.Context, in List) error
	GetList(ctx context.Context, id string) (List, error)
	UpdateList(ctx context.Context, in List) error
	DeleteList(ctx context.Context, id string) error
	ListLists(ctx context.Context, filter ListListFilter) ([]List, error)

	CreateTag(ctx context.Context, in Tag) error
	GetTag(ctx context.Context, id string) (Tag, error)
	UpdateTag(ctx context.Context, in Tag) error
	DeleteTag(ctx context.Context, id string) error
	ListTags(ctx context.Context, filter TagListFilter) ([]Tag, error)

	SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error
	TagsForTask(ctx context.Context, taskID string) ([]Tag, error)

	CreateReminder(ctx context.Context, in Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	UpdateReminder(ctx context.Context, in Reminder) error
	DeleteReminder(ctx context.Context, id string) error
	ListReminders(ctx context.Context, filter ReminderListFilter) ([]Reminder, error)
	// DueReminders returns pending or snoozed reminders whose effective
	// fire time is at or before now.
	DueReminders(ctx context.Context, now time.Time) ([]Reminder, error)
}
