package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tickcal-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func timePtr(v time.Time) *time.Time { return &v }

func intPtr(v int) *int { return &v }

func TestTaskCRUDAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	due := parseRFC3339(t, "2026-02-12T09:00:00Z")

	task := Task{
		ID:               "task-1",
		Title:            "Draft quarterly plan",
		Description:      "Outline the roadmap",
		Status:           "TODO",
		Priority:         "HIGH",
		DueAt:            timePtr(due),
		EstimatedMinutes: 90,
		RecurrenceRule:   "FREQ=WEEKLY;INTERVAL=1",
		CreatedAt:        created,
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Status != "TODO" {
		t.Fatalf("unexpected task get result: %#v", got)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Fatalf("due time did not round-trip: %#v", got.DueAt)
	}
	if got.EstimatedMinutes != 90 || got.RecurrenceRule != "FREQ=WEEKLY;INTERVAL=1" {
		t.Fatalf("unexpected task fields: %#v", got)
	}

	task.Title = "Draft quarterly plan v2"
	task.Status = "IN_PROGRESS"
	if err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	active, err := repo.ListTasks(ctx, TaskListFilter{Status: "IN_PROGRESS"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(active) != 1 || active[0].ID != task.ID {
		t.Fatalf("unexpected active list: %#v", active)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskListDueWindowAndPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-01T08:00:00Z")

	for i := 0; i < 5; i++ {
		due := base.AddDate(0, 0, i)
		err := repo.CreateTask(ctx, Task{
			ID:        "task-" + string(rune('a'+i)),
			Title:     "Task",
			Status:    "TODO",
			Priority:  "NONE",
			DueAt:     timePtr(due),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create task %d: %v", i, err)
		}
	}

	windowed, err := repo.ListTasks(ctx, TaskListFilter{
		DueFrom: timePtr(base.AddDate(0, 0, 1)),
		DueTo:   timePtr(base.AddDate(0, 0, 3)),
	})
	if err != nil {
		t.Fatalf("list windowed: %v", err)
	}
	if len(windowed) != 3 {
		t.Fatalf("expected 3 tasks in due window, got %d", len(windowed))
	}

	paged, err := repo.ListTasks(ctx, TaskListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(paged) != 2 {
		t.Fatalf("expected page of 2, got %d", len(paged))
	}
}

func TestListAndTagCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	list := List{ID: "list-1", Name: "Work", Color: "#3b82f6", CreatedAt: created}
	if err := repo.CreateList(ctx, list); err != nil {
		t.Fatalf("create list: %v", err)
	}
	list.Name = "Work projects"
	if err := repo.UpdateList(ctx, list); err != nil {
		t.Fatalf("update list: %v", err)
	}
	gotList, err := repo.GetList(ctx, list.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if gotList.Name != "Work projects" {
		t.Fatalf("unexpected list: %#v", gotList)
	}

	tag := Tag{ID: "tag-1", Name: "urgent", Color: "#ef4444", CreatedAt: created}
	if err := repo.CreateTag(ctx, tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	tags, err := repo.ListTags(ctx, TagListFilter{})
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "urgent" {
		t.Fatalf("unexpected tags: %#v", tags)
	}

	if err := repo.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if err := repo.DeleteList(ctx, list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if err := repo.DeleteList(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing list, got %v", err)
	}
}

func TestSetTaskTagsReplacesSet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if err := repo.CreateTask(ctx, Task{ID: "task-1", Title: "Tagged", Status: "TODO", Priority: "NONE", CreatedAt: created}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	for _, name := range []string{"home", "errand", "deep"} {
		if err := repo.CreateTag(ctx, Tag{ID: "tag-" + name, Name: name, CreatedAt: created}); err != nil {
			t.Fatalf("create tag %s: %v", name, err)
		}
	}

	if err := repo.SetTaskTags(ctx, "task-1", []string{"tag-home", "tag-errand"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	got, err := repo.TagsForTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("tags for task: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tags, got %#v", got)
	}

	if err := repo.SetTaskTags(ctx, "task-1", []string{"tag-deep"}); err != nil {
		t.Fatalf("replace tags: %v", err)
	}
	got, err = repo.TagsForTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("tags for task after replace: %v", err)
	}
	if len(got) != 1 || got[0].Name != "deep" {
		t.Fatalf("expected replaced tag set, got %#v", got)
	}
}

func TestReminderCRUDAndDueQuery(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	now := parseRFC3339(t, "2026-02-10T10:00:00Z")

	if err := repo.CreateTask(ctx, Task{ID: "task-1", Title: "With reminders", Status: "TODO", Priority: "NONE", CreatedAt: created}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	pastDue := Reminder{
		ID: "rem-due", TaskID: "task-1", Type: "PUSH", Status: "PENDING",
		FireAt:        timePtr(now.Add(-time.Hour)),
		OffsetMinutes: intPtr(15),
		CreatedAt:     created,
	}
	future := Reminder{
		ID: "rem-future", TaskID: "task-1", Type: "PUSH", Status: "PENDING",
		FireAt:    timePtr(now.Add(time.Hour)),
		CreatedAt: created,
	}
	snoozedAhead := Reminder{
		ID: "rem-snoozed", TaskID: "task-1", Type: "EMAIL", Status: "SNOOZED",
		FireAt:       timePtr(now.Add(-2 * time.Hour)),
		SnoozedUntil: timePtr(now.Add(30 * time.Minute)),
		CreatedAt:    created,
	}
	snoozeLapsed := Reminder{
		ID: "rem-lapsed", TaskID: "task-1", Type: "PUSH", Status: "SNOOZED",
		FireAt:       timePtr(now.Add(-2 * time.Hour)),
		SnoozedUntil: timePtr(now.Add(-10 * time.Minute)),
		CreatedAt:    created,
	}
	dismissed := Reminder{
		ID: "rem-dismissed", TaskID: "task-1", Type: "PUSH", Status: "DISMISSED",
		FireAt:    timePtr(now.Add(-time.Hour)),
		CreatedAt: created,
	}
	for _, rem := range []Reminder{pastDue, future, snoozedAhead, snoozeLapsed, dismissed} {
		if err := repo.CreateReminder(ctx, rem); err != nil {
			t.Fatalf("create reminder %s: %v", rem.ID, err)
		}
	}

	got, err := repo.GetReminder(ctx, "rem-due")
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if got.OffsetMinutes == nil || *got.OffsetMinutes != 15 {
		t.Fatalf("offset minutes did not round-trip: %#v", got.OffsetMinutes)
	}

	due, err := repo.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	dueIDs := make(map[string]bool, len(due))
	for _, rem := range due {
		dueIDs[rem.ID] = true
	}
	if len(due) != 2 || !dueIDs["rem-due"] || !dueIDs["rem-lapsed"] {
		t.Fatalf("unexpected due set: %#v", dueIDs)
	}

	pastDue.Status = "SENT"
	if err := repo.UpdateReminder(ctx, pastDue); err != nil {
		t.Fatalf("update reminder: %v", err)
	}
	due, err = repo.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders after send: %v", err)
	}
	if len(due) != 1 || due[0].ID != "rem-lapsed" {
		t.Fatalf("expected only lapsed snooze due, got %#v", due)
	}

	byTask, err := repo.ListReminders(ctx, ReminderListFilter{TaskID: "task-1", Status: "PENDING"})
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(byTask) != 1 || byTask[0].ID != "rem-future" {
		t.Fatalf("unexpected pending reminders: %#v", byTask)
	}

	if err := repo.DeleteReminder(ctx, "rem-future"); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}
	if _, err := repo.GetReminder(ctx, "rem-future"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDueRemindersMixedFractionalSeconds(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if err := repo.CreateTask(ctx, Task{ID: "task-1", Title: "Fractions", Status: "TODO", Priority: "NONE", CreatedAt: created}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	// Whole-second fire time, queried with a now that carries a
	// fractional second inside that same second.
	wholeSecond := time.Date(2026, 2, 10, 10, 0, 5, 0, time.UTC)
	fractional := time.Date(2026, 2, 10, 10, 0, 4, 500_000_000, time.UTC)
	reminders := []Reminder{
		{ID: "rem-whole", TaskID: "task-1", Type: "PUSH", Status: "PENDING", FireAt: &wholeSecond, CreatedAt: created},
		{ID: "rem-frac", TaskID: "task-1", Type: "PUSH", Status: "PENDING", FireAt: &fractional, CreatedAt: created},
	}
	for _, rem := range reminders {
		if err := repo.CreateReminder(ctx, rem); err != nil {
			t.Fatalf("create reminder %s: %v", rem.ID, err)
		}
	}

	now := time.Date(2026, 2, 10, 10, 0, 5, 500_000_000, time.UTC)
	due, err := repo.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected both reminders due at %v, got %#v", now, due)
	}
	if due[0].ID != "rem-frac" || due[1].ID != "rem-whole" {
		t.Fatalf("due reminders out of fire order: %s, %s", due[0].ID, due[1].ID)
	}

	// Just before the whole-second fire time only the fractional one
	// is due.
	due, err = repo.DueReminders(ctx, time.Date(2026, 2, 10, 10, 0, 4, 900_000_000, time.UTC))
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 1 || due[0].ID != "rem-frac" {
		t.Fatalf("expected only rem-frac due, got %#v", due)
	}
}

func TestDeleteTaskCascadesReminders(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if err := repo.CreateTask(ctx, Task{ID: "task-1", Title: "Parent", Status: "TODO", Priority: "NONE", CreatedAt: created}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := repo.CreateReminder(ctx, Reminder{
		ID: "rem-1", TaskID: "task-1", Type: "PUSH", Status: "PENDING",
		FireAt: timePtr(created), CreatedAt: created,
	}); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	if err := repo.DeleteTask(ctx, "task-1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := repo.GetReminder(ctx, "rem-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reminder cascade delete, got %v", err)
	}
}
