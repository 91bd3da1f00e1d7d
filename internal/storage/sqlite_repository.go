package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

const taskColumns = `id, title, description, status, priority, due_at, start_at, estimated_minutes, recurrence_rule, list_id, parent_id, created_at, completed_at`

func (r *SQLiteRepository) CreateTask(ctx context.Context, in Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, in.Status, in.Priority,
		nullTime(in.DueAt), nullTime(in.StartAt), in.EstimatedMinutes, in.RecurrenceRule,
		nullString(in.ListID), nullString(in.ParentID), mustTime(in.CreatedAt), nullTime(in.CompletedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_at = ?, start_at = ?,
		    estimated_minutes = ?, recurrence_rule = ?, list_id = ?, parent_id = ?, completed_at = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Status, in.Priority,
		nullTime(in.DueAt), nullTime(in.StartAt), in.EstimatedMinutes, in.RecurrenceRule,
		nullString(in.ListID), nullString(in.ParentID), nullTime(in.CompletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.ListID != "" {
		clauses = append(clauses, "list_id = ?")
		args = append(args, filter.ListID)
	}
	if filter.DueFrom != nil {
		clauses = append(clauses, "due_at IS NOT NULL AND due_at >= ?")
		args = append(args, mustTime(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		clauses = append(clauses, "due_at IS NOT NULL AND due_at <= ?")
		args = append(args, mustTime(*filter.DueTo))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateList(ctx context.Context, in List) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lists (id, name, color, created_at)
		VALUES (?, ?, ?, ?)`,
		in.ID, in.Name, in.Color, mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetList(ctx context.Context, id string) (List, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, color, created_at FROM lists WHERE id = ?`, id)
	item, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return List{}, ErrNotFound
		}
		return List{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateList(ctx context.Context, in List) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lists SET name = ?, color = ? WHERE id = ?`, in.Name, in.Color, in.ID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteList(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListLists(ctx context.Context, filter ListListFilter) ([]List, error) {
	args := make([]any, 0, 2)
	query := `SELECT id, name, color, created_at FROM lists ORDER BY name ASC` + applyPagination(&args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]List, 0)
	for rows.Next() {
		item, scanErr := scanList(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTag(ctx context.Context, in Tag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, created_at)
		VALUES (?, ?, ?, ?)`,
		in.ID, in.Name, in.Color, mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTag(ctx context.Context, id string) (Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, color, created_at FROM tags WHERE id = ?`, id)
	item, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		return Tag{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateTag(ctx context.Context, in Tag) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, in.Name, in.Color, in.ID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTags(ctx context.Context, filter TagListFilter) ([]Tag, error) {
	args := make([]any, 0, 2)
	query := `SELECT id, name, color, created_at FROM tags ORDER BY name ASC` + applyPagination(&args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0)
	for rows.Next() {
		item, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SetTaskTags replaces the full tag set of a task.
func (r *SQLiteRepository) SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) TagsForTask(ctx context.Context, taskID string) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = ?
		ORDER BY t.name ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0)
	for rows.Next() {
		item, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const reminderColumns = `id, task_id, type, fire_at, offset_minutes, status, snoozed_until, created_at`

func (r *SQLiteRepository) CreateReminder(ctx context.Context, in Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.TaskID, in.Type, nullTime(in.FireAt), nullInt(in.OffsetMinutes),
		in.Status, nullTime(in.SnoozedUntil), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, id string) (Reminder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	item, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateReminder(ctx context.Context, in Reminder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET task_id = ?, type = ?, fire_at = ?, offset_minutes = ?, status = ?, snoozed_until = ?
		WHERE id = ?`,
		in.TaskID, in.Type, nullTime(in.FireAt), nullInt(in.OffsetMinutes),
		in.Status, nullTime(in.SnoozedUntil), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, filter ReminderListFilter) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.TaskID != "" {
		clauses = append(clauses, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY fire_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reminder, 0)
	for rows.Next() {
		item, scanErr := scanReminder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DueReminders returns the reminders that should fire at now: status
// PENDING or SNOOZED, with an active future snooze deferring the fire
// and the fire time deciding otherwise. SQL only makes the coarse cut;
// RFC3339Nano strings do not compare lexicographically across differing
// fractional digits, so the time checks run on parsed values.
func (r *SQLiteRepository) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status IN ('PENDING', 'SNOOZED')
		  AND fire_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reminder, 0)
	for rows.Next() {
		item, scanErr := scanReminder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		if item.SnoozedUntil != nil && item.SnoozedUntil.After(now) {
			continue
		}
		if item.FireAt == nil || item.FireAt.After(now) {
			continue
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FireAt.Before(*out[j].FireAt)
	})
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var due, start, completed sql.NullString
	var listID, parentID sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &out.Status, &out.Priority,
		&due, &start, &out.EstimatedMinutes, &out.RecurrenceRule, &listID, &parentID, &created, &completed); err != nil {
		return Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Task{}, err
	}
	dueAt, err := parseNullableTime(due)
	if err != nil {
		return Task{}, err
	}
	startAt, err := parseNullableTime(start)
	if err != nil {
		return Task{}, err
	}
	completedAt, err := parseNullableTime(completed)
	if err != nil {
		return Task{}, err
	}
	out.CreatedAt = createdAt
	out.DueAt = dueAt
	out.StartAt = startAt
	out.CompletedAt = completedAt
	out.ListID = listID.String
	out.ParentID = parentID.String
	return out, nil
}

func scanList(s scanner) (List, error) {
	var out List
	var created string
	if err := s.Scan(&out.ID, &out.Name, &out.Color, &created); err != nil {
		return List{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return List{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanTag(s scanner) (Tag, error) {
	var out Tag
	var created string
	if err := s.Scan(&out.ID, &out.Name, &out.Color, &created); err != nil {
		return Tag{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Tag{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanReminder(s scanner) (Reminder, error) {
	var out Reminder
	var fireAt, snoozed sql.NullString
	var offset sql.NullInt64
	var created string
	if err := s.Scan(&out.ID, &out.TaskID, &out.Type, &fireAt, &offset, &out.Status, &snoozed, &created); err != nil {
		return Reminder{}, err
	}
	fire, err := parseNullableTime(fireAt)
	if err != nil {
		return Reminder{}, err
	}
	snoozedUntil, err := parseNullableTime(snoozed)
	if err != nil {
		return Reminder{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Reminder{}, err
	}
	out.FireAt = fire
	out.SnoozedUntil = snoozedUntil
	out.CreatedAt = createdAt
	if offset.Valid {
		v := int(offset.Int64)
		out.OffsetMinutes = &v
	}
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
