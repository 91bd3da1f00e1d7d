// Package reminder computes when reminders fire and validates their
// status transitions. Delivery is someone else's job; this package only
// answers "when" and "is it due".
package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidType       = errors.New("reminder: invalid reminder type")
	ErrInvalidStatus     = errors.New("reminder: invalid reminder status")
	ErrInvalidSnoozeTime = errors.New("reminder: snooze time must be in the future")
	ErrInvalidTransition = errors.New("reminder: invalid status transition")
	ErrUnresolvable      = errors.New("reminder: no fire time or relative offset")
)

type Type string

const (
	TypePush  Type = "PUSH"
	TypeEmail Type = "EMAIL"
)

func (t Type) IsValid() bool {
	switch t {
	case TypePush, TypeEmail:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDismissed Status = "DISMISSED"
	StatusSnoozed   Status = "SNOOZED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDismissed, StatusSnoozed:
		return true
	default:
		return false
	}
}

// Reminder carries either an absolute FireAt or an OffsetMinutes relative
// to its task's due date; at least one must be resolvable. SnoozedUntil,
// when set and still in the future, supersedes FireAt for due checks.
type Reminder struct {
	ID            string
	TaskID        string
	Type          Type
	FireAt        *time.Time
	OffsetMinutes *int
	Status        Status
	SnoozedUntil  *time.Time
	CreatedAt     time.Time
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("reminder: id is required")
	}
	if strings.TrimSpace(r.TaskID) == "" {
		return errors.New("reminder: task id is required")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if r.FireAt == nil && r.OffsetMinutes == nil {
		return ErrUnresolvable
	}
	return nil
}

// FireAtFor computes the absolute fire time for an offset-based reminder:
// offsetMinutes before the task's due date.
func FireAtFor(due time.Time, offsetMinutes int) time.Time {
	return due.Add(-time.Duration(offsetMinutes) * time.Minute)
}

// Resolve materializes FireAt for an offset-based reminder against its
// task's due date. Reminders that already carry an absolute FireAt are
// returned unchanged.
func Resolve(r Reminder, due *time.Time) (Reminder, error) {
	if r.FireAt != nil {
		return r, nil
	}
	if r.OffsetMinutes == nil || due == nil {
		return Reminder{}, ErrUnresolvable
	}
	at := FireAtFor(*due, *r.OffsetMinutes)
	r.FireAt = &at
	return r, nil
}

// EffectiveFireAt returns the timestamp due checks compare against. It
// returns false when the reminder has no resolvable fire time.
func EffectiveFireAt(r Reminder, now time.Time) (time.Time, bool) {
	if r.SnoozedUntil != nil && r.SnoozedUntil.After(now) {
		return *r.SnoozedUntil, true
	}
	if r.FireAt == nil {
		return time.Time{}, false
	}
	return *r.FireAt, true
}

// IsDue reports whether the reminder should fire at the given instant:
// its status is PENDING or SNOOZED and its effective fire time has
// arrived.
func IsDue(r Reminder, now time.Time) bool {
	if r.Status != StatusPending && r.Status != StatusSnoozed {
		return false
	}
	at, ok := EffectiveFireAt(r, now)
	if !ok {
		return false
	}
	return !at.After(now)
}

// Snooze moves the reminder to SNOOZED with the given wake time. The time
// must be strictly in the future; dismissed reminders cannot be snoozed.
func Snooze(r Reminder, until, now time.Time) (Reminder, error) {
	if r.Status == StatusDismissed {
		return Reminder{}, fmt.Errorf("%w: cannot snooze a dismissed reminder", ErrInvalidTransition)
	}
	if !until.After(now) {
		return Reminder{}, fmt.Errorf("%w: %s", ErrInvalidSnoozeTime, until.Format(time.RFC3339))
	}
	r.Status = StatusSnoozed
	r.SnoozedUntil = &until
	return r, nil
}

// Dismiss moves the reminder to its terminal state. Dismissing an
// already-dismissed reminder is a no-op, not an error.
func Dismiss(r Reminder) Reminder {
	r.Status = StatusDismissed
	r.SnoozedUntil = nil
	return r
}

// MarkSent records a delivered fire. Only pending or snoozed reminders
// can be marked sent.
func MarkSent(r Reminder) (Reminder, error) {
	if r.Status != StatusPending && r.Status != StatusSnoozed {
		return Reminder{}, fmt.Errorf("%w: cannot mark %s reminder as sent", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusSent
	r.SnoozedUntil = nil
	return r, nil
}
