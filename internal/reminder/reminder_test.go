package reminder

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func pendingReminder() Reminder {
	fireAt := now.Add(30 * time.Minute)
	return Reminder{
		ID:        "rem-1",
		TaskID:    "task-1",
		Type:      TypePush,
		FireAt:    &fireAt,
		Status:    StatusPending,
		CreatedAt: now.Add(-time.Hour),
	}
}

func TestFireAtFor(t *testing.T) {
	due := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	got := FireAtFor(due, 15)
	if got.Format("2006-01-02 15:04") != "2026-02-16 08:45" {
		t.Fatalf("unexpected fire time: %s", got)
	}
	if !FireAtFor(due, 0).Equal(due) {
		t.Fatalf("zero offset must fire at the due date")
	}
}

func TestResolveOffsetReminder(t *testing.T) {
	offset := 60
	r := Reminder{ID: "rem-1", TaskID: "task-1", Type: TypePush, OffsetMinutes: &offset, Status: StatusPending}
	due := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)

	resolved, err := Resolve(r, &due)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.FireAt == nil || resolved.FireAt.Format("15:04") != "08:00" {
		t.Fatalf("unexpected resolved fire time: %v", resolved.FireAt)
	}

	if _, err := Resolve(r, nil); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable without a due date, got: %v", err)
	}
}

func TestValidateRequiresSomeFireSource(t *testing.T) {
	r := Reminder{ID: "rem-1", TaskID: "task-1", Type: TypePush, Status: StatusPending}
	if err := r.Validate(); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got: %v", err)
	}
}

func TestIsDue(t *testing.T) {
	r := pendingReminder()
	if IsDue(r, now) {
		t.Fatalf("reminder 30m out must not be due")
	}
	if !IsDue(r, now.Add(30*time.Minute)) {
		t.Fatalf("reminder must be due at its fire time")
	}
	if !IsDue(r, now.Add(time.Hour)) {
		t.Fatalf("reminder must stay due after its fire time")
	}

	sent := r
	sent.Status = StatusSent
	if IsDue(sent, now.Add(time.Hour)) {
		t.Fatalf("sent reminder must not be due")
	}
	dismissed := Dismiss(r)
	if IsDue(dismissed, now.Add(time.Hour)) {
		t.Fatalf("dismissed reminder must not be due")
	}
}

func TestSnoozeRejectsPastTime(t *testing.T) {
	r := pendingReminder()
	if _, err := Snooze(r, now.Add(-10*time.Minute), now); !errors.Is(err, ErrInvalidSnoozeTime) {
		t.Fatalf("expected ErrInvalidSnoozeTime, got: %v", err)
	}
	if _, err := Snooze(r, now, now); !errors.Is(err, ErrInvalidSnoozeTime) {
		t.Fatalf("snoozing to exactly now must fail, got: %v", err)
	}
}

func TestSnoozeSupersedesFireTime(t *testing.T) {
	r := pendingReminder()
	fireAt := *r.FireAt

	snoozed, err := Snooze(r, now.Add(10*time.Minute), now)
	if err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if snoozed.Status != StatusSnoozed {
		t.Fatalf("unexpected status: %s", snoozed.Status)
	}
	if IsDue(snoozed, now.Add(5*time.Minute)) {
		t.Fatalf("snoozed reminder must not be due before its wake time")
	}
	if !IsDue(snoozed, now.Add(10*time.Minute)) {
		t.Fatalf("snoozed reminder must become due at its wake time")
	}

	// Once the snooze window lapses, the original fire time rules again.
	at, ok := EffectiveFireAt(snoozed, now.Add(time.Hour))
	if !ok || !at.Equal(fireAt) {
		t.Fatalf("lapsed snooze must fall back to fire time, got %v", at)
	}
}

func TestSnoozeAfterSentAllowed(t *testing.T) {
	r := pendingReminder()
	sent, err := MarkSent(r)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	snoozed, err := Snooze(sent, now.Add(10*time.Minute), now)
	if err != nil {
		t.Fatalf("snoozing a sent reminder must work: %v", err)
	}
	if snoozed.Status != StatusSnoozed {
		t.Fatalf("unexpected status: %s", snoozed.Status)
	}
}

func TestDismissIsIdempotentAndTerminal(t *testing.T) {
	r := pendingReminder()
	dismissed := Dismiss(r)
	if dismissed.Status != StatusDismissed || dismissed.SnoozedUntil != nil {
		t.Fatalf("unexpected dismissed reminder: %#v", dismissed)
	}
	again := Dismiss(dismissed)
	if again.Status != StatusDismissed {
		t.Fatalf("dismiss must be idempotent")
	}

	if _, err := Snooze(dismissed, now.Add(time.Hour), now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
	if _, err := MarkSent(dismissed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}
