// Package calendar turns task collections into renderable view structures:
// month, week and day grids plus a date-grouped agenda. All generation is
// pure; a view computed twice from the same inputs is identical.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/recurrence"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/timeutil"
)

// Event is the derived calendar entity: one per task (or per recurrence
// instance) that carries a due date. End is always >= Start; a task with
// no estimate becomes a zero-duration instant event.
type Event struct {
	ID               string
	TaskID           string
	Title            string
	Start            time.Time
	End              time.Time
	AllDay           bool
	Status           model.TaskStatus
	Priority         model.Priority
	ListID           string
	ListColor        string
	Tags             []model.Tag
	Recurring        bool
	EstimatedMinutes int
	Overdue          bool
}

// Options configures view generation. The zero value means Sunday week
// start, the default 6–22 display-hour window and the default recurrence
// cap.
type Options struct {
	WeekStart     time.Weekday
	DayStartHour  int
	DayEndHour    int
	RecurrenceCap int
	// Selected marks one day cell in grid views; zero means none.
	Selected time.Time
	// ListColors resolves a task's list id to its display color.
	ListColors map[string]string
}

const (
	defaultDayStartHour = 6
	defaultDayEndHour   = 22
)

func (o Options) dayHours() []int {
	start, end := o.DayStartHour, o.DayEndHour
	if start == 0 && end == 0 {
		start, end = defaultDayStartHour, defaultDayEndHour
	}
	if end < start {
		start, end = end, start
	}
	hours := make([]int, 0, end-start+1)
	for h := start; h <= end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// EventFromTask projects a task onto the calendar. Tasks without a due
// date are not calendar events and return false.
//
// All-day detection is a heuristic inherited from the task contract: a due
// date whose time-of-day is exactly midnight is treated as date-only. A
// task deliberately scheduled at 00:00:00 is indistinguishable from an
// all-day one.
func EventFromTask(t model.Task, now time.Time, opts Options) (Event, bool) {
	if t.DueAt == nil {
		return Event{}, false
	}
	due := *t.DueAt
	end := due
	if t.EstimatedMinutes > 0 {
		end = timeutil.AddMinutes(due, t.EstimatedMinutes)
	}
	return Event{
		ID:               t.ID,
		TaskID:           t.ID,
		Title:            t.Title,
		Start:            due,
		End:              end,
		AllDay:           isMidnight(due),
		Status:           t.Status,
		Priority:         t.Priority,
		ListID:           t.ListID,
		ListColor:        opts.ListColors[t.ListID],
		Tags:             t.Tags,
		Recurring:        strings.TrimSpace(t.RecurrenceRule) != "",
		EstimatedMinutes: t.EstimatedMinutes,
		Overdue:          isOverdue(due, t.Status, now),
	}, true
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func isOverdue(due time.Time, status model.TaskStatus, now time.Time) bool {
	return due.Before(now) && !status.IsTerminal()
}

// eventsForWindow projects every task in the collection onto [winStart,
// winEnd], materializing recurrence instances inside the window. A task
// whose recurrence rule fails to parse is omitted entirely and reported in
// the skipped list; one bad record never aborts the view.
func eventsForWindow(tasks []model.Task, winStart, winEnd, now time.Time, opts Options) (events []Event, skipped []string) {
	events = make([]Event, 0, len(tasks))
	for _, task := range tasks {
		base, ok := EventFromTask(task, now, opts)
		if !ok {
			continue
		}

		var instances []recurrence.Instance
		if base.Recurring {
			rule, err := recurrence.Parse(task.RecurrenceRule)
			if err != nil {
				skipped = append(skipped, task.ID)
				continue
			}
			instances, err = recurrence.Instances(rule, base.Start, recurrence.Options{
				MaxCount:  opts.RecurrenceCap,
				WindowEnd: winEnd,
			})
			if err != nil {
				skipped = append(skipped, task.ID)
				continue
			}
		}

		if timeutil.Overlaps(base.Start, base.End, winStart, winEnd) {
			events = append(events, base)
		}
		duration := base.End.Sub(base.Start)
		for _, inst := range instances {
			ev := base
			ev.ID = fmt.Sprintf("%s@%s", task.ID, inst.Date.Format("2006-01-02"))
			ev.Start = inst.Date
			ev.End = inst.Date.Add(duration)
			ev.Overdue = isOverdue(inst.Date, task.Status, now)
			if timeutil.Overlaps(ev.Start, ev.End, winStart, winEnd) {
				events = append(events, ev)
			}
		}
	}
	sortEvents(events)
	return events, skipped
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
}

// EventsForDate returns the events whose interval intersects the day the
// given date falls on.
func EventsForDate(events []Event, date time.Time) []Event {
	dayStart := timeutil.StartOfDay(date)
	dayEnd := dayStart.AddDate(0, 0, 1)
	out := make([]Event, 0)
	for _, ev := range events {
		if timeutil.Overlaps(ev.Start, ev.End, dayStart, dayEnd) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsForRange returns the events overlapping [start, end] using the
// same half-open interval test as the rest of the package.
func EventsForRange(events []Event, start, end time.Time) []Event {
	out := make([]Event, 0)
	for _, ev := range events {
		if timeutil.Overlaps(ev.Start, ev.End, start, end) {
			out = append(out, ev)
		}
	}
	return out
}

// SlotAvailable reports whether [start, end) is free of events. A
// zero-duration candidate is available unless some event's interval
// contains that exact instant.
func SlotAvailable(events []Event, start, end time.Time) bool {
	return len(OverlappingEvents(events, start, end)) == 0
}

// OverlappingEvents returns the events that collide with [start, end).
func OverlappingEvents(events []Event, start, end time.Time) []Event {
	out := make([]Event, 0)
	for _, ev := range events {
		if timeutil.Overlaps(ev.Start, ev.End, start, end) {
			out = append(out, ev)
		}
	}
	return out
}
