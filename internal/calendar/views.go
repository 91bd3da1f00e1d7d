package calendar

import (
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/timeutil"
)

// Day is one cell of a grid view.
type Day struct {
	Date     time.Time
	InMonth  bool
	Today    bool
	Selected bool
	Events   []Event
}

// Week is one row of the month grid.
type Week struct {
	Days []Day
}

// MonthView is always exactly 6 weeks of 7 days, so the grid height never
// changes with the month's length or starting weekday. Cells outside the
// reference month keep their events but carry InMonth=false.
type MonthView struct {
	Year        int
	Month       time.Month
	Weeks       []Week
	TotalEvents int
	Skipped     []string
}

// WeekView is a 7-day window plus the display-hour range used to position
// timed events.
type WeekView struct {
	Start   time.Time
	Days    []Day
	Hours   []int
	Skipped []string
}

// DayView splits a single day into its all-day section and timed events.
type DayView struct {
	Date    time.Time
	AllDay  []Event
	Timed   []Event
	Hours   []int
	Skipped []string
}

// AgendaGroup holds one calendar date's events.
type AgendaGroup struct {
	Date   time.Time
	Events []Event
}

// AgendaView is a flat date-grouped list; dates with no events are
// omitted and groups ascend by date.
type AgendaView struct {
	Start   time.Time
	End     time.Time
	Groups  []AgendaGroup
	Skipped []string
}

const monthGridWeeks = 6

// NewMonthView builds the 42-cell grid containing the reference month.
func NewMonthView(tasks []model.Task, reference, now time.Time, opts Options) MonthView {
	gridStart := timeutil.StartOfWeek(timeutil.StartOfMonth(reference), opts.WeekStart)
	gridEnd := timeutil.EndOfDay(gridStart.AddDate(0, 0, monthGridWeeks*7-1))

	events, skipped := eventsForWindow(tasks, gridStart, gridEnd, now, opts)

	view := MonthView{
		Year:        reference.Year(),
		Month:       reference.Month(),
		TotalEvents: len(events),
		Skipped:     skipped,
		Weeks:       make([]Week, 0, monthGridWeeks),
	}
	cursor := gridStart
	for w := 0; w < monthGridWeeks; w++ {
		week := Week{Days: make([]Day, 0, 7)}
		for d := 0; d < 7; d++ {
			week.Days = append(week.Days, newDay(cursor, reference, now, opts, events))
			cursor = cursor.AddDate(0, 0, 1)
		}
		view.Weeks = append(view.Weeks, week)
	}
	return view
}

// NewWeekView builds the 7-day window containing the reference date.
func NewWeekView(tasks []model.Task, reference, now time.Time, opts Options) WeekView {
	start := timeutil.StartOfWeek(reference, opts.WeekStart)
	end := timeutil.EndOfDay(start.AddDate(0, 0, 6))

	events, skipped := eventsForWindow(tasks, start, end, now, opts)

	view := WeekView{
		Start:   start,
		Hours:   opts.dayHours(),
		Skipped: skipped,
		Days:    make([]Day, 0, 7),
	}
	cursor := start
	for d := 0; d < 7; d++ {
		view.Days = append(view.Days, newDay(cursor, reference, now, opts, events))
		cursor = cursor.AddDate(0, 0, 1)
	}
	return view
}

// NewDayView builds a single day, separating all-day events from timed
// ones.
func NewDayView(tasks []model.Task, reference, now time.Time, opts Options) DayView {
	start := timeutil.StartOfDay(reference)
	end := timeutil.EndOfDay(reference)

	events, skipped := eventsForWindow(tasks, start, end, now, opts)

	view := DayView{
		Date:    start,
		Hours:   opts.dayHours(),
		Skipped: skipped,
		AllDay:  make([]Event, 0),
		Timed:   make([]Event, 0),
	}
	for _, ev := range EventsForDate(events, start) {
		if ev.AllDay {
			view.AllDay = append(view.AllDay, ev)
		} else {
			view.Timed = append(view.Timed, ev)
		}
	}
	return view
}

// NewAgendaView groups the events inside [start, end] by calendar date in
// ascending order. Events are grouped under the date they start on.
func NewAgendaView(tasks []model.Task, start, end, now time.Time, opts Options) AgendaView {
	winStart := timeutil.StartOfDay(start)
	winEnd := timeutil.EndOfDay(end)

	events, skipped := eventsForWindow(tasks, winStart, winEnd, now, opts)

	view := AgendaView{
		Start:   winStart,
		End:     winEnd,
		Skipped: skipped,
		Groups:  make([]AgendaGroup, 0),
	}
	var current *AgendaGroup
	for _, ev := range events {
		day := timeutil.StartOfDay(ev.Start)
		if day.Before(winStart) {
			day = winStart
		}
		if current == nil || !timeutil.SameDay(current.Date, day) {
			view.Groups = append(view.Groups, AgendaGroup{Date: day})
			current = &view.Groups[len(view.Groups)-1]
		}
		current.Events = append(current.Events, ev)
	}
	return view
}

func newDay(date, reference, now time.Time, opts Options, events []Event) Day {
	return Day{
		Date:     date,
		InMonth:  timeutil.SameMonth(date, reference),
		Today:    timeutil.SameDay(date, now),
		Selected: !opts.Selected.IsZero() && timeutil.SameDay(date, opts.Selected),
		Events:   EventsForDate(events, date),
	}
}
