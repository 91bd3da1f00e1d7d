package calendar

import (
	"strings"
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/timeutil"
)

// Filter narrows an event collection. Every provided criterion is ANDed;
// a zero/empty criterion imposes no constraint.
type Filter struct {
	Statuses      []model.TaskStatus
	Priorities    []model.Priority
	ListIDs       []string
	TagIDs        []string
	Search        string
	From          *time.Time
	To            *time.Time
	HideCompleted bool
	// AllDay nil keeps both kinds; true keeps only all-day events; false
	// keeps only timed ones.
	AllDay *bool
}

// Apply returns the events matching every criterion of the filter.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if f.matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func (f Filter) matches(ev Event) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, ev.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, ev.Priority) {
		return false
	}
	if len(f.ListIDs) > 0 && !containsString(f.ListIDs, ev.ListID) {
		return false
	}
	if len(f.TagIDs) > 0 && !hasAnyTag(ev.Tags, f.TagIDs) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(ev.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.From != nil || f.To != nil {
		from := ev.Start
		to := ev.End
		if f.From != nil && to.Before(*f.From) {
			return false
		}
		if f.To != nil && from.After(*f.To) {
			return false
		}
	}
	if f.HideCompleted && ev.Status == model.StatusDone {
		return false
	}
	if f.AllDay != nil && ev.AllDay != *f.AllDay {
		return false
	}
	return true
}

// WithinRange is a convenience used by handlers that clamp a filter to a
// view window before applying it.
func (f Filter) WithinRange(start, end time.Time) Filter {
	clamped := f
	if clamped.From == nil || start.After(*clamped.From) {
		s := timeutil.StartOfDay(start)
		clamped.From = &s
	}
	if clamped.To == nil || end.Before(*clamped.To) {
		e := timeutil.EndOfDay(end)
		clamped.To = &e
	}
	return clamped
}

func containsStatus(set []model.TaskStatus, v model.TaskStatus) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(set []model.Priority, v model.Priority) bool {
	for _, p := range set {
		if p == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func hasAnyTag(tags []model.Tag, wanted []string) bool {
	for _, tag := range tags {
		if containsString(wanted, tag.ID) {
			return true
		}
	}
	return false
}
