package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultMaxInstances is the hard safety cap on expansion. No rule can
// produce more instances than this in a single call, end condition or not.
const DefaultMaxInstances = 365

// Instance is one concrete occurrence produced by expanding a rule. It is
// computed on demand and never persisted.
type Instance struct {
	Date time.Time
	// First marks the earliest generated occurrence of the sequence.
	First bool
}

// Options bounds an expansion. MaxCount <= 0 means DefaultMaxInstances;
// a zero WindowEnd means no window bound.
type Options struct {
	MaxCount  int
	WindowEnd time.Time
}

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

func rruleFreq(f Frequency) rrule.Frequency {
	switch f {
	case Weekly:
		return rrule.WEEKLY
	case Monthly:
		return rrule.MONTHLY
	case Yearly:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}

func buildRRule(r Rule, anchor time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Freq:     rruleFreq(r.Freq),
		Interval: r.Interval,
		Dtstart:  anchor,
		Count:    r.Count,
	}
	if !r.Until.IsZero() {
		// UNTIL names a calendar date; occurrences anywhere on that day
		// still count, so bound at its end in the anchor's zone.
		y, m, d := r.Until.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, anchor.Location())
	}
	if r.Freq == Weekly {
		for _, d := range r.Weekdays {
			if d >= 0 && d <= 6 {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
			}
		}
	}
	if (r.Freq == Monthly || r.Freq == Yearly) && r.MonthDay > 0 {
		opt.Bymonthday = []int{r.MonthDay}
	}
	return rrule.NewRRule(opt)
}

// Instances expands the rule into occurrences strictly after anchor, in
// ascending order. Generation stops at the first of: the rule's own end
// condition, opts.MaxCount, or opts.WindowEnd. The anchor itself is the
// canonical occurrence already carried by the task's due date and is not
// repeated in the output. Calling again with the same arguments reproduces
// the same sequence.
func Instances(r Rule, anchor time.Time, opts Options) ([]Instance, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	max := opts.MaxCount
	if max <= 0 {
		max = DefaultMaxInstances
	}

	rr, err := buildRRule(r, anchor)
	if err != nil {
		return nil, err
	}

	out := make([]Instance, 0, min(max, 32))
	next := rr.Iterator()
	for len(out) < max {
		d, ok := next()
		if !ok {
			break
		}
		if !d.After(anchor) {
			continue
		}
		if !opts.WindowEnd.IsZero() && d.After(opts.WindowEnd) {
			break
		}
		out = append(out, Instance{Date: d, First: len(out) == 0})
	}
	return out, nil
}

// Next returns the first occurrence strictly after the given time, or
// false when the rule has terminated (count exhausted or until passed).
func Next(r Rule, anchor, after time.Time) (time.Time, bool) {
	if err := r.Validate(); err != nil {
		return time.Time{}, false
	}
	rr, err := buildRRule(r, anchor)
	if err != nil {
		return time.Time{}, false
	}
	if after.Before(anchor) {
		after = anchor
	}
	next := rr.After(after, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
