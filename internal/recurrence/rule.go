// Package recurrence implements parsing, serialization and bounded
// expansion of task repeat rules. Rules are immutable value objects; all
// generation is deterministic with respect to the rule and anchor date.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidFormat    = errors.New("recurrence: invalid rule format")
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	ErrInvalidInterval  = errors.New("recurrence: invalid interval")
	ErrInvalidCount     = errors.New("recurrence: invalid count")
	ErrInvalidWeekday   = errors.New("recurrence: invalid weekday")
	ErrInvalidMonthDay  = errors.New("recurrence: invalid day of month")
)

type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

const untilLayout = "2006-01-02"

// Rule describes how a task repeats. Exactly one end condition is active:
// Count > 0, a non-zero Until date, or neither (repeat forever). Weekdays
// uses 0=Sunday..6=Saturday and applies to weekly rules; MonthDay applies
// to monthly and yearly rules.
type Rule struct {
	Freq     Frequency
	Interval int
	Count    int
	Until    time.Time
	Weekdays []int
	MonthDay int
}

func (r Rule) Validate() error {
	if !r.Freq.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Freq)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, r.Count)
	}
	if r.Count > 0 && !r.Until.IsZero() {
		return fmt.Errorf("%w: count and until are mutually exclusive", ErrInvalidFormat)
	}
	for _, d := range r.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
	}
	if r.MonthDay != 0 && (r.MonthDay < 1 || r.MonthDay > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidMonthDay, r.MonthDay)
	}
	return nil
}

// Parse decodes the serialized form produced by String: semicolon-separated
// KEY=VALUE pairs, e.g. "FREQ=WEEKLY;INTERVAL=2;BYDAY=1,3".
func Parse(serialized string) (Rule, error) {
	s := strings.TrimSpace(serialized)
	if s == "" {
		return Rule{}, fmt.Errorf("%w: empty rule", ErrInvalidFormat)
	}

	rule := Rule{Interval: 1}
	seenFreq := false
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			return Rule{}, fmt.Errorf("%w: %q", ErrInvalidFormat, part)
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			rule.Freq = Frequency(strings.ToUpper(value))
			seenFreq = true
		case "INTERVAL":
			v, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: interval %q", ErrInvalidFormat, value)
			}
			rule.Interval = v
		case "COUNT":
			v, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: count %q", ErrInvalidFormat, value)
			}
			rule.Count = v
		case "UNTIL":
			v, err := time.Parse(untilLayout, value)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: until %q", ErrInvalidFormat, value)
			}
			rule.Until = v
		case "BYDAY":
			for _, token := range strings.Split(value, ",") {
				d, err := strconv.Atoi(strings.TrimSpace(token))
				if err != nil {
					return Rule{}, fmt.Errorf("%w: byday %q", ErrInvalidFormat, token)
				}
				rule.Weekdays = append(rule.Weekdays, d)
			}
		case "BYMONTHDAY":
			v, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: bymonthday %q", ErrInvalidFormat, value)
			}
			rule.MonthDay = v
		default:
			return Rule{}, fmt.Errorf("%w: unknown key %q", ErrInvalidFormat, key)
		}
	}
	if !seenFreq {
		return Rule{}, fmt.Errorf("%w: missing FREQ", ErrInvalidFormat)
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// String serializes the rule in canonical form. Parse(r.String()) yields a
// rule equal to r for every valid rule.
func (r Rule) String() string {
	parts := []string{
		"FREQ=" + string(r.Freq),
		"INTERVAL=" + strconv.Itoa(r.Interval),
	}
	if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+r.Until.Format(untilLayout))
	}
	if len(r.Weekdays) > 0 {
		days := make([]string, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			days = append(days, strconv.Itoa(d))
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if r.MonthDay > 0 {
		parts = append(parts, "BYMONTHDAY="+strconv.Itoa(r.MonthDay))
	}
	return strings.Join(parts, ";")
}

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Describe renders a deterministic human-readable summary, e.g.
// "Every 2 weeks on Monday, Wednesday, 10 times".
func (r Rule) Describe() string {
	var b strings.Builder
	unit := map[Frequency]string{Daily: "day", Weekly: "week", Monthly: "month", Yearly: "year"}[r.Freq]
	if r.Interval == 1 {
		b.WriteString("Every " + unit)
	} else {
		fmt.Fprintf(&b, "Every %d %ss", r.Interval, unit)
	}

	if r.Freq == Weekly && len(r.Weekdays) > 0 {
		days := append([]int(nil), r.Weekdays...)
		sort.Ints(days)
		names := make([]string, 0, len(days))
		for _, d := range days {
			if d >= 0 && d <= 6 {
				names = append(names, weekdayNames[d])
			}
		}
		b.WriteString(" on " + strings.Join(names, ", "))
	}
	if (r.Freq == Monthly || r.Freq == Yearly) && r.MonthDay > 0 {
		fmt.Fprintf(&b, " on day %d", r.MonthDay)
	}
	if r.Count > 0 {
		fmt.Fprintf(&b, ", %d times", r.Count)
	}
	if !r.Until.IsZero() {
		b.WriteString(" until " + r.Until.Format(untilLayout))
	}
	return b.String()
}
