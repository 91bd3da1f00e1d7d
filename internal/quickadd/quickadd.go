// Package quickadd parses the smart task entry syntax, e.g.
//
//	Pay rent tomorrow 14:00 #finance !high every month ~30m
//
// Tokens anywhere in the input contribute structure; everything left
// over becomes the title.
package quickadd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/recurrence"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/timeutil"
)

type ErrorCode string

const (
	ErrCodeEmptyInput    ErrorCode = "empty_input"
	ErrCodeEmptyTitle    ErrorCode = "empty_title"
	ErrCodeBadPriority   ErrorCode = "bad_priority"
	ErrCodeBadEstimate   ErrorCode = "bad_estimate"
	ErrCodeBadRecurrence ErrorCode = "bad_recurrence"
)

type ParseError struct {
	Code    ErrorCode
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the structured form of a quick-add line.
type Result struct {
	Title            string
	Due              *time.Time
	Priority         model.Priority
	Tags             []string
	Recurrence       string
	EstimatedMinutes int
}

var priorities = map[string]model.Priority{
	"low":    model.PriorityLow,
	"medium": model.PriorityMedium,
	"med":    model.PriorityMedium,
	"high":   model.PriorityHigh,
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var everyFreqs = map[string]recurrence.Frequency{
	"day":   recurrence.Daily,
	"week":  recurrence.Weekly,
	"month": recurrence.Monthly,
	"year":  recurrence.Yearly,
}

// Parse interprets input relative to now. Date words resolve in now's
// location; a bare time of day applies to the resolved (or current)
// date.
func Parse(input string, now time.Time) (Result, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Result{}, &ParseError{Code: ErrCodeEmptyInput, Message: "quick-add input is empty"}
	}

	out := Result{Priority: model.PriorityNone}
	var titleParts []string
	var dueDate *time.Time
	var dueClock *int // minutes past midnight

	tokens := strings.Fields(raw)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok)

		switch {
		case strings.HasPrefix(tok, "#") && len(tok) > 1:
			out.Tags = append(out.Tags, strings.TrimPrefix(tok, "#"))

		case strings.HasPrefix(tok, "!") && len(tok) > 1:
			p, ok := priorities[strings.ToLower(strings.TrimPrefix(lower, "!"))]
			if !ok {
				return Result{}, &ParseError{Code: ErrCodeBadPriority, Message: fmt.Sprintf("unknown priority %q", tok)}
			}
			out.Priority = p

		case strings.HasPrefix(tok, "~") && len(tok) > 1:
			minutes, err := timeutil.ParseDuration(strings.TrimPrefix(tok, "~"))
			if err != nil {
				return Result{}, &ParseError{Code: ErrCodeBadEstimate, Message: fmt.Sprintf("bad estimate %q", tok)}
			}
			out.EstimatedMinutes = minutes

		case lower == "today":
			d := timeutil.StartOfDay(now)
			dueDate = &d

		case lower == "tomorrow":
			d := timeutil.StartOfDay(now.AddDate(0, 0, 1))
			dueDate = &d

		case weekdayToken(lower) != nil:
			d := nextWeekday(now, *weekdayToken(lower))
			dueDate = &d

		case lower == "every" && i+1 < len(tokens):
			rule, consumed, err := parseEvery(tokens[i+1:])
			if err != nil {
				return Result{}, err
			}
			out.Recurrence = rule
			i += consumed

		case clockToken(lower) != nil:
			dueClock = clockToken(lower)

		default:
			titleParts = append(titleParts, tok)
		}
	}

	out.Title = strings.Join(titleParts, " ")
	if out.Title == "" {
		return Result{}, &ParseError{Code: ErrCodeEmptyTitle, Message: "quick-add input has no title"}
	}

	if dueDate != nil || dueClock != nil {
		base := timeutil.StartOfDay(now)
		if dueDate != nil {
			base = *dueDate
		}
		if dueClock != nil {
			base = base.Add(time.Duration(*dueClock) * time.Minute)
		}
		out.Due = &base
	}

	return out, nil
}

func weekdayToken(lower string) *time.Weekday {
	if wd, ok := weekdays[lower]; ok {
		return &wd
	}
	return nil
}

// nextWeekday returns the next occurrence of wd strictly after today.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return timeutil.StartOfDay(now.AddDate(0, 0, days))
}

// clockToken parses HH:MM into minutes past midnight.
func clockToken(lower string) *int {
	parts := strings.SplitN(lower, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return nil
	}
	total := hour*60 + minute
	return &total
}

// parseEvery reads the tokens after "every": an optional interval
// digit, then a unit ("day", "2 weeks") or a weekday name.
func parseEvery(rest []string) (string, int, error) {
	consumed := 0
	interval := 1
	idx := 0

	if idx < len(rest) {
		if n, err := strconv.Atoi(rest[idx]); err == nil && n > 0 {
			interval = n
			idx++
			consumed++
		}
	}
	if idx >= len(rest) {
		return "", 0, &ParseError{Code: ErrCodeBadRecurrence, Message: "recurrence is missing a unit"}
	}

	unit := strings.ToLower(strings.TrimSuffix(rest[idx], "s"))
	consumed++

	if wd, ok := weekdays[unit]; ok {
		rule := recurrence.Rule{Freq: recurrence.Weekly, Interval: interval, Weekdays: []int{int(wd)}}
		return rule.String(), consumed, nil
	}
	freq, ok := everyFreqs[unit]
	if !ok {
		return "", 0, &ParseError{Code: ErrCodeBadRecurrence, Message: fmt.Sprintf("unknown recurrence unit %q", rest[idx])}
	}
	rule := recurrence.Rule{Freq: freq, Interval: interval}
	return rule.String(), consumed, nil
}
