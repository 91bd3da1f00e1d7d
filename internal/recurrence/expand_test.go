package recurrence

import (
	"testing"
	"time"
)

var anchor = time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC) // Monday

func TestInstancesDaily(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 2}
	got, err := Instances(rule, anchor, Options{MaxCount: 3})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	want := []string{"2026-02-11 09:00", "2026-02-13 09:00", "2026-02-15 09:00"}
	if len(got) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(got))
	}
	for i := range got {
		if s := got[i].Date.Format("2006-01-02 15:04"); s != want[i] {
			t.Fatalf("instance %d: got %s want %s", i, s, want[i])
		}
	}
	if !got[0].First || got[1].First {
		t.Fatalf("First flag must mark only the earliest instance")
	}
}

func TestInstancesAreStrictlyAfterAnchorAndAscending(t *testing.T) {
	rule := Rule{Freq: Weekly, Interval: 1, Weekdays: []int{1, 3, 5}}
	got, err := Instances(rule, anchor, Options{MaxCount: 20})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 instances, got %d", len(got))
	}
	prev := anchor
	for i, inst := range got {
		if !inst.Date.After(prev) {
			t.Fatalf("instance %d not strictly increasing: %s after %s", i, inst.Date, prev)
		}
		wd := inst.Date.Weekday()
		if wd != time.Monday && wd != time.Wednesday && wd != time.Friday {
			t.Fatalf("instance %d on wrong weekday: %s", i, inst.Date)
		}
		prev = inst.Date
	}
}

func TestInstancesHardCap(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1} // no end condition
	got, err := Instances(rule, anchor, Options{MaxCount: 365})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(got) != 365 {
		t.Fatalf("expected exactly 365 instances, got %d", len(got))
	}
}

func TestInstancesDefaultCap(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1}
	got, err := Instances(rule, anchor, Options{})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(got) != DefaultMaxInstances {
		t.Fatalf("expected %d instances, got %d", DefaultMaxInstances, len(got))
	}
}

func TestInstancesCountEndsSeries(t *testing.T) {
	// COUNT bounds the whole series; the anchor occurrence is the first
	// member, so 5 total leaves 4 generated instances.
	rule := Rule{Freq: Daily, Interval: 1, Count: 5}
	got, err := Instances(rule, anchor, Options{MaxCount: 365})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 instances, got %d", len(got))
	}
}

func TestInstancesUntilBound(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1, Until: time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)}
	got, err := Instances(rule, anchor, Options{MaxCount: 365})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	// Feb 10, 11, 12 — the until date itself still yields an occurrence.
	if len(got) != 3 {
		t.Fatalf("expected 3 instances, got %d: %v", len(got), got)
	}
}

func TestInstancesUntilBeforeAnchorYieldsNothing(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1, Until: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	got, err := Instances(rule, anchor, Options{MaxCount: 365})
	if err != nil {
		t.Fatalf("expected no error for past until date, got: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero instances, got %d", len(got))
	}
}

func TestInstancesWindowEnd(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1}
	got, err := Instances(rule, anchor, Options{MaxCount: 365, WindowEnd: anchor.AddDate(0, 0, 7)})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("expected 7 instances inside window, got %d", len(got))
	}
}

func TestInstancesMonthlyByMonthDay(t *testing.T) {
	rule := Rule{Freq: Monthly, Interval: 1, MonthDay: 15}
	got, err := Instances(rule, anchor, Options{MaxCount: 3})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	want := []string{"2026-02-15", "2026-03-15", "2026-04-15"}
	for i := range got {
		if s := got[i].Date.Format("2006-01-02"); s != want[i] {
			t.Fatalf("instance %d: got %s want %s", i, s, want[i])
		}
	}
}

func TestInstancesDeterministic(t *testing.T) {
	rule := Rule{Freq: Weekly, Interval: 2, Weekdays: []int{2}}
	first, err := Instances(rule, anchor, Options{MaxCount: 10})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	second, err := Instances(rule, anchor, Options{MaxCount: 10})
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Date.Equal(second[i].Date) || first[i].First != second[i].First {
			t.Fatalf("non-deterministic instance %d", i)
		}
	}
}

func TestInstancesRejectsInvalidRule(t *testing.T) {
	if _, err := Instances(Rule{Freq: Daily, Interval: 0}, anchor, Options{}); err == nil {
		t.Fatalf("expected error for invalid interval")
	}
}

func TestNext(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 3}
	next, ok := Next(rule, anchor, anchor.AddDate(0, 0, 4))
	if !ok {
		t.Fatalf("expected next occurrence")
	}
	if s := next.Format("2006-01-02 15:04"); s != "2026-02-15 09:00" {
		t.Fatalf("unexpected next: %s", s)
	}
}

func TestNextExhausted(t *testing.T) {
	rule := Rule{Freq: Daily, Interval: 1, Count: 2}
	if _, ok := Next(rule, anchor, anchor.AddDate(0, 0, 30)); ok {
		t.Fatalf("expected exhausted rule to return no occurrence")
	}
	pastUntil := Rule{Freq: Daily, Interval: 1, Until: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, ok := Next(pastUntil, anchor, anchor); ok {
		t.Fatalf("expected terminated rule to return no occurrence")
	}
}
