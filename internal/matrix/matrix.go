// Package matrix classifies tasks into Eisenhower quadrants and groups
// them into kanban columns.
package matrix

import (
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
)

type Quadrant string

const (
	UrgentImportant       Quadrant = "URGENT_IMPORTANT"
	NotUrgentImportant    Quadrant = "NOT_URGENT_IMPORTANT"
	UrgentNotImportant    Quadrant = "URGENT_NOT_IMPORTANT"
	NotUrgentNotImportant Quadrant = "NOT_URGENT_NOT_IMPORTANT"
)

// urgencyWindow is how close a due date must be for a task to count as
// urgent. Overdue tasks are always urgent.
const urgencyWindow = 24 * time.Hour

// Classify places a task in a quadrant: HIGH and MEDIUM priority count
// as important, a due date within a day (or already past) counts as
// urgent. Manual assignments in overrides, keyed by task ID, win over
// the derived placement.
func Classify(t model.Task, now time.Time, overrides map[string]Quadrant) Quadrant {
	if q, ok := overrides[t.ID]; ok {
		return q
	}

	important := t.Priority == model.PriorityHigh || t.Priority == model.PriorityMedium
	urgent := t.DueAt != nil && t.DueAt.Sub(now) <= urgencyWindow

	switch {
	case urgent && important:
		return UrgentImportant
	case important:
		return NotUrgentImportant
	case urgent:
		return UrgentNotImportant
	default:
		return NotUrgentNotImportant
	}
}

// Group buckets tasks by quadrant. Terminal tasks are skipped; the
// matrix is a planning view, not an archive.
func Group(tasks []model.Task, now time.Time, overrides map[string]Quadrant) map[Quadrant][]model.Task {
	out := make(map[Quadrant][]model.Task, 4)
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			continue
		}
		q := Classify(t, now, overrides)
		out[q] = append(out[q], t)
	}
	return out
}

// GroupByStatus buckets tasks into kanban columns by status, keeping
// input order within each column.
func GroupByStatus(tasks []model.Task) map[model.TaskStatus][]model.Task {
	out := make(map[model.TaskStatus][]model.Task, 4)
	for _, t := range tasks {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}
