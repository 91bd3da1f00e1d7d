// Package web exposes the JSON API and the ICS feed.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/calendar"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/log"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/matrix"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/model"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/pomodoro"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/quickadd"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/reminder"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/storage"
)

const dateLayout = "2006-01-02"

type Server struct {
	repo storage.Repository
	opts calendar.Options
	loc  *time.Location
	now  func() time.Time

	// One focus session per server; guarded by focusMu.
	focusMu   sync.Mutex
	focus     *pomodoro.Session
	focusTick time.Time
}

func NewServer(repo storage.Repository, opts calendar.Options, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{repo: repo, opts: opts, loc: loc, now: time.Now}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/tasks", s.listTasksHandler)
	mux.HandleFunc("POST /api/tasks", s.createTaskHandler)
	mux.HandleFunc("POST /api/tasks/quickadd", s.quickAddHandler)
	mux.HandleFunc("GET /api/calendar/month", s.monthHandler)
	mux.HandleFunc("GET /api/calendar/week", s.weekHandler)
	mux.HandleFunc("GET /api/calendar/day", s.dayHandler)
	mux.HandleFunc("GET /api/calendar/agenda", s.agendaHandler)
	mux.HandleFunc("GET /api/matrix", s.matrixHandler)
	mux.HandleFunc("GET /api/kanban", s.kanbanHandler)
	s.registerPomodoroRoutes(mux)
	mux.HandleFunc("POST /api/tasks/{id}/reminders", s.createReminderHandler)
	mux.HandleFunc("GET /api/reminders/due", s.dueRemindersHandler)
	mux.HandleFunc("POST /api/reminders/{id}/snooze", s.snoozeHandler)
	mux.HandleFunc("POST /api/reminders/{id}/dismiss", s.dismissHandler)
	mux.HandleFunc("GET /calendar.ics", s.icsHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	filter := storage.TaskListFilter{
		Status: r.URL.Query().Get("status"),
		ListID: r.URL.Query().Get("list_id"),
	}
	tasks, err := s.repo.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, tasks)
}

type createTaskRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Priority         string     `json:"priority"`
	DueAt            *time.Time `json:"due_at"`
	StartAt          *time.Time `json:"start_at"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	RecurrenceRule   string     `json:"recurrence_rule"`
	ListID           string     `json:"list_id"`
	ParentID         string     `json:"parent_id"`
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityNone)
	}

	task := model.Task{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Description:      req.Description,
		Status:           model.StatusTodo,
		Priority:         model.Priority(req.Priority),
		DueAt:            req.DueAt,
		StartAt:          req.StartAt,
		EstimatedMinutes: req.EstimatedMinutes,
		RecurrenceRule:   req.RecurrenceRule,
		ListID:           req.ListID,
		ParentID:         req.ParentID,
		CreatedAt:        s.now(),
	}
	if err := task.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.repo.CreateTask(r.Context(), toStorageTask(task)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Info("task created", "id", task.ID, "title", task.Title)
	writeJSONStatus(w, http.StatusCreated, task)
}

type quickAddRequest struct {
	Input string `json:"input"`
}

func (s *Server) quickAddHandler(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	now := s.now().In(s.loc)
	parsed, err := quickadd.Parse(req.Input, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task := model.Task{
		ID:               uuid.NewString(),
		Title:            parsed.Title,
		Status:           model.StatusTodo,
		Priority:         parsed.Priority,
		DueAt:            parsed.Due,
		EstimatedMinutes: parsed.EstimatedMinutes,
		RecurrenceRule:   parsed.Recurrence,
		CreatedAt:        s.now(),
	}
	if err := s.repo.CreateTask(r.Context(), toStorageTask(task)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if len(parsed.Tags) > 0 {
		tagIDs, err := s.ensureTags(r, parsed.Tags)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.repo.SetTaskTags(r.Context(), task.ID, tagIDs); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	log.Info("task created via quick-add", "id", task.ID, "title", task.Title)
	writeJSONStatus(w, http.StatusCreated, task)
}

// ensureTags resolves tag names to ids, creating missing tags.
func (s *Server) ensureTags(r *http.Request, names []string) ([]string, error) {
	existing, err := s.repo.ListTags(r.Context(), storage.TagListFilter{})
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(existing))
	for _, tag := range existing {
		byName[tag.Name] = tag.ID
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
			continue
		}
		tag := storage.Tag{ID: uuid.NewString(), Name: name, CreatedAt: s.now()}
		if err := s.repo.CreateTag(r.Context(), tag); err != nil {
			return nil, err
		}
		byName[name] = tag.ID
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *Server) monthHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := s.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	view := calendar.NewMonthView(tasks, ref, s.now().In(s.loc), s.opts)
	logSkipped("month", view.Skipped)
	writeJSON(w, view)
}

func (s *Server) weekHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := s.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	view := calendar.NewWeekView(tasks, ref, s.now().In(s.loc), s.opts)
	logSkipped("week", view.Skipped)
	writeJSON(w, view)
}

func (s *Server) dayHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := s.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	view := calendar.NewDayView(tasks, ref, s.now().In(s.loc), s.opts)
	logSkipped("day", view.Skipped)
	writeJSON(w, view)
}

func (s *Server) agendaHandler(w http.ResponseWriter, r *http.Request) {
	from, err := s.dateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := s.dateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	view := calendar.NewAgendaView(tasks, from, to, s.now().In(s.loc), s.opts)
	logSkipped("agenda", view.Skipped)
	writeJSON(w, view)
}

// matrixHandler classifies open tasks into Eisenhower quadrants.
func (s *Server) matrixHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, matrix.Group(tasks, s.now().In(s.loc), nil))
}

// kanbanHandler buckets tasks into status columns.
func (s *Server) kanbanHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, matrix.GroupByStatus(tasks))
}

type createReminderRequest struct {
	Type          string     `json:"type"`
	FireAt        *time.Time `json:"fire_at"`
	OffsetMinutes *int       `json:"offset_minutes"`
}

// createReminderHandler attaches a reminder to a task. Offset-based
// reminders resolve their fire time against the task's due date at
// creation.
func (s *Server) createReminderHandler(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Type == "" {
		req.Type = string(reminder.TypePush)
	}

	task, err := s.repo.GetTask(r.Context(), taskID)
	if err != nil {
		writeError(w, statusForStorageErr(err), err)
		return
	}

	rem := reminder.Reminder{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		Type:          reminder.Type(req.Type),
		FireAt:        req.FireAt,
		OffsetMinutes: req.OffsetMinutes,
		Status:        reminder.StatusPending,
		CreatedAt:     s.now(),
	}
	if err := rem.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resolved, err := reminder.Resolve(rem, task.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored := toStorageReminder(resolved)
	if err := s.repo.CreateReminder(r.Context(), stored); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Info("reminder created", "id", resolved.ID, "task", task.ID, "type", req.Type)
	writeJSONStatus(w, http.StatusCreated, stored)
}

func (s *Server) dueRemindersHandler(w http.ResponseWriter, r *http.Request) {
	due, err := s.repo.DueReminders(r.Context(), s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, due)
}

type snoozeRequest struct {
	Until time.Time `json:"until"`
}

func (s *Server) snoozeHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req snoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	stored, err := s.repo.GetReminder(r.Context(), id)
	if err != nil {
		writeError(w, statusForStorageErr(err), err)
		return
	}

	snoozed, err := reminder.Snooze(toReminder(stored), req.Until, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated := toStorageReminder(snoozed)
	if err := s.repo.UpdateReminder(r.Context(), updated); err != nil {
		writeError(w, statusForStorageErr(err), err)
		return
	}
	log.Info("reminder snoozed", "id", id, "until", req.Until.Format(time.RFC3339))
	writeJSON(w, updated)
}

func (s *Server) dismissHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stored, err := s.repo.GetReminder(r.Context(), id)
	if err != nil {
		writeError(w, statusForStorageErr(err), err)
		return
	}

	updated := toStorageReminder(reminder.Dismiss(toReminder(stored)))
	if err := s.repo.UpdateReminder(r.Context(), updated); err != nil {
		writeError(w, statusForStorageErr(err), err)
		return
	}
	log.Info("reminder dismissed", "id", id)
	writeJSON(w, updated)
}

// icsHandler publishes the next year of calendar events as an ICS feed.
func (s *Server) icsHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.loadModelTasks(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	now := s.now().In(s.loc)
	view := calendar.NewAgendaView(tasks, now.AddDate(0, 0, -30), now.AddDate(1, 0, 0), now, s.opts)
	logSkipped("ics", view.Skipped)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tickcal//calendar//EN")
	for _, group := range view.Groups {
		for _, ev := range group.Events {
			entry := cal.AddEvent(ev.ID)
			entry.SetDtStampTime(now)
			entry.SetSummary(ev.Title)
			if ev.AllDay {
				entry.SetAllDayStartAt(ev.Start)
				entry.SetAllDayEndAt(ev.Start.AddDate(0, 0, 1))
			} else {
				entry.SetStartAt(ev.Start)
				entry.SetEndAt(ev.End)
			}
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(cal.Serialize()))
}

func (s *Server) loadModelTasks(r *http.Request) ([]model.Task, error) {
	stored, err := s.repo.ListTasks(r.Context(), storage.TaskListFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(stored))
	for _, t := range stored {
		out = append(out, toModelTask(t))
	}
	return out, nil
}

func (s *Server) dateParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return s.now().In(s.loc), nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s parameter %q: expected YYYY-MM-DD", key, raw)
	}
	return parsed, nil
}

func logSkipped(view string, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	log.Warn("tasks skipped from view", "view", view, "count", len(skipped), "ids", fmt.Sprint(skipped))
}

func toModelTask(t storage.Task) model.Task {
	return model.Task{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           model.TaskStatus(t.Status),
		Priority:         model.Priority(t.Priority),
		DueAt:            t.DueAt,
		StartAt:          t.StartAt,
		EstimatedMinutes: t.EstimatedMinutes,
		RecurrenceRule:   t.RecurrenceRule,
		ListID:           t.ListID,
		ParentID:         t.ParentID,
		CreatedAt:        t.CreatedAt,
		CompletedAt:      t.CompletedAt,
	}
}

func toStorageTask(t model.Task) storage.Task {
	return storage.Task{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		DueAt:            t.DueAt,
		StartAt:          t.StartAt,
		EstimatedMinutes: t.EstimatedMinutes,
		RecurrenceRule:   t.RecurrenceRule,
		ListID:           t.ListID,
		ParentID:         t.ParentID,
		CreatedAt:        t.CreatedAt,
		CompletedAt:      t.CompletedAt,
	}
}

func toReminder(r storage.Reminder) reminder.Reminder {
	return reminder.Reminder{
		ID:            r.ID,
		TaskID:        r.TaskID,
		Type:          reminder.Type(r.Type),
		FireAt:        r.FireAt,
		OffsetMinutes: r.OffsetMinutes,
		Status:        reminder.Status(r.Status),
		SnoozedUntil:  r.SnoozedUntil,
		CreatedAt:     r.CreatedAt,
	}
}

func toStorageReminder(r reminder.Reminder) storage.Reminder {
	return storage.Reminder{
		ID:            r.ID,
		TaskID:        r.TaskID,
		Type:          string(r.Type),
		FireAt:        r.FireAt,
		OffsetMinutes: r.OffsetMinutes,
		Status:        string(r.Status),
		SnoozedUntil:  r.SnoozedUntil,
		CreatedAt:     r.CreatedAt,
	}
}

func statusForStorageErr(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
