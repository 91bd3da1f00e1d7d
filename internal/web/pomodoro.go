package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/log"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/pomodoro"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/storage"
)

var errNoFocusSession = errors.New("web: no focus session")

func (s *Server) registerPomodoroRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/pomodoro", s.focusStateHandler)
	mux.HandleFunc("POST /api/pomodoro/start", s.focusStartHandler)
	mux.HandleFunc("POST /api/pomodoro/pause", s.focusPauseHandler)
	mux.HandleFunc("POST /api/pomodoro/reset", s.focusResetHandler)
	mux.HandleFunc("POST /api/pomodoro/advance", s.focusAdvanceHandler)
}

type focusState struct {
	TaskID           string `json:"task_id"`
	Phase            string `json:"phase"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Running          bool   `json:"running"`
	CompletedBlocks  int    `json:"completed_blocks"`
	// PhaseDone marks a countdown that reached zero and is waiting for
	// an advance.
	PhaseDone bool `json:"phase_done"`
}

func (s *Server) snapshotFocus() focusState {
	sess := s.focus
	return focusState{
		TaskID:           sess.TaskID,
		Phase:            string(sess.Phase),
		RemainingSeconds: int(sess.Remaining / time.Second),
		Running:          sess.Running,
		CompletedBlocks:  sess.CompletedBlocks,
		PhaseDone:        sess.Remaining == 0 && !sess.Running,
	}
}

// applyFocusClock folds wall-clock time elapsed since the last request
// into the session countdown. The session itself never sees the clock.
func (s *Server) applyFocusClock() {
	now := s.now()
	if s.focus != nil && s.focus.Running {
		s.focus.Tick(now.Sub(s.focusTick))
	}
	s.focusTick = now
}

func (s *Server) focusStateHandler(w http.ResponseWriter, _ *http.Request) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focus == nil {
		writeError(w, http.StatusNotFound, errNoFocusSession)
		return
	}
	s.applyFocusClock()
	writeJSON(w, s.snapshotFocus())
}

type focusStartRequest struct {
	TaskID             string `json:"task_id"`
	WorkMinutes        int    `json:"work_minutes"`
	ShortBreakMinutes  int    `json:"short_break_minutes"`
	LongBreakMinutes   int    `json:"long_break_minutes"`
	BlocksPerLongBreak int    `json:"blocks_per_long_break"`
}

// focusStartHandler starts (or resumes) the focus session. A task id
// different from the current session's replaces the session.
func (s *Server) focusStartHandler(w http.ResponseWriter, r *http.Request) {
	var req focusStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.TaskID != "" {
		if _, err := s.repo.GetTask(r.Context(), req.TaskID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	s.applyFocusClock()

	if s.focus == nil || (req.TaskID != "" && req.TaskID != s.focus.TaskID) {
		s.focus = pomodoro.NewSession(req.TaskID, pomodoro.Options{
			WorkDuration:       time.Duration(req.WorkMinutes) * time.Minute,
			ShortBreakDuration: time.Duration(req.ShortBreakMinutes) * time.Minute,
			LongBreakDuration:  time.Duration(req.LongBreakMinutes) * time.Minute,
			BlocksPerLongBreak: req.BlocksPerLongBreak,
		})
	}
	if err := s.focus.Start(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	log.Info("focus session started", "task", s.focus.TaskID, "phase", string(s.focus.Phase))
	writeJSON(w, s.snapshotFocus())
}

func (s *Server) focusPauseHandler(w http.ResponseWriter, _ *http.Request) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focus == nil {
		writeError(w, http.StatusNotFound, errNoFocusSession)
		return
	}
	s.applyFocusClock()
	if err := s.focus.Pause(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, s.snapshotFocus())
}

func (s *Server) focusResetHandler(w http.ResponseWriter, _ *http.Request) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focus == nil {
		writeError(w, http.StatusNotFound, errNoFocusSession)
		return
	}
	s.applyFocusClock()
	s.focus.Reset()
	writeJSON(w, s.snapshotFocus())
}

func (s *Server) focusAdvanceHandler(w http.ResponseWriter, _ *http.Request) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focus == nil {
		writeError(w, http.StatusNotFound, errNoFocusSession)
		return
	}
	s.applyFocusClock()
	s.focus.Advance()
	log.Info("focus phase advanced", "task", s.focus.TaskID, "phase", string(s.focus.Phase), "blocks", s.focus.CompletedBlocks)
	writeJSON(w, s.snapshotFocus())
}
