// Package pomodoro implements the focus session state machine: timed
// work blocks alternating with short breaks, with a long break after
// every few completed blocks.
package pomodoro

import (
	"errors"
	"time"
)

type Phase string

const (
	PhaseWork       Phase = "WORK"
	PhaseShortBreak Phase = "SHORT_BREAK"
	PhaseLongBreak  Phase = "LONG_BREAK"
)

var (
	ErrAlreadyRunning = errors.New("pomodoro: session already running")
	ErrNotRunning     = errors.New("pomodoro: session not running")
)

// Options sets the phase durations. Zero values fall back to the
// classic 25/5/15 scheme with a long break every 4th block.
type Options struct {
	WorkDuration       time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration
	BlocksPerLongBreak int
}

func (o *Options) normalize() {
	if o.WorkDuration <= 0 {
		o.WorkDuration = 25 * time.Minute
	}
	if o.ShortBreakDuration <= 0 {
		o.ShortBreakDuration = 5 * time.Minute
	}
	if o.LongBreakDuration <= 0 {
		o.LongBreakDuration = 15 * time.Minute
	}
	if o.BlocksPerLongBreak <= 0 {
		o.BlocksPerLongBreak = 4
	}
}

// Session is a single-task pomodoro timer. It is driven externally via
// Tick so callers control the clock; it holds no goroutines.
type Session struct {
	TaskID          string
	Phase           Phase
	Remaining       time.Duration
	Running         bool
	CompletedBlocks int

	opts Options
}

func NewSession(taskID string, opts Options) *Session {
	opts.normalize()
	return &Session{
		TaskID:    taskID,
		Phase:     PhaseWork,
		Remaining: opts.WorkDuration,
		opts:      opts,
	}
}

func (s *Session) Start() error {
	if s.Running {
		return ErrAlreadyRunning
	}
	if s.Remaining <= 0 {
		s.Remaining = s.phaseTotal()
	}
	s.Running = true
	return nil
}

func (s *Session) Pause() error {
	if !s.Running {
		return ErrNotRunning
	}
	s.Running = false
	return nil
}

// Reset stops the timer and restores the full duration of the current
// phase. Completed block history is kept.
func (s *Session) Reset() {
	s.Running = false
	s.Remaining = s.phaseTotal()
}

// Tick advances the session clock by elapsed. It reports true when the
// tick finished the current phase; the session then stops and waits for
// Advance (or Start on the next phase after Advance).
func (s *Session) Tick(elapsed time.Duration) bool {
	if !s.Running || elapsed <= 0 {
		return false
	}
	s.Remaining -= elapsed
	if s.Remaining > 0 {
		return false
	}
	s.Remaining = 0
	s.Running = false
	return true
}

// Advance moves to the next phase: finishing a work block increments
// the completed counter and yields a short break, or a long one at the
// configured cadence. Finishing any break yields the next work block.
func (s *Session) Advance() {
	s.Running = false
	if s.Phase == PhaseWork {
		s.CompletedBlocks++
		if s.CompletedBlocks%s.opts.BlocksPerLongBreak == 0 {
			s.Phase = PhaseLongBreak
			s.Remaining = s.opts.LongBreakDuration
		} else {
			s.Phase = PhaseShortBreak
			s.Remaining = s.opts.ShortBreakDuration
		}
		return
	}
	s.Phase = PhaseWork
	s.Remaining = s.opts.WorkDuration
}

func (s *Session) phaseTotal() time.Duration {
	switch s.Phase {
	case PhaseShortBreak:
		return s.opts.ShortBreakDuration
	case PhaseLongBreak:
		return s.opts.LongBreakDuration
	default:
		return s.opts.WorkDuration
	}
}
