package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/calendar"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/config"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/log"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/reminder"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/scheduler"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/storage"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/web"
)

var logLevel string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.SetLevel(log.ParseLevel(logLevel))

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolve timezone %q: %w", cfg.Timezone, err)
	}

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()
	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	engine := scheduler.NewEngine(64)
	engine.Start()
	defer engine.Stop()

	sweeper := newReminderSweeper(repo, engine)
	go sweeper.consume(engine.C())

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.ReminderCron, sweeper.sweep); err != nil {
		return fmt.Errorf("reminder sweep schedule %q: %w", cfg.ReminderCron, err)
	}
	sched.Start()
	defer sched.Stop()

	opts := calendar.Options{
		WeekStart:     cfg.WeekStartDay(),
		DayStartHour:  cfg.DayStartHour,
		DayEndHour:    cfg.DayEndHour,
		RecurrenceCap: cfg.RecurrenceCap,
	}
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: web.NewServer(repo, opts, loc).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// reminderSweeper bridges storage and the scheduler engine: the cron
// sweep loads due reminders and enqueues them, the consumer marks
// delivered ones SENT. inFlight guards against re-enqueueing a
// reminder the consumer has not written back yet.
type reminderSweeper struct {
	repo   storage.Repository
	engine *scheduler.Engine

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newReminderSweeper(repo storage.Repository, engine *scheduler.Engine) *reminderSweeper {
	return &reminderSweeper{
		repo:     repo,
		engine:   engine,
		inFlight: make(map[string]struct{}),
	}
}

func (s *reminderSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	due, err := s.repo.DueReminders(ctx, now)
	if err != nil {
		log.Error("reminder sweep failed", err)
		return
	}

	for _, item := range due {
		if !s.claim(item.ID) {
			continue
		}
		rem := reminder.Reminder{
			ID:            item.ID,
			TaskID:        item.TaskID,
			Type:          reminder.Type(item.Type),
			FireAt:        item.FireAt,
			OffsetMinutes: item.OffsetMinutes,
			Status:        reminder.Status(item.Status),
			SnoozedUntil:  item.SnoozedUntil,
			CreatedAt:     item.CreatedAt,
		}
		if err := s.engine.ScheduleReminder(rem, now); err != nil {
			s.release(item.ID)
			log.Error("schedule reminder failed", err, "id", item.ID)
		}
	}
}

func (s *reminderSweeper) consume(events <-chan scheduler.FireEvent) {
	for ev := range events {
		s.deliver(ev)
	}
}

func (s *reminderSweeper) deliver(ev scheduler.FireEvent) {
	defer s.release(ev.ReminderID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stored, err := s.repo.GetReminder(ctx, ev.ReminderID)
	if err != nil {
		log.Error("load fired reminder failed", err, "id", ev.ReminderID)
		return
	}
	sent, err := reminder.MarkSent(reminder.Reminder{
		ID:            stored.ID,
		TaskID:        stored.TaskID,
		Type:          reminder.Type(stored.Type),
		FireAt:        stored.FireAt,
		OffsetMinutes: stored.OffsetMinutes,
		Status:        reminder.Status(stored.Status),
		SnoozedUntil:  stored.SnoozedUntil,
		CreatedAt:     stored.CreatedAt,
	})
	if err != nil {
		// Raced with a dismiss; nothing to deliver.
		log.Debug("skipping fired reminder", "id", ev.ReminderID, "status", stored.Status)
		return
	}

	stored.Status = string(sent.Status)
	stored.SnoozedUntil = nil
	if err := s.repo.UpdateReminder(ctx, stored); err != nil {
		log.Error("mark reminder sent failed", err, "id", ev.ReminderID)
		return
	}
	log.Info("reminder fired", "id", ev.ReminderID, "task", ev.TaskID, "type", ev.Type)
}

func (s *reminderSweeper) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[id]; ok {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *reminderSweeper) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}
