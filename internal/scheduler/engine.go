// Package scheduler holds due reminders in a time-ordered queue and emits
// fire events on a channel when their moment arrives. Delivery stays with
// the consumer; the engine only decides when.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/reminder"
)

var (
	ErrInvalidFireTime = errors.New("scheduler: invalid fire time")
	ErrStopped         = errors.New("scheduler: engine stopped")
)

// FireEvent is one reminder that has reached its fire time.
type FireEvent struct {
	ReminderID string
	TaskID     string
	Type       string
	FireAt     time.Time
}

type fireQueue []FireEvent

func (q fireQueue) Len() int { return len(q) }

func (q fireQueue) Less(i, j int) bool {
	return q[i].FireAt.Before(q[j].FireAt)
}

func (q fireQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *fireQueue) Push(x any) {
	*q = append(*q, x.(FireEvent))
}

func (q *fireQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// Engine drains a min-heap of fire events into an output channel. Events
// that cannot be delivered because the consumer lags are dropped and
// counted rather than blocking the loop.
type Engine struct {
	mu      sync.Mutex
	queue   fireQueue
	out     chan FireEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(fireQueue, 0),
		out:    make(chan FireEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan FireEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ev FireEvent) error {
	if ev.FireAt.IsZero() {
		return ErrInvalidFireTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	heap.Push(&e.queue, ev)
	e.signalWakeup()
	return nil
}

// ScheduleReminder enqueues a reminder at its effective fire time, which
// honors an active snooze. Reminders with no resolvable fire time are
// rejected.
func (e *Engine) ScheduleReminder(r reminder.Reminder, now time.Time) error {
	at, ok := reminder.EffectiveFireAt(r, now)
	if !ok {
		return ErrInvalidFireTime
	}
	return e.Schedule(FireEvent{
		ReminderID: r.ID,
		TaskID:     r.TaskID,
		Type:       string(r.Type),
		FireAt:     at,
	})
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.FireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now().UTC())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (FireEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return FireEvent{}, false
	}
	return e.queue[0], true
}

func (e *Engine) popDue(now time.Time) []FireEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]FireEvent, 0)
	for len(e.queue) > 0 {
		if e.queue[0].FireAt.After(now) {
			break
		}
		out = append(out, heap.Pop(&e.queue).(FireEvent))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
