// Package scheduler periodically evaluates the task list and emits reminder
// events for tasks whose due time is approaching or has arrived.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/todod/internal/logging"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
)

const DefaultInterval = 30 * time.Second

type Kind string

const (
	KindDueNow   Kind = "due-now"
	KindUpcoming Kind = "upcoming"
)

type Event struct {
	TaskID  int64
	Text    string
	Kind    Kind
	Minutes int
	DueAt   time.Time
	At      time.Time
}

func (e Event) Tag() string {
	if e.Kind == KindDueNow {
		return fmt.Sprintf("todo-due-%d", e.TaskID)
	}
	return fmt.Sprintf("todo-upcoming-%d-%d", e.TaskID, e.Minutes)
}

func (e Event) Notification() notify.Notification {
	if e.Kind == KindDueNow {
		return notify.Notification{
			Title:              "Task Due Now!",
			Body:               fmt.Sprintf("\"%s\" is due now!", e.Text),
			Tag:                e.Tag(),
			RequireInteraction: true,
		}
	}
	return notify.Notification{
		Title: "Upcoming Task",
		Body:  fmt.Sprintf("\"%s\" is due in %d minutes", e.Text, e.Minutes),
		Tag:   e.Tag(),
	}
}

// TaskSource is read on every check, so edits made between ticks are seen.
type TaskSource interface {
	Tasks() []model.Task
}

type Gate interface {
	IsActive() bool
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type Options struct {
	Interval   time.Duration
	BufferSize int
	Clock      Clock
	Logger     *log.Logger
	// BeforeCheck runs on the loop goroutine ahead of every check. Its
	// context is cancelled by Stop.
	BeforeCheck func(ctx context.Context)
}

type Scheduler struct {
	source   TaskSource
	gate     Gate
	clock    Clock
	interval time.Duration
	logger   *log.Logger
	before   func(ctx context.Context)

	mu      sync.Mutex
	fired   map[int64]struct{}
	out     chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	cancel  context.CancelFunc
	started bool
	stopped bool
	dropped uint64
}

func New(source TaskSource, gate Gate, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 16
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Scheduler{
		source:   source,
		gate:     gate,
		clock:    opts.Clock,
		interval: opts.Interval,
		logger:   logging.OrDiscard(opts.Logger),
		before:   opts.BeforeCheck,
		fired:    make(map[int64]struct{}),
		out:      make(chan Event, opts.BufferSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *Scheduler) C() <-chan Event {
	return s.out
}

// Start runs one check immediately and then one per tick.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ticker := s.clock.NewTicker(s.interval)
	go s.loop(ctx, ticker)
}

// Stop releases the ticker and waits for the loop to exit. C is closed
// afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	if started {
		<-s.doneCh
	} else {
		close(s.out)
	}
}

func (s *Scheduler) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Fired reports whether the due-now reminder for id was already emitted.
func (s *Scheduler) Fired(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fired[id]
	return ok
}

// Check evaluates every incomplete task against now. Nothing is evaluated
// or marked while the gate is inactive. A due-now reminder fires once per
// task for the life of the scheduler unless the event is dropped; the 5 and 30 minute warnings are
// emitted on whichever tick lands in their one-minute window.
func (s *Scheduler) Check(now time.Time) []Event {
	if s.gate != nil && !s.gate.IsActive() {
		return nil
	}
	tasks := s.source.Tasks()

	s.mu.Lock()
	defer s.mu.Unlock()
	var events []Event
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		if _, done := s.fired[task.ID]; done {
			continue
		}
		due, ok := task.DueInstant(now.Location())
		if !ok {
			continue
		}
		minutes := float64(due.Sub(now)) / float64(time.Minute)
		ev := Event{TaskID: task.ID, Text: task.Text, DueAt: due, At: now}
		switch {
		case minutes >= -1 && minutes <= 1:
			ev.Kind = KindDueNow
			s.fired[task.ID] = struct{}{}
		case minutes > 4 && minutes <= 5:
			ev.Kind, ev.Minutes = KindUpcoming, 5
		case minutes > 29 && minutes <= 30:
			ev.Kind, ev.Minutes = KindUpcoming, 30
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker) {
	defer close(s.doneCh)
	defer close(s.out)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C():
			s.tick(ctx)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.before != nil {
		s.before(ctx)
	}
	s.emit(s.Check(s.clock.Now()))
}

// emit never blocks. A dropped due-now event is unmarked so the next check
// can fire it again.
func (s *Scheduler) emit(events []Event) {
	for _, ev := range events {
		select {
		case s.out <- ev:
			s.logger.Debug("reminder emitted", "task_id", ev.TaskID, "kind", ev.Kind, "minutes", ev.Minutes)
		default:
			atomic.AddUint64(&s.dropped, 1)
			if ev.Kind == KindDueNow {
				s.mu.Lock()
				delete(s.fired, ev.TaskID)
				s.mu.Unlock()
			}
			s.logger.Warn("reminder dropped", "task_id", ev.TaskID, "kind", ev.Kind)
		}
	}
}
