// Package app ties the task store, the notification gate and the reminder
// scheduler together behind a small intent API used by the TUI and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/todod/internal/logging"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/scheduler"
	"github.com/sandeepkv93/todod/internal/storage"
	"github.com/sandeepkv93/todod/internal/tasks"
)

var ErrUnknownIntent = errors.New("app: unknown intent")

type Options struct {
	KV       storage.KV
	Platform notify.Platform
	Audio    notify.AudioCue
	Logger   *log.Logger
	// Clock drives both the scheduler and task timestamps.
	Clock           scheduler.Clock
	CheckInterval   time.Duration
	SchedulerBuffer int
	// Closer is released by Close, typically the database.
	Closer io.Closer
}

type App struct {
	store     *tasks.Store
	gate      *notify.Gate
	scheduler *scheduler.Scheduler
	clock     scheduler.Clock
	logger    *log.Logger
	closer    io.Closer

	mu           sync.Mutex
	filter       model.FilterMode
	settingsOpen bool
	closed       bool
}

// New loads the stored tasks and syncs the notification gate. The scheduler
// is created but not started.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.KV == nil {
		return nil, errors.New("app: nil kv store")
	}
	if opts.Platform == nil {
		return nil, errors.New("app: nil notification platform")
	}
	if opts.Clock == nil {
		opts.Clock = scheduler.SystemClock{}
	}
	logger := logging.OrDiscard(opts.Logger)

	store := tasks.NewWithClock(opts.KV, logger.WithPrefix("tasks"), opts.Clock.Now)
	loaded := store.Load(ctx)

	gate, err := notify.NewGate(ctx, opts.Platform, opts.KV, opts.Audio, logger.WithPrefix("notify"))
	if err != nil {
		return nil, fmt.Errorf("init notifications: %w", err)
	}

	a := &App{
		store:  store,
		gate:   gate,
		clock:  opts.Clock,
		logger: logger,
		closer: opts.Closer,
		filter: model.FilterAll,
	}
	a.scheduler = scheduler.New(store, gate, scheduler.Options{
		Interval:    opts.CheckInterval,
		BufferSize:  opts.SchedulerBuffer,
		Clock:       opts.Clock,
		Logger:      logger.WithPrefix("scheduler"),
		BeforeCheck: a.Sync,
	})

	logger.Info("todod ready", "tasks", len(loaded), "notifications", gate.IsActive())
	return a, nil
}

func (a *App) Store() *tasks.Store               { return a.store }
func (a *App) Gate() *notify.Gate                { return a.gate }
func (a *App) Scheduler() *scheduler.Scheduler   { return a.scheduler }
func (a *App) Now() time.Time                    { return a.clock.Now() }
func (a *App) Reminders() <-chan scheduler.Event { return a.scheduler.C() }

func (a *App) Filter() model.FilterMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

func (a *App) SettingsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settingsOpen
}

// Sync picks up tasks and notification settings that another process wrote
// to the shared store. The scheduler calls it before every check.
func (a *App) Sync(ctx context.Context) {
	if a.store.Reload(ctx) {
		a.logger.Debug("task list reloaded", "tasks", a.store.Len())
	}
	a.gate.Refresh(ctx)
}

// StartReminders begins periodic due checks.
func (a *App) StartReminders() {
	a.scheduler.Start()
}

// Deliver shows a scheduler event through the gate.
func (a *App) Deliver(ev scheduler.Event) bool {
	delivered := a.gate.Show(ev.Notification())
	if delivered {
		a.logger.Info("reminder delivered", "task_id", ev.TaskID, "kind", ev.Kind, "minutes", ev.Minutes)
	}
	return delivered
}

// Watch starts the scheduler and delivers reminders until ctx is done or
// the scheduler stops. onEvent, if set, sees every event.
func (a *App) Watch(ctx context.Context, onEvent func(scheduler.Event, bool)) error {
	a.StartReminders()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-a.Reminders():
			if !ok {
				return nil
			}
			delivered := a.Deliver(ev)
			if onEvent != nil {
				onEvent(ev, delivered)
			}
		}
	}
}

// Close stops the scheduler and releases the store. It is safe to call more
// than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.scheduler.Stop()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
