// Package tasks owns the ordered task collection and its persistence.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/todod/internal/logging"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/storage"
)

var ErrEmptyText = errors.New("tasks: task text is required")

// Store keeps tasks newest first. It is the only writer of the collection;
// readers get copies.
type Store struct {
	mu     sync.RWMutex
	kv     storage.KV
	tasks  []model.Task
	ids    model.IDGenerator
	now    func() time.Time
	logger *log.Logger
	// seen is the todos key's stamp as of the last load or persist.
	seen time.Time
}

func New(kv storage.KV, logger *log.Logger) *Store {
	return NewWithClock(kv, logger, time.Now)
}

func NewWithClock(kv storage.KV, logger *log.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		kv:     kv,
		tasks:  []model.Task{},
		now:    now,
		logger: logging.OrDiscard(logger),
	}
}

// Load replaces the collection with what is stored under the todos key. It
// never fails: unreadable or malformed data yields an empty collection.
func (s *Store) Load(ctx context.Context) []model.Task {
	stamp := s.stamp(ctx)
	loaded := s.readStored(ctx)

	s.mu.Lock()
	s.tasks = loaded
	for _, t := range loaded {
		s.ids.Observe(t.ID)
	}
	s.seen = stamp
	s.mu.Unlock()
	return s.Tasks()
}

// Reload loads again if the todos key was written since this store last
// loaded or persisted it, and reports whether it did.
func (s *Store) Reload(ctx context.Context) bool {
	stamp := s.stamp(ctx)
	s.mu.RLock()
	unchanged := stamp.Equal(s.seen)
	s.mu.RUnlock()
	if unchanged {
		return false
	}
	s.Load(ctx)
	return true
}

// stamp is the zero time when the key is absent or unreadable.
func (s *Store) stamp(ctx context.Context) time.Time {
	at, err := s.kv.UpdatedAt(ctx, storage.KeyTodos)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("could not read todos stamp", "err", err)
		}
		return time.Time{}
	}
	return at
}

func (s *Store) readStored(ctx context.Context) []model.Task {
	raw, ok, err := s.kv.Get(ctx, storage.KeyTodos)
	if err != nil {
		s.logger.Error("error loading todos", "err", err)
		return []model.Task{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Task{}
	}
	var out []model.Task
	err = validatePayload([]byte(raw))
	if err == nil {
		err = json.Unmarshal([]byte(raw), &out)
	}
	if err != nil {
		s.quarantine(ctx, raw, err)
		return []model.Task{}
	}
	if out == nil {
		out = []model.Task{}
	}
	return out
}

// quarantine copies a malformed payload aside before the next persist
// overwrites it.
func (s *Store) quarantine(ctx context.Context, raw string, cause error) {
	if err := s.kv.Set(ctx, storage.KeyTodosCorrupt, raw); err != nil {
		s.logger.Error("could not back up malformed todos", "err", err)
	}
	s.logger.Warn("stored todos are malformed, starting empty", "err", cause, "backup", storage.KeyTodosCorrupt)
}

func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	payload, err := json.Marshal(s.tasks)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode todos: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyTodos, string(payload)); err != nil {
		s.logger.Error("error saving todos", "err", err)
		return fmt.Errorf("save todos: %w", err)
	}
	stamp := s.stamp(ctx)
	s.mu.Lock()
	s.seen = stamp
	s.mu.Unlock()
	return nil
}

// Add inserts a new task at the front. Blank text returns ErrEmptyText and
// leaves the collection untouched.
func (s *Store) Add(ctx context.Context, text, dueDate, dueTime string) (model.Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Task{}, ErrEmptyText
	}
	date, clock, err := model.NormalizeDue(dueDate, dueTime)
	if err != nil {
		return model.Task{}, err
	}

	now := s.now()
	task := model.Task{
		ID:        s.ids.Next(now),
		Text:      trimmed,
		CreatedAt: now.UTC().Truncate(time.Millisecond),
		DueDate:   date,
		DueTime:   clock,
	}

	s.mu.Lock()
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.mu.Unlock()

	s.logger.Debug("task added", "task_id", task.ID)
	return task, s.Persist(ctx)
}

// ToggleCompleted reports whether a task with id existed.
func (s *Store) ToggleCompleted(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks[idx].Completed = !s.tasks[idx].Completed
	done := s.tasks[idx].Completed
	s.mu.Unlock()

	s.logger.Debug("task toggled", "task_id", id, "completed", done)
	return true, s.Persist(ctx)
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	s.mu.Unlock()

	s.logger.Debug("task deleted", "task_id", id)
	return true, s.Persist(ctx)
}

// ClearCompleted drops every completed task and returns how many went.
// Asking the user first is the caller's job.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	s.mu.Unlock()

	if removed == 0 {
		return 0, nil
	}
	s.logger.Debug("completed tasks cleared", "count", removed)
	return removed, s.Persist(ctx)
}

func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Get(id int64) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx], true
}

func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
