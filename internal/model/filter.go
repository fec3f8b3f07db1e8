package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFilter = errors.New("model: invalid filter")

type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterPastDue   FilterMode = "past-due"
	FilterCompleted FilterMode = "completed"
)

var FilterModes = []FilterMode{FilterAll, FilterActive, FilterPastDue, FilterCompleted}

func (f FilterMode) IsValid() bool {
	switch f {
	case FilterAll, FilterActive, FilterPastDue, FilterCompleted:
		return true
	default:
		return false
	}
}

func ParseFilterMode(raw string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "past-due", "pastdue", "past_due", "overdue":
		return FilterPastDue, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
}

// Filter keeps the input order. Incomplete tasks land in exactly one of
// active or past-due; completed tasks only in completed.
func Filter(tasks []Task, mode FilterMode, now time.Time) []Task {
	if mode == FilterAll || !mode.IsValid() {
		out := make([]Task, len(tasks))
		copy(out, tasks)
		return out
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, mode, now) {
			out = append(out, t)
		}
	}
	return out
}

func Matches(t Task, mode FilterMode, now time.Time) bool {
	switch mode {
	case FilterActive:
		return !t.Completed && !t.IsOverdue(now)
	case FilterPastDue:
		return !t.Completed && t.IsOverdue(now)
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

type Stats struct {
	Total     int
	Active    int
	PastDue   int
	Completed int
}

func Summarize(tasks []Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch {
		case t.Completed:
			s.Completed++
		case t.IsOverdue(now):
			s.PastDue++
		default:
			s.Active++
		}
	}
	return s
}

func (s Stats) Line() string {
	line := fmt.Sprintf("%d active task%s", s.Active, plural(s.Active))
	if s.PastDue > 0 {
		line += fmt.Sprintf(" | %d past due", s.PastDue)
	}
	return line
}

func EmptyMessage(mode FilterMode) string {
	switch mode {
	case FilterActive:
		return "No active tasks. Great job!"
	case FilterPastDue:
		return "No overdue tasks. You're on top of things!"
	case FilterCompleted:
		return "No completed tasks yet."
	default:
		return "No tasks yet. Add one above to get started!"
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
