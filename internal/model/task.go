package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidDueDate = errors.New("model: invalid due date")
	ErrInvalidDueTime = errors.New("model: invalid due time")
)

type DueStatus string

const (
	StatusNone    DueStatus = "none"
	StatusDueSoon DueStatus = "due-soon"
	StatusOverdue DueStatus = "overdue"
)

const DueSoonWindow = time.Hour

type Task struct {
	ID        int64     `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	DueDate   *string   `json:"dueDate" yaml:"dueDate"`
	DueTime   *string   `json:"dueTime" yaml:"dueTime"`
}

func (t Task) Validate() error {
	if t.ID <= 0 {
		return errors.New("model: task id must be positive")
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("model: task text is required")
	}
	if t.DueDate != nil {
		if _, err := ParseDueDate(*t.DueDate, time.UTC); err != nil {
			return err
		}
	}
	if t.DueTime != nil {
		if _, _, err := ParseDueTime(*t.DueTime); err != nil {
			return err
		}
	}
	return nil
}

func (t Task) HasDueDate() bool {
	return t.DueDate != nil && strings.TrimSpace(*t.DueDate) != ""
}

// DueInstant resolves the moment the task is due in loc. A task without a due
// date has no due instant, whatever its due time says. Without a due time the
// task is due at the last millisecond of its due date.
func (t Task) DueInstant(loc *time.Location) (time.Time, bool) {
	if !t.HasDueDate() {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := ParseDueDate(*t.DueDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := day.Date()
	if t.DueTime != nil && strings.TrimSpace(*t.DueTime) != "" {
		hour, minute, err := ParseDueTime(*t.DueTime)
		if err == nil {
			return time.Date(y, m, d, hour, minute, 0, 0, loc), true
		}
	}
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc), true
}

func (t Task) IsOverdue(now time.Time) bool {
	due, ok := t.DueInstant(now.Location())
	if !ok {
		return false
	}
	return due.Before(now)
}

// Status is a presentation hint. Unlike IsOverdue it counts the due instant
// itself as due-soon.
func (t Task) Status(now time.Time) DueStatus {
	if t.Completed {
		return StatusNone
	}
	due, ok := t.DueInstant(now.Location())
	if !ok {
		return StatusNone
	}
	diff := due.Sub(now)
	switch {
	case diff < 0:
		return StatusOverdue
	case diff <= DueSoonWindow:
		return StatusDueSoon
	default:
		return StatusNone
	}
}

// DueLabels formats the due fields for display, "Oct 18, 2026" and
// "9:30 AM". Fields that are absent or unparseable come back empty.
func (t Task) DueLabels() (date, clock string) {
	if t.HasDueDate() {
		if day, err := ParseDueDate(*t.DueDate, time.UTC); err == nil {
			date = day.Format("Jan 2, 2006")
		}
	}
	if t.DueTime != nil && strings.TrimSpace(*t.DueTime) != "" {
		if hour, minute, err := ParseDueTime(*t.DueTime); err == nil {
			clock = time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format("3:04 PM")
		}
	}
	return date, clock
}

func ParseDueDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
	}
	return day, nil
}

// ParseDueTime accepts "HH:MM" and "HH:MM:SS"; seconds are dropped.
func ParseDueTime(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		tm, parseErr := time.Parse(layout, s)
		if parseErr == nil {
			return tm.Hour(), tm.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDueTime, raw)
}

// NormalizeDue turns blank due fields into nil and validates the rest.
func NormalizeDue(dueDate, dueTime string) (*string, *string, error) {
	var date, clock *string
	if d := strings.TrimSpace(dueDate); d != "" {
		if _, err := ParseDueDate(d, time.UTC); err != nil {
			return nil, nil, err
		}
		date = &d
	}
	if c := strings.TrimSpace(dueTime); c != "" {
		if _, _, err := ParseDueTime(c); err != nil {
			return nil, nil, err
		}
		clock = &c
	}
	return date, clock, nil
}

// IDGenerator hands out creation-time ids in Unix milliseconds, bumping past
// the last id so that two tasks created in the same millisecond stay unique.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
