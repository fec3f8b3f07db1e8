package app

import (
	"time"

	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
)

type TaskView struct {
	model.Task
	Status    model.DueStatus
	DateLabel string
	TimeLabel string
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Filter             model.FilterMode
	Tasks              []TaskView
	Stats              model.Stats
	StatsLine          string
	EmptyMessage       string
	ShowClearCompleted bool
	Notifications      notify.StatusView
	SettingsOpen       bool
}

// Snapshot evaluates filter, stats and due status against now. Stats cover
// the whole collection, not just the filtered view.
func (a *App) Snapshot(now time.Time) Snapshot {
	all := a.store.Tasks()
	filter := a.Filter()

	visible := model.Filter(all, filter, now)
	views := make([]TaskView, 0, len(visible))
	for _, t := range visible {
		date, clock := t.DueLabels()
		views = append(views, TaskView{Task: t, Status: t.Status(now), DateLabel: date, TimeLabel: clock})
	}

	stats := model.Summarize(all, now)
	return Snapshot{
		Filter:             filter,
		Tasks:              views,
		Stats:              stats,
		StatsLine:          stats.Line(),
		EmptyMessage:       model.EmptyMessage(filter),
		ShowClearCompleted: stats.Completed > 0 && filter == model.FilterCompleted,
		Notifications:      a.gate.Status(),
		SettingsOpen:       a.SettingsOpen(),
	}
}
