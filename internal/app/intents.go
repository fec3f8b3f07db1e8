package app

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
)

// Intent is a discrete user action forwarded by a presentation layer.
type Intent interface {
	intent()
}

type AddIntent struct {
	Text    string
	DueDate string
	DueTime string
}

type ToggleIntent struct{ ID int64 }

type DeleteIntent struct{ ID int64 }

// ClearCompletedIntent assumes the user already confirmed.
type ClearCompletedIntent struct{}

type SetFilterIntent struct{ Mode model.FilterMode }

type OpenSettingsIntent struct{}

type CloseSettingsIntent struct{}

type ToggleNotificationsIntent struct{}

func (AddIntent) intent()                 {}
func (ToggleIntent) intent()              {}
func (DeleteIntent) intent()              {}
func (ClearCompletedIntent) intent()      {}
func (SetFilterIntent) intent()           {}
func (OpenSettingsIntent) intent()        {}
func (CloseSettingsIntent) intent()       {}
func (ToggleNotificationsIntent) intent() {}

// Result describes what an intent did. Changed is false for no-ops such as
// toggling an id that does not exist.
type Result struct {
	Changed bool
	Message string
	Task    *model.Task
	Removed int
	Outcome notify.Outcome
}

// Dispatch applies an intent. Task mutations are persisted before Dispatch
// returns; a persist error is returned with the in-memory change kept.
func (a *App) Dispatch(ctx context.Context, in Intent) (Result, error) {
	switch in := in.(type) {
	case AddIntent:
		task, err := a.store.Add(ctx, in.Text, in.DueDate, in.DueTime)
		if task.ID == 0 {
			return Result{}, err
		}
		return Result{Changed: true, Task: &task, Message: fmt.Sprintf("added %q", task.Text)}, err

	case ToggleIntent:
		found, err := a.store.ToggleCompleted(ctx, in.ID)
		if !found {
			return Result{Message: fmt.Sprintf("task %d not found", in.ID)}, err
		}
		task, _ := a.store.Get(in.ID)
		msg := fmt.Sprintf("reopened %q", task.Text)
		if task.Completed {
			msg = fmt.Sprintf("completed %q", task.Text)
		}
		return Result{Changed: true, Task: &task, Message: msg}, err

	case DeleteIntent:
		task, _ := a.store.Get(in.ID)
		found, err := a.store.Delete(ctx, in.ID)
		if !found {
			return Result{Message: fmt.Sprintf("task %d not found", in.ID)}, err
		}
		return Result{Changed: true, Task: &task, Message: fmt.Sprintf("deleted %q", task.Text)}, err

	case ClearCompletedIntent:
		removed, err := a.store.ClearCompleted(ctx)
		return Result{
			Changed: removed > 0,
			Removed: removed,
			Message: fmt.Sprintf("cleared %d completed task%s", removed, plural(removed)),
		}, err

	case SetFilterIntent:
		if !in.Mode.IsValid() {
			return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidFilter, in.Mode)
		}
		a.mu.Lock()
		changed := a.filter != in.Mode
		a.filter = in.Mode
		a.mu.Unlock()
		return Result{Changed: changed, Message: "showing " + string(in.Mode)}, nil

	case OpenSettingsIntent, CloseSettingsIntent:
		_, open := in.(OpenSettingsIntent)
		a.mu.Lock()
		changed := a.settingsOpen != open
		a.settingsOpen = open
		a.mu.Unlock()
		return Result{Changed: changed}, nil

	case ToggleNotificationsIntent:
		outcome, err := a.gate.RequestEnable(ctx)
		res := Result{Changed: outcome == notify.OutcomeEnabled || outcome == notify.OutcomeDisabled, Outcome: outcome}
		switch outcome {
		case notify.OutcomeEnabled:
			res.Message = "Notifications enabled"
		case notify.OutcomeDisabled:
			res.Message = "Notifications disabled"
		case notify.OutcomeBlocked:
			res.Message = notify.BlockedInstructions
		case notify.OutcomeRefused:
			res.Message = "Notification permission was not granted"
		}
		if err != nil {
			res.Changed = false
			res.Message = "Error enabling notifications. Please try again."
		}
		return res, err

	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
