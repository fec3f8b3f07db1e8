package update

import (
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/views"
)

func (m Model) renderTaskList(snap app.Snapshot) string {
	rows := make([]views.TaskRowData, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		rows = append(rows, views.TaskRowData{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			Status:    string(t.Status),
			DateLabel: t.DateLabel,
			TimeLabel: t.TimeLabel,
		})
	}
	return views.RenderTaskList(views.TaskListData{
		Rows:         rows,
		Cursor:       clampCursor(m.Cursor, len(rows)),
		EmptyMessage: snap.EmptyMessage,
		StatsLine:    snap.StatsLine,
		ShowClear:    snap.ShowClearCompleted,
	})
}

func (m Model) renderAddForm() string {
	errText := ""
	if m.Status.IsError {
		errText = m.Status.Text
	}
	return views.RenderAddForm(views.AddFormData{
		Active:    m.Mode == ModeAdd,
		Field:     m.addField,
		TextView:  m.addInputs[fieldText].View(),
		DateView:  m.addInputs[fieldDate].View(),
		TimeView:  m.addInputs[fieldTime].View(),
		ErrorText: errText,
	})
}

func (m Model) renderSettingsPanel(snap app.Snapshot) string {
	panel := views.RenderSettingsPanel(views.SettingsPanelData{
		StatusKind: string(snap.Notifications.Kind),
		StatusText: snap.Notifications.Text,
		Action:     snap.Notifications.Action,
		Sound:      m.Sound,
		Interval:   m.CheckInterval.String(),
		Pending:    m.RequestingPermit,
	})
	if m.ShowBlockedHelp || snap.Notifications.Kind == notify.StatusBlocked {
		panel += "\n\n" + views.RenderMarkdown(notify.BlockedInstructions)
	}
	return panel
}
