package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/commands"
	"github.com/sandeepkv93/todod/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		return m.executePaletteCommand(m.commandInput.Value())
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m *Model) closePalette() {
	m.Mode = ModeList
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand(input string) (tea.Model, tea.Cmd) {
	m.closePalette()
	cmd, err := commands.Parse(strings.TrimSpace(input))
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			r, err := m.app.Dispatch(m.ctx, app.AddIntent{Text: a.Text, DueDate: a.DueDate, DueTime: a.DueTime})
			if err != nil {
				return commands.Result{}, err
			}
			m.Cursor = 0
			return commands.Result{Message: r.Message}, nil
		},
		Toggle: func(t commands.TargetArgs) (commands.Result, error) {
			return m.dispatchTarget(t, func(id int64) app.Intent { return app.ToggleIntent{ID: id} })
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			return m.dispatchTarget(t, func(id int64) app.Intent { return app.DeleteIntent{ID: id} })
		},
		Clear: func() (commands.Result, error) {
			if m.app.Store().CompletedCount() == 0 {
				return commands.Result{Message: "no completed tasks"}, nil
			}
			m.setFilter(model.FilterCompleted)
			m.askClearCompleted()
			return commands.Result{}, nil
		},
		Filter: func(f commands.FilterArgs) (commands.Result, error) {
			m.setFilter(f.Mode)
			return commands.Result{Message: "showing " + string(f.Mode)}, nil
		},
		Notify: func() (commands.Result, error) {
			m.RequestingPermit = true
			follow = toggleNotificationsCmd(m.ctx, m.app)
			return commands.Result{Message: "updating notifications..."}, nil
		},
		Settings: func() (commands.Result, error) {
			m.dispatch(app.OpenSettingsIntent{})
			m.Mode = ModeSettings
			return commands.Result{}, nil
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: errorText(err), IsError: true}
		return m, nil
	}
	m.clampCursor()
	if res.Message != "" {
		m.Status = StatusBar{Text: res.Message}
	}
	return m, follow
}

func (m *Model) dispatchTarget(t commands.TargetArgs, build func(int64) app.Intent) (commands.Result, error) {
	id := t.ID
	if t.Selected() {
		selected, ok := m.selectedID()
		if !ok {
			return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}
		}
		id = selected
	}
	res, err := m.app.Dispatch(m.ctx, build(id))
	if err != nil {
		return commands.Result{}, err
	}
	if !res.Changed {
		return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: res.Message}
	}
	return commands.Result{Message: res.Message}, nil
}
