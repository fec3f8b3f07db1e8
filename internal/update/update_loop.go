package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/tasks"
	"github.com/sandeepkv93/todod/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.startReminders {
		m.app.StartReminders()
	}
	return tea.Batch(waitForReminderCmd(m.app), refreshCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.Mode {
		case ModeAdd:
			return m.handleAddKey(typed)
		case ModePalette:
			return m.handlePaletteKey(typed)
		case ModeConfirm:
			return m.handleConfirmKey(typed), nil
		case ModeSettings:
			return m.handleSettingsKey(typed)
		}
		return m.handleListKey(typed)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case ReminderDueMsg:
		ev := typed.Event
		m.Reminder = &ev
		n := ev.Notification()
		m.Status = StatusBar{Text: fmt.Sprintf("%s %s", n.Title, n.Body)}
		return m, waitForReminderCmd(m.app)
	case NotificationsToggledMsg:
		m.RequestingPermit = false
		m.ShowBlockedHelp = typed.Result.Outcome == notify.OutcomeBlocked
		switch {
		case typed.Err != nil:
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Result.Message, IsError: true}
		case typed.Result.Outcome == notify.OutcomeBlocked:
			m.Status = StatusBar{Text: "Notifications are blocked", IsError: true}
		default:
			m.Status = StatusBar{Text: typed.Result.Message, IsError: typed.Result.Outcome == notify.OutcomeRefused}
		}
		return m, nil
	case RefreshMsg:
		m.clampCursor()
		return m, refreshCmd()
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "j", "down":
		m.Cursor++
		m.clampCursor()
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "1", "2", "3", "4":
		m.setFilter(model.FilterModes[int(key[0]-'1')])
	case "f", "tab":
		m.setFilter(nextFilter(m.app.Filter()))
	case m.Keys.Add, "n":
		m.Mode = ModeAdd
		m.resetAddForm()
		m.focusAddField(fieldText)
		return m, textinput.Blink
	case m.Keys.Toggle, "space", "x", "enter":
		if id, ok := m.selectedID(); ok {
			m.dispatch(app.ToggleIntent{ID: id})
			m.clampCursor()
		}
	case m.Keys.Delete, "delete":
		if id, ok := m.selectedID(); ok {
			m.dispatch(app.DeleteIntent{ID: id})
			m.clampCursor()
		}
	case m.Keys.Clear:
		m.askClearCompleted()
	case m.Keys.Settings:
		m.dispatch(app.OpenSettingsIntent{})
		m.Mode = ModeSettings
	case "/":
		m.Mode = ModePalette
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, textinput.Blink
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case "esc":
		m.Reminder = nil
		m.Status = StatusBar{}
	}
	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.resetAddForm()
		m.Mode = ModeList
		return m, nil
	case "tab", "down":
		m.focusAddField((m.addField + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusAddField((m.addField + fieldCount - 1) % fieldCount)
		return m, nil
	case "enter":
		res, err := m.dispatch(app.AddIntent{
			Text:    m.addInputs[fieldText].Value(),
			DueDate: m.addInputs[fieldDate].Value(),
			DueTime: m.addInputs[fieldTime].Value(),
		})
		if !res.Changed {
			// validation failure: keep the form open with what was typed
			if errors.Is(err, model.ErrInvalidDueDate) {
				m.focusAddField(fieldDate)
			} else if errors.Is(err, model.ErrInvalidDueTime) {
				m.focusAddField(fieldTime)
			}
			return m, nil
		}
		m.resetAddForm()
		m.Mode = ModeList
		m.Cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.addInputs[m.addField], cmd = m.addInputs[m.addField].Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "y", "Y":
		m.dispatch(app.ClearCompletedIntent{})
		m.clampCursor()
	default:
		m.Status = StatusBar{Text: "clear cancelled"}
	}
	m.confirmQuestion = ""
	m.Mode = ModeList
	return m
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e", "enter":
		if m.RequestingPermit {
			return m, nil
		}
		m.RequestingPermit = true
		m.Status = StatusBar{Text: "updating notifications..."}
		return m, toggleNotificationsCmd(m.ctx, m.app)
	case "esc", m.Keys.Settings, m.Keys.Quit:
		m.dispatch(app.CloseSettingsIntent{})
		m.ShowBlockedHelp = false
		m.Mode = ModeList
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	}
	return m, nil
}

func (m *Model) setFilter(mode model.FilterMode) {
	m.dispatch(app.SetFilterIntent{Mode: mode})
	m.Cursor = 0
}

func (m *Model) askClearCompleted() {
	snap := m.app.Snapshot(m.app.Now())
	if !snap.ShowClearCompleted {
		if snap.Stats.Completed == 0 {
			m.Status = StatusBar{Text: "no completed tasks"}
		} else {
			m.Status = StatusBar{Text: "switch to the completed filter (4) to clear"}
		}
		return
	}
	n := snap.Stats.Completed
	m.confirmQuestion = fmt.Sprintf("Delete %d completed task%s?", n, plural(n))
	m.Mode = ModeConfirm
}

// dispatch forwards an intent and reflects the result in the status bar.
func (m *Model) dispatch(in app.Intent) (app.Result, error) {
	res, err := m.app.Dispatch(m.ctx, in)
	switch {
	case err != nil:
		m.LastError = err
		m.Status = StatusBar{Text: errorText(err), IsError: true}
	case res.Message != "":
		m.Status = StatusBar{Text: res.Message}
	}
	return res, err
}

func errorText(err error) string {
	switch {
	case errors.Is(err, tasks.ErrEmptyText):
		return "task text is required"
	case errors.Is(err, model.ErrInvalidDueDate):
		return "due date must look like 2026-10-18"
	case errors.Is(err, model.ErrInvalidDueTime):
		return "due time must look like 14:30"
	default:
		return err.Error()
	}
}

func nextFilter(current model.FilterMode) model.FilterMode {
	for i, f := range model.FilterModes {
		if f == current {
			return model.FilterModes[(i+1)%len(model.FilterModes)]
		}
	}
	return model.FilterAll
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	snap := m.app.Snapshot(m.app.Now())

	filters := make([]string, 0, len(model.FilterModes))
	for _, f := range model.FilterModes {
		filters = append(filters, string(f))
	}

	main := m.renderTaskList(snap)
	if m.Mode == ModeAdd {
		main = m.renderAddForm() + "\n\n" + main
	}
	if m.Mode == ModeConfirm {
		main += "\n\n" + views.RenderConfirm(m.confirmQuestion)
	}

	side := ""
	if m.Mode == ModeSettings {
		side = m.renderSettingsPanel(snap)
	}
	if m.HelpVisible {
		side = strings.TrimSpace(side + "\n\n" + m.renderHelpView())
	}

	status := m.Status.Text
	if m.Mode == ModePalette {
		status = views.RenderCommandPalette(true, m.commandInput.View())
	}

	banner := ""
	if m.Reminder != nil {
		n := m.Reminder.Notification()
		banner = views.RenderReminder(n.Title, n.Body)
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("todod | %s | notifications: %s", snap.StatsLine, snap.Notifications.Text),
		FilterBar:    views.RenderFilterBar(filters, string(snap.Filter)),
		MainPane:     main,
		SidePane:     side,
		StatusLine:   status,
		StatusError:  m.Status.IsError && m.Mode != ModePalette,
		Notification: banner,
		Footer:       m.footer(),
	})
}

func (m Model) footer() string {
	switch m.Mode {
	case ModeSettings:
		return "keys: e enable/disable | esc close | ? help"
	case ModeAdd, ModeConfirm, ModePalette:
		return ""
	}
	return fmt.Sprintf("keys: %s add | space toggle | %s delete | 1-4 filter | %s clear | %s settings | / cmd | %s help | %s quit",
		m.Keys.Add, m.Keys.Delete, m.Keys.Clear, m.Keys.Settings, m.Keys.Help, m.Keys.Quit)
}

// waitForReminderCmd delivers the next scheduler event through the gate off
// the UI goroutine, since a desktop notification can take a moment.
func waitForReminderCmd(a *app.App) tea.Cmd {
	if a == nil {
		return nil
	}
	ch := a.Reminders()
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev, Delivered: a.Deliver(ev)}
	}
}

func toggleNotificationsCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		res, err := a.Dispatch(reqCtx, app.ToggleNotificationsIntent{})
		return NotificationsToggledMsg{Result: res, Err: err}
	}
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return RefreshMsg{At: t} })
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
