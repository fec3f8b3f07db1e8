package update

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/scheduler"
	"github.com/sandeepkv93/todod/internal/storage"
)

type stillTicker struct{ ch chan time.Time }

func (t stillTicker) C() <-chan time.Time { return t.ch }
func (t stillTicker) Stop()               {}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time                           { return c.now }
func (c fixedClock) NewTicker(time.Duration) scheduler.Ticker { return stillTicker{ch: make(chan time.Time)} }

type stubPlatform struct {
	perm   notify.Permission
	answer notify.Permission
}

func (p *stubPlatform) Permission() notify.Permission { return p.perm }

func (p *stubPlatform) RequestPermission(context.Context) (notify.Permission, error) {
	p.perm = p.answer
	return p.answer, nil
}

func (p *stubPlatform) Show(notify.Notification) error { return nil }

func newTestModel(t *testing.T, platform *stubPlatform) (Model, *app.App) {
	t.Helper()
	if platform == nil {
		platform = &stubPlatform{perm: notify.PermissionDefault, answer: notify.PermissionGranted}
	}
	a, err := app.New(testContext(t), app.Options{
		KV:       storage.NewMemoryKV(),
		Platform: platform,
		Clock:    fixedClock{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return NewModel(testContext(t), a, Options{Sound: true}), a
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func addTask(t *testing.T, a *app.App, text, date, clock string) model.Task {
	t.Helper()
	res, err := a.Dispatch(testContext(t), app.AddIntent{Text: text, DueDate: date, DueTime: clock})
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return *res.Task
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestNewModelDefaults(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if m.Mode != ModeList {
		t.Fatalf("expected list mode, got %q", m.Mode)
	}
	if m.Keys.Quit != "q" || m.Keys.Toggle != " " {
		t.Fatalf("unexpected key map: %+v", m.Keys)
	}
	if m.CheckInterval != scheduler.DefaultInterval {
		t.Fatalf("expected default interval, got %s", m.CheckInterval)
	}
}

func TestAddFormCreatesTask(t *testing.T) {
	m, a := newTestModel(t, nil)
	m = press(t, m, "a")
	if m.Mode != ModeAdd {
		t.Fatalf("expected add mode, got %q", m.Mode)
	}
	m = press(t, m, "buy milk", "tab", "2026-10-18", "tab", "09:30", "enter")
	if m.Mode != ModeList {
		t.Fatalf("expected list mode after add, got %q", m.Mode)
	}
	tasks := a.Store().Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Text != "buy milk" || deref(tasks[0].DueDate) != "2026-10-18" || deref(tasks[0].DueTime) != "09:30" {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}
	if m.Status.Text != `added "buy milk"` {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestAddFormRejectsEmptyText(t *testing.T) {
	m, a := newTestModel(t, nil)
	m = press(t, m, "a", "   ", "enter")
	if m.Mode != ModeAdd {
		t.Fatalf("expected form to stay open, got %q", m.Mode)
	}
	if !m.Status.IsError || m.Status.Text != "task text is required" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	if a.Store().Len() != 0 {
		t.Fatal("expected no task to be stored")
	}

	m = press(t, m, "esc")
	if m.Mode != ModeList {
		t.Fatalf("expected esc to cancel, got %q", m.Mode)
	}
}

func TestAddFormFocusesBadDate(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = press(t, m, "a", "pay rent", "tab", "tomorrow", "tab", "enter")
	if m.Mode != ModeAdd {
		t.Fatalf("expected form to stay open, got %q", m.Mode)
	}
	if m.addField != fieldDate {
		t.Fatalf("expected date field focus, got %d", m.addField)
	}
	if m.addInputs[fieldText].Value() != "pay rent" {
		t.Fatalf("expected typed text kept, got %q", m.addInputs[fieldText].Value())
	}
}

func TestToggleAndDeleteSelected(t *testing.T) {
	m, a := newTestModel(t, nil)
	first := addTask(t, a, "first", "", "")
	second := addTask(t, a, "second", "", "")

	// newest first, so the cursor starts on "second"
	m = press(t, m, " ")
	got, _ := a.Store().Get(second.ID)
	if !got.Completed {
		t.Fatal("expected selected task to be completed")
	}

	m = press(t, m, "j", "d")
	if _, ok := a.Store().Get(first.ID); ok {
		t.Fatal("expected first task to be deleted")
	}
	if m.Cursor != 0 {
		t.Fatalf("expected cursor clamped to 0, got %d", m.Cursor)
	}
}

func TestFilterKeys(t *testing.T) {
	m, a := newTestModel(t, nil)
	m = press(t, m, "2")
	if a.Filter() != model.FilterActive {
		t.Fatalf("expected active filter, got %q", a.Filter())
	}
	m = press(t, m, "f")
	if a.Filter() != model.FilterPastDue {
		t.Fatalf("expected past-due filter, got %q", a.Filter())
	}
	press(t, m, "1")
	if a.Filter() != model.FilterAll {
		t.Fatalf("expected all filter, got %q", a.Filter())
	}
}

func TestClearCompletedNeedsConfirmation(t *testing.T) {
	m, a := newTestModel(t, nil)
	addTask(t, a, "keep", "", "")
	done := addTask(t, a, "done", "", "")
	if _, err := a.Dispatch(testContext(t), app.ToggleIntent{ID: done.ID}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	m = press(t, m, "C")
	if m.Mode != ModeList || m.Status.Text != "switch to the completed filter (4) to clear" {
		t.Fatalf("expected hint outside completed filter, got mode %q status %+v", m.Mode, m.Status)
	}

	m = press(t, m, "4", "C")
	if m.Mode != ModeConfirm {
		t.Fatalf("expected confirm mode, got %q", m.Mode)
	}
	if m.confirmQuestion != "Delete 1 completed task?" {
		t.Fatalf("unexpected question: %q", m.confirmQuestion)
	}

	m = press(t, m, "n")
	if a.Store().Len() != 2 || m.Status.Text != "clear cancelled" {
		t.Fatalf("expected cancel, len=%d status=%+v", a.Store().Len(), m.Status)
	}

	m = press(t, m, "C", "y")
	if a.Store().Len() != 1 || m.Mode != ModeList {
		t.Fatalf("expected one task left in list mode, len=%d mode=%q", a.Store().Len(), m.Mode)
	}
}

func TestPaletteCommands(t *testing.T) {
	m, a := newTestModel(t, nil)
	m = press(t, m, "/")
	if m.Mode != ModePalette {
		t.Fatalf("expected palette mode, got %q", m.Mode)
	}
	m = press(t, m, "add call mom due:2026-10-18", "enter")
	if m.Mode != ModeList {
		t.Fatalf("expected palette closed, got %q", m.Mode)
	}
	tasks := a.Store().Tasks()
	if len(tasks) != 1 || tasks[0].Text != "call mom" || deref(tasks[0].DueDate) != "2026-10-18" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	m = press(t, m, "/", "done", "enter")
	if got, _ := a.Store().Get(tasks[0].ID); !got.Completed {
		t.Fatal("expected selected task completed via palette")
	}

	m = press(t, m, "/", "rm 42", "enter")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "task 42 not found") {
		t.Fatalf("expected not found error, got %+v", m.Status)
	}

	m = press(t, m, "/", "show completed", "enter")
	if a.Filter() != model.FilterCompleted {
		t.Fatalf("expected completed filter, got %q", a.Filter())
	}

	m = press(t, m, "/", "bogus", "enter")
	if !m.Status.IsError {
		t.Fatalf("expected error for unknown command, got %+v", m.Status)
	}
}

func TestSettingsToggleNotifications(t *testing.T) {
	m, a := newTestModel(t, nil)
	m = press(t, m, "s")
	if m.Mode != ModeSettings || !a.SettingsOpen() {
		t.Fatalf("expected settings open, mode %q", m.Mode)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	m = updated.(Model)
	if cmd == nil || !m.RequestingPermit {
		t.Fatal("expected a permission request in flight")
	}
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.RequestingPermit {
		t.Fatal("expected request to finish")
	}
	if !a.Gate().IsActive() || m.Status.Text != "Notifications enabled" {
		t.Fatalf("expected gate active, status %+v", m.Status)
	}

	m = press(t, m, "esc")
	if m.Mode != ModeList || a.SettingsOpen() {
		t.Fatalf("expected settings closed, mode %q", m.Mode)
	}
}

func TestSettingsBlockedShowsHelp(t *testing.T) {
	m, a := newTestModel(t, &stubPlatform{perm: notify.PermissionDenied, answer: notify.PermissionDenied})
	m = press(t, m, "s")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if !m.ShowBlockedHelp || !m.Status.IsError {
		t.Fatalf("expected blocked help, got %+v", m.Status)
	}
	if a.Gate().IsActive() {
		t.Fatal("gate must stay inactive when blocked")
	}
}

func TestReminderDueMsgShowsBanner(t *testing.T) {
	m, _ := newTestModel(t, nil)
	ev := scheduler.Event{TaskID: 1, Text: "standup", Kind: scheduler.KindUpcoming, Minutes: 5}
	updated, cmd := m.Update(ReminderDueMsg{Event: ev, Delivered: true})
	m = updated.(Model)
	if m.Reminder == nil || m.Reminder.Text != "standup" {
		t.Fatalf("expected reminder banner, got %+v", m.Reminder)
	}
	if cmd == nil {
		t.Fatal("expected the model to keep waiting for reminders")
	}
	if !strings.Contains(m.Status.Text, `"standup" is due in 5 minutes`) {
		t.Fatalf("unexpected status: %q", m.Status.Text)
	}

	m = press(t, m, "esc")
	if m.Reminder != nil {
		t.Fatal("expected esc to dismiss the banner")
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m, _ := newTestModel(t, nil)
	updated, _ := m.Update(SetStatusMsg{Text: "ready"})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m, _ := newTestModel(t, nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !updated.(Model).Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, a := newTestModel(t, nil)
	addTask(t, a, "water plants", "2026-10-17", "09:00")
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	for _, want := range []string{"water plants", "1 active task | 1 past due", "all good", "Oct 17, 2026", "9:00 AM"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view: %q", want, out)
		}
	}
}

func TestViewEmptyMessagePerFilter(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if out := m.View(); !strings.Contains(out, "No tasks yet") {
		t.Fatalf("expected empty message: %q", out)
	}
	m = press(t, m, "3")
	if out := m.View(); !strings.Contains(out, "No overdue tasks") {
		t.Fatalf("expected past-due empty message: %q", out)
	}
}

func TestClampCursor(t *testing.T) {
	cases := []struct{ cursor, n, want int }{
		{0, 0, 0},
		{5, 0, 0},
		{-1, 3, 0},
		{3, 3, 2},
		{1, 3, 1},
	}
	for _, tc := range cases {
		if got := clampCursor(tc.cursor, tc.n); got != tc.want {
			t.Fatalf("clampCursor(%d, %d) = %d, want %d", tc.cursor, tc.n, got, tc.want)
		}
	}
}
