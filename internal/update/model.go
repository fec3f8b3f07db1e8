package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/scheduler"
)

type Mode string

const (
	ModeList     Mode = "list"
	ModeAdd      Mode = "add"
	ModePalette  Mode = "palette"
	ModeConfirm  Mode = "confirm"
	ModeSettings Mode = "settings"
)

const (
	fieldText = iota
	fieldDate
	fieldTime
	fieldCount
)

// refreshInterval re-renders so due-soon and overdue markers follow the
// clock even when nothing else happens.
const refreshInterval = 30 * time.Second

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Add      string
	Toggle   string
	Delete   string
	Clear    string
	Settings string
	Help     string
	Quit     string
}

type Model struct {
	app         *app.App
	ctx         context.Context
	Mode        Mode
	Cursor      int
	Status      StatusBar
	Keys        GlobalKeyMap
	HelpVisible bool
	Quitting    bool
	LastError   error

	// Reminder is the latest reminder, shown as a banner until dismissed.
	Reminder         *scheduler.Event
	RequestingPermit bool
	ShowBlockedHelp  bool
	Sound            bool
	CheckInterval    time.Duration
	startReminders   bool

	addField        int
	addInputs       [fieldCount]textinput.Model
	commandInput    textinput.Model
	helpModel       help.Model
	confirmQuestion string
}

type Options struct {
	Sound          bool
	CheckInterval  time.Duration
	StartReminders bool // start the scheduler from Init
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event     scheduler.Event
	Delivered bool
}

type NotificationsToggledMsg struct {
	Result app.Result
	Err    error
}

type RefreshMsg struct {
	At time.Time
}

func NewModel(ctx context.Context, a *app.App, opts Options) Model {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = scheduler.DefaultInterval
	}
	m := Model{
		app:            a,
		ctx:            ctx,
		Mode:           ModeList,
		Sound:          opts.Sound,
		CheckInterval:  opts.CheckInterval,
		startReminders: opts.StartReminders,
		Keys: GlobalKeyMap{
			Add:      "a",
			Toggle:   " ",
			Delete:   "d",
			Clear:    "C",
			Settings: "s",
			Help:     "?",
			Quit:     "q",
		},
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	prompts := [fieldCount]string{"", "", ""}
	placeholders := [fieldCount]string{"What needs to be done?", "YYYY-MM-DD (optional)", "HH:MM (optional)"}
	limits := [fieldCount]int{256, 10, 5}
	for i := range m.addInputs {
		in := textinput.New()
		in.Prompt = prompts[i]
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Width = 40
		m.addInputs[i] = in
	}

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
}

func (m *Model) focusAddField(field int) {
	m.addField = field
	for i := range m.addInputs {
		if i == field {
			m.addInputs[i].Focus()
		} else {
			m.addInputs[i].Blur()
		}
	}
}

func (m *Model) resetAddForm() {
	for i := range m.addInputs {
		m.addInputs[i].SetValue("")
		m.addInputs[i].Blur()
	}
	m.addField = fieldText
}

// selectedID is the id under the cursor in the current filtered view.
func (m Model) selectedID() (int64, bool) {
	snap := m.app.Snapshot(m.app.Now())
	if len(snap.Tasks) == 0 {
		return 0, false
	}
	cursor := clampCursor(m.Cursor, len(snap.Tasks))
	return snap.Tasks[cursor].ID, true
}

func (m *Model) clampCursor() {
	m.Cursor = clampCursor(m.Cursor, len(m.app.Snapshot(m.app.Now()).Tasks))
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}
