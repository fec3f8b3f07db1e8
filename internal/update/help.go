package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/todod/internal/views"
)

func bind(keys, desc string, alts ...string) key.Binding {
	return key.NewBinding(key.WithKeys(append([]string{keys}, alts...)...), key.WithHelp(keys, desc))
}

// modeKeys satisfies help.KeyMap: the short view is the bindings of the
// current mode, the full view adds the ones that work everywhere.
type modeKeys struct {
	local  []key.Binding
	global []key.Binding
}

func (k modeKeys) ShortHelp() []key.Binding  { return k.local }
func (k modeKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.local, k.global} }

func (m Model) keyMap() modeKeys {
	global := []key.Binding{
		bind("/", "command palette"),
		bind(m.Keys.Help, "toggle help"),
		bind("ctrl+c", "quit"),
	}
	var local []key.Binding
	switch m.Mode {
	case ModeAdd:
		local = []key.Binding{
			bind("tab", "next field", "down", "shift+tab", "up"),
			bind("enter", "add task"),
			bind("esc", "cancel"),
		}
	case ModeSettings:
		local = []key.Binding{
			bind("e", "enable/disable notifications", "enter"),
			bind("esc", "close settings", m.Keys.Settings),
		}
	case ModeConfirm:
		local = []key.Binding{
			bind("y", "confirm"),
			bind("n", "cancel"),
		}
	default:
		local = []key.Binding{
			bind("j/k", "move", "j", "k", "up", "down"),
			bind(m.Keys.Add, "add task", "n"),
			bind("space", "toggle completed", m.Keys.Toggle, "x", "enter"),
			bind(m.Keys.Delete, "delete task", "delete"),
			bind("1-4", "all/active/past-due/completed", "1", "2", "3", "4"),
			bind("f", "next filter", "tab"),
			bind(m.Keys.Clear, "clear completed"),
			bind(m.Keys.Settings, "settings"),
			bind("esc", "dismiss reminder"),
			bind(m.Keys.Quit, "quit"),
		}
	}
	return modeKeys{local: local, global: global}
}

func (m Model) renderHelpView() string {
	keys := m.keyMap()
	lines := make([]string, 0, len(keys.local))
	for _, b := range keys.local {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: lines,
		HelpView: hm.View(keys),
	})
}
