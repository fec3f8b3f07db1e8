package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TaskRowData struct {
	ID        int64
	Text      string
	Completed bool
	// Status is one of "none", "due-soon" or "overdue".
	Status    string
	DateLabel string
	TimeLabel string
}

type TaskListData struct {
	Rows         []TaskRowData
	Cursor       int
	EmptyMessage string
	StatsLine    string
	ShowClear    bool
}

type AddFormData struct {
	Active    bool
	Field     int
	TextView  string
	DateView  string
	TimeView  string
	ErrorText string
}

type SettingsPanelData struct {
	StatusKind string
	StatusText string
	Action     string
	Sound      bool
	Interval   string
	Pending    bool
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

var (
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dueSoonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	completedStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	dueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	activeTab      = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("12"))
	inactiveTab    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderFilterBar shows the four filters with the current one highlighted.
func RenderFilterBar(filters []string, current string) string {
	parts := make([]string, 0, len(filters))
	for i, f := range filters {
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == current {
			parts = append(parts, activeTab.Render(label))
		} else {
			parts = append(parts, inactiveTab.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	if len(data.Rows) == 0 {
		b.WriteString(data.EmptyMessage + "\n")
	}
	for i, row := range data.Rows {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		check := "[ ]"
		if row.Completed {
			check = "[x]"
		}
		text := row.Text
		switch {
		case row.Completed:
			text = completedStyle.Render(text)
		case row.Status == "overdue":
			text = overdueStyle.Render(text + " (overdue)")
		case row.Status == "due-soon":
			text = dueSoonStyle.Render(text + " (due soon)")
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, check, text))
		if due := strings.TrimSpace(row.DateLabel + " " + row.TimeLabel); due != "" {
			b.WriteString("  " + dueStyle.Render(due))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + data.StatsLine)
	if data.ShowClear {
		b.WriteString("  [C] clear completed")
	}
	return strings.TrimSpace(b.String())
}

func RenderAddForm(data AddFormData) string {
	if !data.Active {
		return ""
	}
	marker := func(field int) string {
		if field == data.Field {
			return ">"
		}
		return " "
	}
	var b strings.Builder
	b.WriteString("new task:\n")
	b.WriteString(fmt.Sprintf("%s text: %s\n", marker(0), data.TextView))
	b.WriteString(fmt.Sprintf("%s date: %s\n", marker(1), data.DateView))
	b.WriteString(fmt.Sprintf("%s time: %s\n", marker(2), data.TimeView))
	b.WriteString("keys: [tab] field [enter] add [esc] cancel")
	if data.ErrorText != "" {
		b.WriteString("\n" + overdueStyle.Render(data.ErrorText))
	}
	return b.String()
}

// RenderSettingsPanel renders the notification settings as markdown.
func RenderSettingsPanel(data SettingsPanelData) string {
	icon := map[string]string{
		"active":      "✅",
		"paused":      "⏸️",
		"blocked":     "❌",
		"not-enabled": "⚠️",
	}[data.StatusKind]

	var md strings.Builder
	md.WriteString("## Settings\n\n")
	md.WriteString("### Notifications\n\n")
	md.WriteString(fmt.Sprintf("Status: %s %s\n\n", icon, data.StatusText))
	if data.Pending {
		md.WriteString("_Waiting for permission..._\n\n")
	} else {
		md.WriteString(fmt.Sprintf("Press **e** to %s.\n\n", strings.ToLower(data.Action)))
	}
	md.WriteString("Reminders fire 30 and 5 minutes before a task is due, and once when it is due.\n\n")
	sound := "off"
	if data.Sound {
		sound = "on"
	}
	md.WriteString(fmt.Sprintf("- check interval: %s\n- bell in `todod watch`: %s\n\n", data.Interval, sound))
	md.WriteString("Press **esc** to close.")
	return RenderMarkdown(md.String())
}

func RenderConfirm(question string) string {
	if question == "" {
		return ""
	}
	return fmt.Sprintf("%s [y/n]", question)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func RenderReminder(title, body string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", title, body)
}
