// Package export writes the task list for scripts and backups.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sandeepkv93/todod/internal/model"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("export: unknown format")

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Record is a task plus its due status at export time.
type Record struct {
	model.Task `yaml:",inline"`
	Status     model.DueStatus `json:"status" yaml:"status"`
	Overdue    bool            `json:"overdue" yaml:"overdue"`
}

func Records(tasks []model.Task, now time.Time) []Record {
	out := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Record{Task: t, Status: t.Status(now), Overdue: t.IsOverdue(now)})
	}
	return out
}

func Write(w io.Writer, format Format, tasks []model.Task, now time.Time) error {
	records := Records(tasks, now)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, renderText(records))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile replaces path atomically.
func WriteFile(path string, format Format, tasks []model.Task, now time.Time) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, format, tasks, now); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func renderText(records []Record) string {
	if len(records) == 0 {
		return "no tasks\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		check := "[ ]"
		if r.Completed {
			check = "[x]"
		}
		date, clock := r.DueLabels()
		due := strings.TrimSpace(date + " " + clock)
		status := ""
		if r.Status != model.StatusNone {
			status = string(r.Status)
		}
		rows = append(rows, []string{check, strconv.FormatInt(r.ID, 10), r.Text, due, status})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "ID", "TASK", "DUE", "STATUS").
		Rows(rows...)
	return t.String() + "\n"
}
