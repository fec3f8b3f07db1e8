package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/todod/internal/model"
	"gopkg.in/yaml.v3"
)

func strPtr(s string) *string { return &s }

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1792231200002, Text: "Pay rent", DueDate: strPtr("2026-10-16"), CreatedAt: now},
		{ID: 1792231200001, Text: "Buy milk", Completed: true, CreatedAt: now},
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatText, "JSON": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("parse %q = %s, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("csv"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestWriteJSONKeepsTaskFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleTasks(), now); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["text"] != "Pay rent" || decoded[0]["status"] != "overdue" {
		t.Fatalf("unexpected json: %s", buf.String())
	}
	if decoded[1]["dueDate"] != nil || decoded[1]["completed"] != true {
		t.Fatalf("unexpected second record: %v", decoded[1])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, sampleTasks(), now); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["text"] != "Pay rent" || decoded[0]["overdue"] != true {
		t.Fatalf("unexpected yaml: %s", buf.String())
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatText, sampleTasks(), now); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Pay rent", "Oct 16, 2026", "overdue", "[x]", "1792231200001"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = Write(&buf, FormatText, nil, now)
	if buf.String() != "no tasks\n" {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestWriteFileIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "todos.json")
	if err := WriteFile(path, FormatJSON, sampleTasks(), now); err != nil {
		t.Fatalf("write file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(raw), "Buy milk") {
		t.Fatalf("unexpected file contents: %q %v", raw, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone, stat err=%v", err)
	}
	if err := WriteFile(path, "csv", nil, now); err == nil {
		t.Fatal("expected unknown format error")
	}
}
