package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/todod/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeToggle   Type = "toggle"
	TypeDelete   Type = "delete"
	TypeClear    Type = "clear"
	TypeFilter   Type = "filter"
	TypeNotify   Type = "notify"
	TypeSettings Type = "settings"
)

var aliases = map[string]Type{
	"done":   TypeToggle,
	"rm":     TypeDelete,
	"del":    TypeDelete,
	"show":   TypeFilter,
	"alerts": TypeNotify,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs holds the raw due fields; they are validated by the task store.
type AddArgs struct {
	Text    string
	DueDate string
	DueTime string
}

// TargetArgs names a task by id, or the selected row when ID is zero.
type TargetArgs struct {
	ID int64
}

func (a TargetArgs) Selected() bool { return a.ID == 0 }

type FilterArgs struct {
	Mode model.FilterMode
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *TargetArgs
	Filter *FilterArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeToggle, TypeDelete:
		return parseTarget(input, typ, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeClear, TypeNotify, TypeSettings:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", typ)}
		}
		return Command{Type: typ, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd accepts "add <text> [due:YYYY-MM-DD] [at:HH:MM]"; the due tokens
// may appear anywhere after the command.
func parseAdd(raw string, args []string) (Command, error) {
	add := AddArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "due:"):
			add.DueDate = arg[len("due:"):]
		case strings.HasPrefix(lower, "at:"):
			add.DueTime = arg[len("at:"):]
		default:
			words = append(words, arg)
		}
	}
	add.Text = strings.TrimSpace(strings.Join(words, " "))
	if add.Text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires task text"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) == 0 || strings.EqualFold(args[0], "selected") {
		return Command{Type: typ, Raw: raw, Target: &TargetArgs{}}, nil
	}
	if len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes a single task id", typ)}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid task id: %s", args[0])}
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{ID: id}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires one of all, active, past-due, completed"}
	}
	mode, err := model.ParseFilterMode(args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Mode: mode}}, nil
}
