package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeRemove Type = "rm"
	TypeEdit   Type = "edit"
	TypeRemind Type = "remind"
	TypeShow   Type = "show"
)

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

// Fields holds the key:value options shared by add and edit. Nil means the
// option was not given.
type Fields struct {
	Title    string
	Category *model.Category
	Due      *model.Date
	ClearDue bool
	At       *string
	Memo     *string
}

type AddArgs struct {
	Fields
}

type TargetArgs struct {
	Target string
}

type EditArgs struct {
	Target string
	Fields
}

type RemindArgs struct {
	Target string
	Off    bool
	At     string
}

type ShowArgs struct {
	Filter model.Filter
	Query  string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *TargetArgs
	Remove *TargetArgs
	Edit   *EditArgs
	Remind *RemindArgs
	Show   *ShowArgs
}

var aliases = map[string]Type{
	"new":    TypeAdd,
	"toggle": TypeDone,
	"delete": TypeRemove,
	"del":    TypeRemove,
	"remove": TypeRemove,
	"list":   TypeShow,
}

// Parse reads one palette line. today resolves relative due dates such as
// "due:tomorrow".
func Parse(input string, today model.Date) (Command, error) {
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
		return parseAdd(input, args, today)
	case TypeDone:
		return parseTarget(input, TypeDone, args)
	case TypeRemove:
		return parseTarget(input, TypeRemove, args)
	case TypeEdit:
		return parseEdit(input, args, today)
	case TypeRemind:
		return parseRemind(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string, today model.Date) (Command, error) {
	fields, err := parseFields(args, today)
	if err != nil {
		return Command{}, err
	}
	if fields.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	if fields.ClearDue {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "due:none only applies to edit"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Fields: fields}}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires exactly one task id", typ)}
	}
	target := &TargetArgs{Target: args[0]}
	cmd := Command{Type: typ, Raw: raw}
	if typ == TypeDone {
		cmd.Done = target
	} else {
		cmd.Remove = target
	}
	return cmd, nil
}

func parseEdit(raw string, args []string, today model.Date) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "edit requires a task id and at least one change"}
	}
	fields, err := parseFields(args[1:], today)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Target: args[0], Fields: fields}}, nil
}

func parseRemind(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "remind requires a task id and HH:mm or off"}
	}
	if strings.EqualFold(args[1], "off") {
		return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Target: args[0], Off: true}}, nil
	}
	if _, _, ok := model.ParseClock(args[1]); !ok {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time %q, want HH:mm", args[1])}
	}
	return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Target: args[0], At: args[1]}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	show := &ShowArgs{Filter: model.FilterAll}
	if len(args) > 0 {
		f, err := model.ParseFilter(args[0])
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown filter %q", args[0])}
		}
		show.Filter = f
		show.Query = strings.Join(args[1:], " ")
	}
	return Command{Type: TypeShow, Raw: raw, Show: show}, nil
}

func parseFields(args []string, today model.Date) (Fields, error) {
	var out Fields
	var title []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok || value == "" {
			title = append(title, arg)
			continue
		}
		switch strings.ToLower(key) {
		case "due":
			if strings.EqualFold(value, "none") {
				out.ClearDue = true
				continue
			}
			d, err := parseDue(value, today)
			if err != nil {
				return Fields{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
			}
			out.Due = &d
		case "at":
			if _, _, ok := model.ParseClock(value); !ok {
				return Fields{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time %q, want HH:mm", value)}
			}
			out.At = model.StringPtr(value)
		case "cat", "category":
			c := model.Category(strings.ToUpper(value[:1]) + strings.ToLower(value[1:]))
			if !c.IsValid() {
				return Fields{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown category %q", value)}
			}
			out.Category = &c
		case "memo":
			out.Memo = model.StringPtr(strings.ReplaceAll(value, "_", " "))
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	return out, nil
}

func parseDue(value string, today model.Date) (model.Date, error) {
	switch strings.ToLower(value) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(value, wd.String()[:3]) || strings.EqualFold(value, wd.String()) {
			delta := (int(wd) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			return today.AddDays(delta), nil
		}
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid due date %q, want YYYY-MM-DD, today, tomorrow or a weekday", value)
	}
	return d, nil
}
