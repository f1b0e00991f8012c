package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Optional is a patch field that can be left alone, cleared (Set with a nil
// Value) or replaced.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func valueOf[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

func cleared[T any]() Optional[T] { return Optional[T]{Set: true} }

// TodoPatch is the closed set of fields a todo update may touch.
type TodoPatch struct {
	Title       *string
	Description Optional[string]
	DueDate     Optional[time.Time]
	AssigneeID  Optional[uint]
	Completed   *bool
}

// ParseTodoPatch decodes a JSON object into a TodoPatch. JSON null clears the
// nullable fields. Keys outside the patchable set are ignored, so clients can
// send back a whole todo object.
func ParseTodoPatch(body []byte) (TodoPatch, error) {
	var patch TodoPatch

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return patch, invalid("request body must not be empty")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return patch, invalid("request body must be a JSON object")
	}

	for key, raw := range fields {
		isNull := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))

		switch key {
		case "title":
			var title string
			if isNull || json.Unmarshal(raw, &title) != nil {
				return patch, invalid("title must be a string")
			}
			title = strings.TrimSpace(title)
			if title == "" {
				return patch, invalid("title cannot be empty")
			}
			patch.Title = &title

		case "description":
			if isNull {
				patch.Description = cleared[string]()
				continue
			}
			var desc string
			if json.Unmarshal(raw, &desc) != nil {
				return patch, invalid("description must be a string")
			}
			if desc = strings.TrimSpace(desc); desc == "" {
				patch.Description = cleared[string]()
			} else {
				patch.Description = valueOf(desc)
			}

		case "due_date":
			if isNull {
				patch.DueDate = cleared[time.Time]()
				continue
			}
			var s string
			if json.Unmarshal(raw, &s) != nil {
				return patch, invalid("due_date must be a string")
			}
			due, err := parseDueDate(s)
			if err != nil {
				return patch, err
			}
			if due == nil {
				patch.DueDate = cleared[time.Time]()
			} else {
				patch.DueDate = valueOf(*due)
			}

		case "assignee_id":
			if isNull {
				patch.AssigneeID = cleared[uint]()
				continue
			}
			var id uint
			if json.Unmarshal(raw, &id) != nil || id == 0 {
				return patch, invalid("assignee_id must be a positive integer")
			}
			patch.AssigneeID = valueOf(id)

		case "completed":
			var done bool
			if isNull || json.Unmarshal(raw, &done) != nil {
				return patch, invalid("completed must be a boolean")
			}
			patch.Completed = &done

		default:
			slog.Debug("ignoring non-patchable todo field", "field", key)
		}
	}

	return patch, nil
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && !p.DueDate.Set && !p.AssigneeID.Set && p.Completed == nil
}

// Changes maps the patch onto todo column names.
func (p TodoPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description.Set {
		changes["description"] = p.Description.Value
	}
	if p.DueDate.Set {
		changes["due_date"] = p.DueDate.Value
	}
	if p.AssigneeID.Set {
		changes["assignee_id"] = p.AssigneeID.Value
	}
	if p.Completed != nil {
		changes["completed"] = *p.Completed
	}
	return changes
}

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDueDate accepts RFC 3339 plus the formats HTML date and datetime-local
// inputs produce. An empty string means "no due date".
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid("due_date %q is not a valid date", s)
}
