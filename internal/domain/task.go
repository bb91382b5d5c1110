package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is both a task's workflow state and the name of the bucket holding it.
type Status string

const (
	StatusTodo     Status = "TODO"
	StatusDoing    Status = "DOING"
	StatusDone     Status = "DONE"
	StatusArchived Status = "ARCHIVED"
	StatusBacklog  Status = "BACKLOG"
)

// Statuses lists every bucket in board order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone, StatusArchived, StatusBacklog}

// ParseStatus validates a status name, case-insensitively. Empty means StatusTodo.
func ParseStatus(s string) (Status, error) {
	if strings.TrimSpace(s) == "" {
		return StatusTodo, nil
	}
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
}

// Priority ranks tasks.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// ParsePriority validates a priority name, case-insensitively. Empty means PriorityLow.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case "":
		return PriorityLow, nil
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
	}
}

// Task is a card on a project board.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Comments    []Comment `json:"comments"`
	Assignees   []string  `json:"assignees"`
}

// IsAssigned reports whether username is among the assignees.
func (t *Task) IsAssigned(username string) bool {
	for _, a := range t.Assignees {
		if a == username {
			return true
		}
	}
	return false
}

// Comment is an entry in a task's comment log. Comments are addressed by position.
type Comment struct {
	Text      string    `json:"comment"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// layouts accepted for comment timestamps written by older tools.
var commentTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// UnmarshalJSON tolerates timestamps without a zone.
func (c *Comment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string `json:"comment"`
		Author    string `json:"author"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Comment{Text: raw.Text, Author: raw.Author}
	if raw.Timestamp == "" {
		return nil
	}
	for _, layout := range commentTimeLayouts {
		if ts, err := time.Parse(layout, raw.Timestamp); err == nil {
			c.Timestamp = ts
			return nil
		}
	}
	return fmt.Errorf("comment timestamp %q: unrecognised format", raw.Timestamp)
}
