package domain

import "time"

// ActionType enumerates client interaction events.
type ActionType string

const (
	ActionListen ActionType = "listen"
	ActionSkip   ActionType = "skip"
	ActionSave   ActionType = "save"
)

// Valid reports whether t is a known action.
func (t ActionType) Valid() bool {
	switch t {
	case ActionListen, ActionSkip, ActionSave:
		return true
	}
	return false
}

// Action is a single interaction a client reports for a paper.
type Action struct {
	UserID    int64
	PaperID   int64
	Type      ActionType
	Value     float64
	CreatedAt time.Time
}
