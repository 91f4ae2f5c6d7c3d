package domain

import "time"

// Checkpoint is an immutable snapshot of a suspended run.
// It holds only inert data: behavior is re-bound from the tree and the
// capability registry when the checkpoint is resumed.
type Checkpoint struct {
	TreeID    string
	Cursor    Cursor
	Parameter any
	CreatedAt time.Time
}

// Status is the result of a run or resume.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSuspended Status = "suspended"
)

// Outcome reports how a run ended. Checkpoint is set only when suspended.
type Outcome struct {
	Status     Status
	Checkpoint *Checkpoint
}

// Completed reports whether the run reached the end of the tree.
func (o *Outcome) Completed() bool {
	return o != nil && o.Status == StatusCompleted
}
