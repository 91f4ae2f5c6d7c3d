package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventActionInvoke EventType = "action_invoke"
	EventActionReturn EventType = "action_return"
	EventSuspend      EventType = "suspend"
	EventResume       EventType = "resume"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TreeID    string    `json:"tree_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeKind NodeKind `json:"node_kind"`
	Depth    int      `json:"depth"`
}

// ActionEvent represents an action capability invocation.
type ActionEvent struct {
	EventBase
	NodeID     string        `json:"node_id"`
	Capability string        `json:"capability"`
	Duration   time.Duration `json:"duration,omitempty"`
	IsError    bool          `json:"is_error,omitempty"`
}

// CheckpointEvent represents a suspension or resumption.
type CheckpointEvent struct {
	EventBase
	Depth int `json:"depth"`
}

// LifecycleHooks defines callbacks for interpreter observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
	OnActionInvoke func(context.Context, *ActionEvent)
	OnActionReturn func(context.Context, *ActionEvent)
	OnSuspend      func(context.Context, *CheckpointEvent)
	OnResume       func(context.Context, *CheckpointEvent)
}
