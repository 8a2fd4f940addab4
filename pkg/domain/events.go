package domain

import (
	"context"
	"time"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry or exit from a flow node.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// TaskEvent represents a task state change.
type TaskEvent struct {
	EventBase
	NodeID string    `json:"node_id"`
	TaskID string    `json:"task_id"`
	Kind   TaskKind  `json:"kind"`
	From   TaskState `json:"from"`
	To     TaskState `json:"to"`
}

// SlotEvent represents a slot phase transition.
type SlotEvent struct {
	EventBase
	TaskID   string    `json:"task_id"`
	EntryKey string    `json:"entry_key"`
	From     SlotPhase `json:"from"`
	To       SlotPhase `json:"to"`
	Step     StepType  `json:"step"`
	Level    int       `json:"level"`
	NoMatch  int       `json:"no_match"`
	NoInput  int       `json:"no_input"`
}

// GapEvent reports a message that could not be resolved.
type GapEvent struct {
	EventBase
	Gap ResolutionGap `json:"gap"`
}

// LifecycleHooks defines callbacks for engine observability.
// Diagnostics live here, never inside the transition logic.
type LifecycleHooks struct {
	OnNodeEnter      func(context.Context, *NodeEvent)
	OnNodeLeave      func(context.Context, *NodeEvent)
	OnTaskState      func(context.Context, *TaskEvent)
	OnSlotTransition func(context.Context, *SlotEvent)
	OnResolutionGap  func(context.Context, *GapEvent)
}

// MergeHooks fans every callback out to all the given hooks in order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range all {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *NodeEvent) {
			for _, h := range all {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnTaskState: func(ctx context.Context, e *TaskEvent) {
			for _, h := range all {
				if h.OnTaskState != nil {
					h.OnTaskState(ctx, e)
				}
			}
		},
		OnSlotTransition: func(ctx context.Context, e *SlotEvent) {
			for _, h := range all {
				if h.OnSlotTransition != nil {
					h.OnSlotTransition(ctx, e)
				}
			}
		},
		OnResolutionGap: func(ctx context.Context, e *GapEvent) {
			for _, h := range all {
				if h.OnResolutionGap != nil {
					h.OnResolutionGap(ctx, e)
				}
			}
		},
	}
}
