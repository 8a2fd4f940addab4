package logging

import (
	"context"
	"log/slog"

	"github.com/aretw0/slotflow/pkg/domain"
)

// Hooks turns lifecycle events into debug-level structured logs.
func Hooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = NewNop()
	}
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered", "session_id", e.SessionID, "node_id", e.NodeID)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node left", "session_id", e.SessionID, "node_id", e.NodeID)
		},
		OnTaskState: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task state",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"task_id", e.TaskID,
				"kind", e.Kind,
				"from", e.From,
				"to", e.To,
			)
		},
		OnSlotTransition: func(ctx context.Context, e *domain.SlotEvent) {
			logger.DebugContext(ctx, "slot transition",
				"session_id", e.SessionID,
				"task_id", e.TaskID,
				"entry", e.EntryKey,
				"from", e.From,
				"to", e.To,
				"step", e.Step,
				"level", e.Level,
				"no_match", e.NoMatch,
				"no_input", e.NoInput,
			)
		},
		OnResolutionGap: func(ctx context.Context, e *domain.GapEvent) {
			logger.WarnContext(ctx, "resolution gap",
				"session_id", e.SessionID,
				"task_id", e.Gap.TaskID,
				"node_id", e.Gap.NodeID,
				"step", e.Gap.Step,
				"level", e.Gap.Level,
			)
		},
	}
}
