package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/domain"
)

// drain executes non-interactive tasks and follows edges until the flow
// suspends on user input, completes, or fails.
func (o *Orchestrator) drain(ctx context.Context, turn *Turn) error {
	entered := 0
	for o.session.Status == domain.StatusRunning {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := o.graph.Node(o.session.CurrentNodeID)
		if node == nil {
			return o.fail(ctx, &domain.ConfigError{
				Code:   domain.CodeUnknownNode,
				NodeID: o.session.CurrentNodeID,
				Reason: "current node is not part of the graph",
			})
		}

		if o.session.TaskIndex >= len(node.Tasks) {
			next, done, err := o.nextNode(ctx, node)
			if err != nil {
				return o.fail(ctx, err)
			}
			o.leaveNode(ctx, node.ID)
			if done {
				o.halt(domain.StatusIdle)
				o.session.Completed = true
				return nil
			}
			entered++
			if entered > o.maxSteps {
				return o.fail(ctx, &domain.ConfigError{
					Code:   domain.CodeRunaway,
					NodeID: next,
					Reason: fmt.Sprintf("flow entered %d nodes without waiting for input", o.maxSteps),
				})
			}
			o.enterNode(ctx, next)
			continue
		}

		task := node.Tasks[o.session.TaskIndex]
		if o.session.Tasks[task.ID].Terminal() {
			o.session.TaskIndex++
			continue
		}

		switch task.Kind {
		case domain.TaskMessage:
			o.sayTask(ctx, turn, node, task)
			o.setTask(ctx, node.ID, task, domain.TaskExecuted)
			o.session.TaskIndex++

		case domain.TaskBackendCall:
			if err := o.callBackend(ctx, node, task); err != nil {
				return err
			}
			o.setTask(ctx, node.ID, task, domain.TaskExecuted)
			o.session.TaskIndex++

		case domain.TaskGetData:
			if err := validator.ValidateTemplate(task.Template); err != nil {
				ce, ok := domain.AsConfigError(err)
				if !ok {
					ce = &domain.ConfigError{Code: domain.CodeMissingTemplate, Reason: err.Error()}
				}
				ce.NodeID, ce.TaskID = node.ID, task.ID
				return o.fail(ctx, ce)
			}
			plan := BuildPlan(task.Template)
			if len(plan) == 0 {
				o.setTask(ctx, node.ID, task, domain.TaskExecuted)
				o.session.TaskIndex++
				continue
			}
			o.setTask(ctx, node.ID, task, domain.TaskRunning)
			o.setTask(ctx, node.ID, task, domain.TaskWaitingUserInput)
			o.plan = plan
			o.session.Status = domain.StatusWaitingUserInput
			o.session.WaitingTaskID = task.ID
			o.session.EntryIndex = 0
			o.session.Slots = make(map[string]*domain.SlotState)
			o.openEntry(ctx, turn)
			return nil

		default:
			o.logger.Warn("skipping task of unknown kind", "session_id", o.sessionID, "node_id", node.ID, "task_id", task.ID, "kind", task.Kind)
			o.session.TaskIndex++
		}
	}
	return nil
}

func (o *Orchestrator) nextNode(ctx context.Context, node *domain.FlowNode) (string, bool, *domain.ConfigError) {
	edges := o.graph.Outgoing(node.ID)
	var chosen domain.Edge
	switch {
	case len(edges) == 0:
		return "", true, nil
	case len(edges) == 1:
		chosen = edges[0]
	case o.selector == nil:
		return "", false, &domain.ConfigError{
			Code:   domain.CodeAmbiguousEdge,
			NodeID: node.ID,
			Reason: fmt.Sprintf("%d outgoing edges and no edge selector", len(edges)),
		}
	default:
		edge, ok, err := o.selector.Select(ctx, o.session.Clone(), node, edges)
		if err != nil {
			return "", false, &domain.ConfigError{Code: domain.CodeNoOutgoingEdge, NodeID: node.ID, Reason: "edge selector failed: " + err.Error()}
		}
		if !ok {
			return "", false, &domain.ConfigError{Code: domain.CodeNoOutgoingEdge, NodeID: node.ID, Reason: "no outgoing edge condition matched"}
		}
		chosen = edge
	}
	if o.graph.Node(chosen.To) == nil {
		return "", false, &domain.ConfigError{Code: domain.CodeUnknownNode, NodeID: chosen.To, Reason: fmt.Sprintf("edge %q points to a missing node", chosen.ID)}
	}
	return chosen.To, false, nil
}

// enterNode makes nodeID current. Task states of the node are reset so a
// revisited node runs its tasks again.
func (o *Orchestrator) enterNode(ctx context.Context, nodeID string) {
	o.session.CurrentNodeID = nodeID
	o.session.TaskIndex = 0
	o.session.History = append(o.session.History, nodeID)
	if node := o.graph.Node(nodeID); node != nil {
		for _, t := range node.Tasks {
			o.session.Tasks[t.ID] = domain.TaskPending
		}
	}
	if o.hooks.OnNodeEnter != nil {
		o.hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: o.base(), NodeID: nodeID})
	}
}

func (o *Orchestrator) leaveNode(ctx context.Context, nodeID string) {
	if o.hooks.OnNodeLeave != nil {
		o.hooks.OnNodeLeave(ctx, &domain.NodeEvent{EventBase: o.base(), NodeID: nodeID})
	}
}

func (o *Orchestrator) setTask(ctx context.Context, nodeID string, task domain.FlowTask, to domain.TaskState) {
	from, ok := o.session.Tasks[task.ID]
	if !ok {
		from = domain.TaskPending
	}
	o.session.Tasks[task.ID] = to
	if o.hooks.OnTaskState != nil {
		o.hooks.OnTaskState(ctx, &domain.TaskEvent{
			EventBase: o.base(),
			NodeID:    nodeID,
			TaskID:    task.ID,
			Kind:      task.Kind,
			From:      from,
			To:        to,
		})
	}
}

// resolveWaiting finalizes the waiting task and moves the cursor past it.
func (o *Orchestrator) resolveWaiting(ctx context.Context, to domain.TaskState) {
	node, task, ok := o.graph.FindTask(o.session.WaitingTaskID)
	if ok {
		o.setTask(ctx, node.ID, task, to)
	}
	o.session.WaitingTaskID = ""
	o.session.EntryIndex = 0
	o.session.Slots = make(map[string]*domain.SlotState)
	o.session.TaskIndex++
	o.session.Status = domain.StatusRunning
	o.plan = nil
}

func (o *Orchestrator) sayTask(ctx context.Context, turn *Turn, node *domain.FlowNode, task domain.FlowTask) {
	text, ok := o.resolver.Text(task.TextKey)
	if !ok {
		text, ok = task.Text, task.Text != ""
	}
	if !ok {
		o.gap(ctx, turn, domain.ResolutionGap{TaskID: task.ID, NodeID: node.ID})
		return
	}
	o.record(turn, domain.Message{
		Direction:   domain.DirectionSystem,
		Text:        text,
		NodeID:      node.ID,
		TaskID:      task.ID,
		TemplateKey: task.TextKey,
	})
}

func (o *Orchestrator) callBackend(ctx context.Context, node *domain.FlowNode, task domain.FlowTask) error {
	if task.Call == nil || o.backend == nil {
		return o.fail(ctx, &domain.ConfigError{
			Code:   domain.CodeMissingBackend,
			NodeID: node.ID,
			TaskID: task.ID,
			Reason: "backend call task needs both a call definition and a configured backend",
		})
	}
	result, err := o.backend.Call(ctx, o.session.Clone(), *task.Call)
	if err != nil {
		return o.fail(ctx, &domain.ConfigError{
			Code:   domain.CodeBackendFailed,
			NodeID: node.ID,
			TaskID: task.ID,
			Reason: fmt.Sprintf("call %q: %v", task.Call.Name, err),
		})
	}
	if task.Call.SaveTo != "" {
		o.session.Variables[task.Call.SaveTo] = result
	}
	return nil
}

func (o *Orchestrator) openEntry(ctx context.Context, turn *Turn) {
	entry := o.plan[o.session.EntryIndex]
	state := domain.NewSlotState()
	o.session.Slots[entry.Key()] = state
	o.applySlot(ctx, turn, entry, state, o.slots.Open(entry))
}

func (o *Orchestrator) applySlot(ctx context.Context, turn *Turn, entry domain.PlanEntry, state *domain.SlotState, res SlotResult) {
	taskID := o.session.WaitingTaskID
	for _, msg := range res.Messages {
		msg.TaskID = taskID
		o.record(turn, msg)
	}
	for _, g := range res.Gaps {
		g.TaskID = taskID
		o.gap(ctx, turn, g)
	}
	if o.hooks.OnSlotTransition != nil {
		o.hooks.OnSlotTransition(ctx, &domain.SlotEvent{
			EventBase: o.base(),
			TaskID:    taskID,
			EntryKey:  entry.Key(),
			From:      res.From,
			To:        res.To,
			Step:      res.Step,
			Level:     res.Level,
			NoMatch:   state.NoMatch,
			NoInput:   state.NoInput,
		})
	}
}

func (o *Orchestrator) record(turn *Turn, msg domain.Message) {
	msg.Timestamp = o.now()
	o.session.Transcript = append(o.session.Transcript, msg)
	turn.Messages = append(turn.Messages, msg)
}

func (o *Orchestrator) gap(ctx context.Context, turn *Turn, g domain.ResolutionGap) {
	turn.Gaps = append(turn.Gaps, g)
	o.logger.Warn("message could not be resolved", "session_id", o.sessionID, "node_id", g.NodeID, "task_id", g.TaskID, "step", g.Step, "level", g.Level)
	if o.hooks.OnResolutionGap != nil {
		o.hooks.OnResolutionGap(ctx, &domain.GapEvent{EventBase: o.base(), Gap: g})
	}
}

// fail halts the run on a configuration error and returns it.
func (o *Orchestrator) fail(ctx context.Context, ce *domain.ConfigError) error {
	if ce.NodeID != "" && ce.TaskID != "" {
		if node := o.graph.Node(ce.NodeID); node != nil {
			if task, _, ok := node.Task(ce.TaskID); ok {
				o.setTask(ctx, node.ID, task, domain.TaskFailed)
			}
		}
	}
	o.session.Status = domain.StatusFailed
	o.session.Failure = ce
	o.session.WaitingTaskID = ""
	o.plan = nil
	o.logger.Error("flow halted", "session_id", o.sessionID, "err", ce)
	return ce
}

func (o *Orchestrator) base() domain.EventBase {
	return domain.EventBase{Timestamp: o.now(), SessionID: o.sessionID}
}
