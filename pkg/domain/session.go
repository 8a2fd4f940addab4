package domain

// Status is the mode of the orchestrator.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusRunning          Status = "running"
	StatusWaitingUserInput Status = "waiting_user_input"
	StatusStopped          Status = "stopped"
	// StatusFailed marks a run halted by a configuration error.
	StatusFailed Status = "failed"
)

// Outcome tells how a waiting task is force-resolved.
type Outcome string

const (
	// OutcomeSaturated means every piece of data was obtained.
	OutcomeSaturated Outcome = "saturated"
	// OutcomeAborted abandons the task; it ends up failed.
	OutcomeAborted Outcome = "aborted"
)

// Session is the plain, inspectable runtime state of an orchestrator.
// It is what persistence collaborators snapshot and restore.
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	// Completed is set when the flow ran out of nodes; Status is idle then.
	Completed bool `json:"completed,omitempty"`

	CurrentNodeID string `json:"current_node_id,omitempty"`
	TaskIndex     int    `json:"task_index"`
	WaitingTaskID string `json:"waiting_task_id,omitempty"`

	Tasks map[string]TaskState `json:"tasks,omitempty"`

	// EntryIndex is the plan cursor of the waiting GetData task.
	EntryIndex int `json:"entry_index"`
	// Slots holds per-entry state keyed by PlanEntry.Key.
	Slots map[string]*SlotState `json:"slots,omitempty"`
	// Values holds captured answers per task, keyed by PlanEntry.Key.
	Values map[string]map[string]Value `json:"values,omitempty"`
	// Variables holds backend call results keyed by BackendCall.SaveTo.
	Variables map[string]any `json:"variables,omitempty"`

	Transcript []Message    `json:"transcript,omitempty"`
	History    []string     `json:"history,omitempty"`
	Failure    *ConfigError `json:"failure,omitempty"`

	// Flow is frozen at Start.
	Flow *Flow `json:"flow,omitempty"`
}

// NewSession returns an idle session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Status:    StatusIdle,
		Tasks:     make(map[string]TaskState),
		Slots:     make(map[string]*SlotState),
		Values:    make(map[string]map[string]Value),
		Variables: make(map[string]any),
	}
}

// Clone returns a deep copy of s suitable for handing out to collaborators.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Tasks = make(map[string]TaskState, len(s.Tasks))
	for k, v := range s.Tasks {
		c.Tasks[k] = v
	}
	c.Slots = make(map[string]*SlotState, len(s.Slots))
	for k, v := range s.Slots {
		c.Slots[k] = v.Clone()
	}
	c.Values = make(map[string]map[string]Value, len(s.Values))
	for task, vals := range s.Values {
		inner := make(map[string]Value, len(vals))
		for k, v := range vals {
			inner[k] = v
		}
		c.Values[task] = inner
	}
	c.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		c.Variables[k] = v
	}
	c.Transcript = append([]Message(nil), s.Transcript...)
	c.History = append([]string(nil), s.History...)
	if s.Failure != nil {
		f := *s.Failure
		c.Failure = &f
	}
	c.Flow = s.Flow.Clone()
	return &c
}

// Waiting reports whether a task is suspended on user input.
func (s *Session) Waiting() bool {
	return s != nil && s.Status == StatusWaitingUserInput && s.WaitingTaskID != ""
}
