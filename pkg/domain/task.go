package domain

// TaskKind defines how the orchestrator executes a task.
type TaskKind string

const (
	// TaskMessage emits its text and advances immediately.
	TaskMessage TaskKind = "message"
	// TaskGetData suspends the flow until its collection plan is answered.
	TaskGetData TaskKind = "get_data"
	// TaskBackendCall runs a synchronous call through the configured backend.
	TaskBackendCall TaskKind = "backend_call"
)

// TaskState is the execution state of a task inside a session.
type TaskState string

const (
	TaskPending          TaskState = "pending"
	TaskRunning          TaskState = "running"
	TaskWaitingUserInput TaskState = "waiting_user_input"
	TaskExecuted         TaskState = "executed"
	TaskFailed           TaskState = "failed"
)

// Terminal reports whether no further transition is expected for the task.
func (s TaskState) Terminal() bool {
	return s == TaskExecuted || s == TaskFailed
}

// BackendCall describes a side-effect requested by a BackendCall task.
type BackendCall struct {
	Name string         `json:"name" yaml:"name"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	// SaveTo names the session variable receiving the result.
	SaveTo string `json:"save_to,omitempty" yaml:"save_to,omitempty"`
}

// FlowTask is one unit of work inside a flow node.
type FlowTask struct {
	ID   string   `json:"id" yaml:"id"`
	Kind TaskKind `json:"kind" yaml:"kind"`

	// Text is emitted by message tasks. TextKey, when set, is looked up in
	// the translation catalog first.
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	TextKey string `json:"text_key,omitempty" yaml:"text_key,omitempty"`

	Template *DataTemplate `json:"template,omitempty" yaml:"template,omitempty"`
	Call     *BackendCall  `json:"call,omitempty" yaml:"call,omitempty"`
}

// Interactive reports whether the task needs user input to complete.
func (t FlowTask) Interactive() bool {
	return t.Kind == TaskGetData
}
