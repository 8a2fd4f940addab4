package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Turn is what one synchronous reaction produced.
type Turn struct {
	Messages      []domain.Message       `json:"messages"`
	Gaps          []domain.ResolutionGap `json:"gaps,omitempty"`
	Status        domain.Status          `json:"status"`
	Completed     bool                   `json:"completed,omitempty"`
	WaitingTaskID string                 `json:"waiting_task_id,omitempty"`
	// Ignored is set when the call was a no-op (nothing waiting, unknown task).
	Ignored bool `json:"ignored,omitempty"`
}

// Orchestrator walks the flow graph for one session. It is single-threaded:
// callers must serialize calls (see pkg/session for a locking manager).
type Orchestrator struct {
	provider      ports.GraphProvider
	translations  ports.Translations
	extractor     ports.Extractor
	selector      ports.EdgeSelector
	backend       ports.Backend
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	subEscalation bool
	maxSteps      int
	now           func() time.Time
	sessionID     string

	// per-session runtime state, frozen at Start
	graph    *domain.Graph
	texts    ports.Translations
	resolver *Resolver
	slots    *SlotMachine
	session  *domain.Session
	plan     []domain.PlanEntry
}

// New creates an orchestrator reading the graph from provider and message
// text from translations.
func New(provider ports.GraphProvider, translations ports.Translations, opts ...Option) *Orchestrator {
	o := &Orchestrator{provider: provider, translations: translations}
	defaults(o)
	for _, opt := range opts {
		opt(o)
	}
	o.session = domain.NewSession(o.sessionID)
	return o
}

// Start begins a fresh run from the entry node, discarding any previous state.
// A configuration error halts the run and is returned as *domain.ConfigError.
func (o *Orchestrator) Start(ctx context.Context) (Turn, error) {
	if err := o.freeze(ctx); err != nil {
		return o.turn(nil), err
	}
	o.session = domain.NewSession(o.sessionID)
	o.session.Flow = o.flow()
	o.plan = nil

	turn := &Turn{}
	entries := o.graph.EntryNodes()
	if len(entries) == 0 {
		return o.finish(turn, o.fail(ctx, &domain.ConfigError{Code: domain.CodeEmptyGraph, Reason: "graph has no nodes"}))
	}
	o.session.Status = domain.StatusRunning
	o.enterNode(ctx, entries[0])
	return o.finish(turn, o.drain(ctx, turn))
}

// HandleUserInput routes text to the slot of the waiting task. Calling it
// with nothing waiting is a logged no-op.
func (o *Orchestrator) HandleUserInput(ctx context.Context, text string) (Turn, error) {
	if !o.session.Waiting() || len(o.plan) == 0 {
		o.logger.Warn("input ignored", "session_id", o.sessionID, "status", o.session.Status, "err", domain.ErrNotWaiting)
		t := o.turn(nil)
		t.Ignored = true
		return t, nil
	}

	entry := o.plan[o.session.EntryIndex]
	state := o.session.Slots[entry.Key()]
	if state == nil {
		state = domain.NewSlotState()
	}

	res, err := o.slots.ProcessInput(ctx, entry, state, text)
	if err != nil {
		return o.turn(nil), err
	}
	o.session.Slots[entry.Key()] = state

	turn := &Turn{}
	o.record(turn, domain.Message{Direction: domain.DirectionUser, Text: text, TaskID: o.session.WaitingTaskID})
	o.applySlot(ctx, turn, entry, state, res)

	if !res.Advanced {
		return o.finish(turn, nil)
	}

	taskID := o.session.WaitingTaskID
	if o.session.Values[taskID] == nil {
		o.session.Values[taskID] = make(map[string]domain.Value)
	}
	if state.Value != nil {
		o.session.Values[taskID][entry.Key()] = *state.Value
	}
	delete(o.session.Slots, entry.Key())

	o.session.EntryIndex++
	if o.session.EntryIndex < len(o.plan) {
		o.openEntry(ctx, turn)
		return o.finish(turn, nil)
	}

	o.resolveWaiting(ctx, domain.TaskExecuted)
	return o.finish(turn, o.drain(ctx, turn))
}

// CompleteWaitingTask force-resolves the waiting task. Unknown task IDs and
// repeated calls are logged no-ops.
func (o *Orchestrator) CompleteWaitingTask(ctx context.Context, taskID string, outcome domain.Outcome) (Turn, error) {
	if !o.session.Waiting() || o.session.WaitingTaskID != taskID {
		o.logger.Warn("completion ignored", "session_id", o.sessionID, "task_id", taskID, "err", domain.ErrUnknownTask)
		t := o.turn(nil)
		t.Ignored = true
		return t, nil
	}

	turn := &Turn{}
	switch outcome {
	case domain.OutcomeSaturated:
		o.resolveWaiting(ctx, domain.TaskExecuted)
		return o.finish(turn, o.drain(ctx, turn))
	case domain.OutcomeAborted:
		o.resolveWaiting(ctx, domain.TaskFailed)
		o.halt(domain.StatusStopped)
		return o.finish(turn, nil)
	default:
		o.logger.Warn("completion ignored", "session_id", o.sessionID, "task_id", taskID, "outcome", outcome)
		t := o.turn(nil)
		t.Ignored = true
		return t, nil
	}
}

// Stop halts the run. Runtime state is cleared; the transcript is kept.
// A task still waiting for input ends up failed. Stop never fails, even
// when the session could not be fully restored.
func (o *Orchestrator) Stop() {
	if o.session.Waiting() {
		id := o.session.WaitingTaskID
		o.resolveWaiting(context.Background(), domain.TaskFailed)
		o.session.Tasks[id] = domain.TaskFailed
	}
	o.halt(domain.StatusStopped)
}

// Reset returns to idle, discarding all session state.
func (o *Orchestrator) Reset() {
	o.session = domain.NewSession(o.sessionID)
	o.plan = nil
}

// Snapshot returns a copy of the session state.
func (o *Orchestrator) Snapshot() *domain.Session {
	return o.session.Clone()
}

// Plan returns the collection plan of the waiting task, if any.
func (o *Orchestrator) Plan() []domain.PlanEntry {
	return append([]domain.PlanEntry(nil), o.plan...)
}

// Restore replaces the session with a snapshot taken earlier. The graph and
// catalog frozen into the snapshot are used; snapshots without one are bound
// to the provider's current graph.
//
// When the waiting task cannot be matched against the graph the session is
// still installed and an error is returned, so Stop and Reset keep working.
func (o *Orchestrator) Restore(ctx context.Context, snapshot *domain.Session) error {
	if snapshot == nil {
		return fmt.Errorf("cannot restore nil session")
	}
	session := snapshot.Clone()
	if session.Tasks == nil {
		session.Tasks = make(map[string]domain.TaskState)
	}
	if session.Slots == nil {
		session.Slots = make(map[string]*domain.SlotState)
	}
	if session.Values == nil {
		session.Values = make(map[string]map[string]domain.Value)
	}
	if session.Variables == nil {
		session.Variables = make(map[string]any)
	}
	o.session = session
	o.sessionID = session.ID
	o.plan = nil

	switch {
	case session.Flow != nil && session.Flow.Graph != nil:
		o.thaw(session.Flow)
	case o.graph == nil:
		if err := o.freeze(ctx); err != nil {
			return err
		}
		if session.Status != domain.StatusIdle || session.Completed {
			session.Flow = o.flow()
		}
	case o.slots == nil:
		o.install(o.graph, ports.Snapshot(o.translations))
	}

	plan, err := planFor(o.graph, o.session)
	if err != nil {
		return err
	}
	o.plan = plan
	return nil
}

// UpdateGraph swaps the frozen graph, e.g. when a live editor pushes a new
// version. The waiting task's plan is rebuilt from the new definition; if
// the new graph cannot host the waiting task nothing changes.
func (o *Orchestrator) UpdateGraph(g *domain.Graph) error {
	if g == nil {
		return fmt.Errorf("cannot update to nil graph")
	}
	next := g.Clone()
	plan, err := planFor(next, o.session)
	if err != nil {
		return err
	}
	if o.slots == nil {
		o.install(next, ports.Snapshot(o.translations))
	} else {
		o.graph = next
	}
	o.plan = plan
	if o.session.Flow != nil {
		o.session.Flow.Graph = next.Clone()
	}
	return nil
}

func (o *Orchestrator) freeze(ctx context.Context) error {
	g, err := o.provider.Graph(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	o.install(g.Clone(), ports.Snapshot(o.translations))
	return nil
}

func (o *Orchestrator) thaw(f *domain.Flow) {
	f = f.Clone()
	var texts ports.Translations = o.translations
	if f.Texts != nil {
		texts = ports.Catalog(f.Texts)
	}
	o.install(f.Graph, texts)
}

func (o *Orchestrator) install(g *domain.Graph, texts ports.Translations) {
	o.graph = g
	o.texts = texts
	o.resolver = NewResolver(texts)
	o.slots = NewSlotMachine(o.resolver, o.extractor, o.subEscalation)
}

// flow returns what a snapshot carries to replay the frozen definitions.
func (o *Orchestrator) flow() *domain.Flow {
	f := &domain.Flow{Graph: o.graph.Clone()}
	if c, ok := o.texts.(ports.Catalog); ok {
		f.Texts = make(map[string]string, len(c))
		for k, v := range c {
			f.Texts[k] = v
		}
	}
	return f
}

// planFor builds the collection plan of the task session waits on in g.
func planFor(g *domain.Graph, session *domain.Session) ([]domain.PlanEntry, error) {
	if !session.Waiting() {
		return nil, nil
	}
	_, task, ok := g.FindTask(session.WaitingTaskID)
	if !ok {
		return nil, fmt.Errorf("waiting task %q not found in graph", session.WaitingTaskID)
	}
	if err := validator.ValidateTemplate(task.Template); err != nil {
		return nil, err
	}
	plan := BuildPlan(task.Template)
	if session.EntryIndex >= len(plan) {
		return nil, fmt.Errorf("plan cursor %d out of range for task %q", session.EntryIndex, task.ID)
	}
	return plan, nil
}

// halt clears the runtime cursor and moves to status.
func (o *Orchestrator) halt(status domain.Status) {
	o.session.Status = status
	o.session.CurrentNodeID = ""
	o.session.TaskIndex = 0
	o.session.WaitingTaskID = ""
	o.session.EntryIndex = 0
	o.session.Slots = make(map[string]*domain.SlotState)
	o.plan = nil
}

func (o *Orchestrator) turn(t *Turn) Turn {
	if t == nil {
		t = &Turn{}
	}
	t.Status = o.session.Status
	t.Completed = o.session.Completed
	t.WaitingTaskID = o.session.WaitingTaskID
	return *t
}

func (o *Orchestrator) finish(t *Turn, err error) (Turn, error) {
	return o.turn(t), err
}
