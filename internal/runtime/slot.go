package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// DefaultMaxEscalation caps counters when a step has no configured level.
const DefaultMaxEscalation = 3

// SlotResult describes what one slot transition produced.
type SlotResult struct {
	Messages []domain.Message
	Gaps     []domain.ResolutionGap
	From     domain.SlotPhase
	To       domain.SlotPhase
	Step     domain.StepType
	Level    int
	// Advanced is set on Success; the caller moves to the next plan entry.
	Advanced bool
}

// SlotMachine applies the per-slot transition rules. It holds no session
// state; the caller owns the SlotState it passes in.
type SlotMachine struct {
	resolver      *Resolver
	extractor     ports.Extractor
	subEscalation bool
}

// NewSlotMachine creates a slot machine. With subEscalation unset, NoInput
// and NoMatch messages are always resolved on the entry's main item.
func NewSlotMachine(resolver *Resolver, extractor ports.Extractor, subEscalation bool) *SlotMachine {
	return &SlotMachine{resolver: resolver, extractor: extractor, subEscalation: subEscalation}
}

// Open emits the start message of entry.
func (m *SlotMachine) Open(entry domain.PlanEntry) SlotResult {
	res := SlotResult{From: domain.PhaseCollecting, To: domain.PhaseCollecting, Step: domain.StepStart, Level: 1}
	m.emit(&res, entry.Target(), domain.StepStart, 1, nil, false)
	return res
}

// ProcessInput applies raw to state and returns the produced messages.
// state is mutated in place. An error means the extractor failed and
// state is left untouched.
func (m *SlotMachine) ProcessInput(ctx context.Context, entry domain.PlanEntry, state *domain.SlotState, raw string) (SlotResult, error) {
	res := SlotResult{From: state.Phase}
	input := strings.TrimSpace(raw)

	switch state.Phase {
	case domain.PhaseSuccess:
		res.To = state.Phase
		return res, nil

	case domain.PhaseConfirming:
		if input == "" {
			m.escalate(&res, entry, state, domain.StepNoInput)
			// the value stays pending confirmation
			state.Phase = domain.PhaseConfirming
			res.To = state.Phase
			return res, nil
		}
		// no rejection branch: any answer accepts the captured value
		state.Phase = domain.PhaseSuccess
		res.To, res.Step, res.Level, res.Advanced = state.Phase, domain.StepSuccess, 1, true
		m.emit(&res, entry.Target(), domain.StepSuccess, 1, state.Value, false)
		return res, nil
	}

	if input == "" {
		m.escalate(&res, entry, state, domain.StepNoInput)
		res.To = state.Phase
		return res, nil
	}

	verdict, err := m.extractor.Extract(ctx, entry.Kind, input)
	if err != nil {
		return SlotResult{}, fmt.Errorf("extractor failed for %s: %w", entry.Key(), err)
	}
	if !verdict.Matched {
		m.escalate(&res, entry, state, domain.StepNoMatch)
		res.To = state.Phase
		return res, nil
	}

	value := verdict.Value
	if value == nil {
		value = &domain.Value{Raw: input}
	}
	state.Value = value
	state.Phase = domain.PhaseConfirming
	res.To, res.Step, res.Level = state.Phase, domain.StepConfirmation, 1
	m.emit(&res, entry.Target(), domain.StepConfirmation, 1, value, true)
	return res, nil
}

// escalationNode returns the node NoInput/NoMatch messages are read from.
func (m *SlotMachine) escalationNode(entry domain.PlanEntry) *domain.DataTemplateNode {
	if m.subEscalation && entry.Sub != nil {
		return entry.Sub
	}
	return entry.Main
}

func (m *SlotMachine) escalate(res *SlotResult, entry domain.PlanEntry, state *domain.SlotState, step domain.StepType) {
	node := m.escalationNode(entry)
	limit := node.Steps.MaxLevel(step)
	if limit == 0 {
		limit = DefaultMaxEscalation
	}

	counter := &state.NoMatch
	state.Phase = domain.PhaseNoMatch
	if step == domain.StepNoInput {
		counter = &state.NoInput
		state.Phase = domain.PhaseNoInput
	}
	if *counter < limit {
		*counter++
	}

	res.Step, res.Level = step, *counter
	m.emit(res, node, step, *counter, state.Value, false)
}

func (m *SlotMachine) emit(res *SlotResult, node *domain.DataTemplateNode, step domain.StepType, level int, value *domain.Value, prepend bool) {
	r := m.resolver.Resolve(node, step, level)
	if !r.Found {
		res.Gaps = append(res.Gaps, domain.ResolutionGap{NodeID: node.ID, Step: step, Level: level})
		return
	}
	msg := domain.Message{
		Direction:   domain.DirectionSystem,
		Text:        Substitute(r.Text, value, prepend),
		Step:        step,
		Level:       r.Level,
		NodeID:      node.ID,
		TemplateKey: r.TemplateKey,
	}
	if value != nil && step != domain.StepNoMatch && step != domain.StepNoInput {
		msg.Values = valueFields(value)
	}
	res.Messages = append(res.Messages, msg)
}

func valueFields(v *domain.Value) map[string]string {
	out := map[string]string{"input": v.Raw}
	for k, f := range v.Fields {
		out[k] = f
	}
	return out
}
