package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, domain.Kind, string) (ports.Verdict, error) {
	return ports.Verdict{}, errors.New("model offline")
}

func emailEntry() domain.PlanEntry {
	main := &domain.DataTemplateNode{
		ID:    "email",
		Label: "Email",
		Kind:  domain.KindEmail,
		Steps: domain.StepTable{
			domain.StepStart:        {1: "email.start"},
			domain.StepNoInput:      {1: "email.ni.1", 2: "email.ni.2"},
			domain.StepNoMatch:      {1: "email.nm.1"},
			domain.StepConfirmation: {1: "email.confirm"},
			domain.StepSuccess:      {1: "email.ok"},
		},
	}
	return domain.PlanEntry{Main: main, Label: main.Label, Kind: domain.KindEmail}
}

func emailCatalog() ports.Catalog {
	return ports.Catalog{
		"email.start":   "What is your email?",
		"email.ni.1":    "I did not catch that.",
		"email.ni.2":    "Please type your email address.",
		"email.nm.1":    "That does not look like an email.",
		"email.confirm": "Is {input} correct?",
		"email.ok":      "Saved.",
	}
}

func newMachine(extractor ports.Extractor) *SlotMachine {
	return NewSlotMachine(NewResolver(emailCatalog()), extractor, false)
}

func TestSlotMachine_Open(t *testing.T) {
	res := newMachine(validator.Builtin{}).Open(emailEntry())
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "What is your email?", res.Messages[0].Text)
	assert.Equal(t, domain.StepStart, res.Messages[0].Step)
	assert.Equal(t, 1, res.Messages[0].Level)
}

func TestSlotMachine_CountersStayWithinLevels(t *testing.T) {
	ctx := context.Background()
	m := newMachine(validator.Builtin{})
	entry := emailEntry()
	state := domain.NewSlotState()

	levels := []int{}
	for i := 0; i < 5; i++ {
		res, err := m.ProcessInput(ctx, entry, state, "  ")
		require.NoError(t, err)
		require.Len(t, res.Messages, 1)
		levels = append(levels, res.Messages[0].Level)
	}
	assert.Equal(t, []int{1, 2, 2, 2, 2}, levels)
	assert.Equal(t, 2, state.NoInput)
	assert.Equal(t, 0, state.NoMatch)
	assert.Equal(t, domain.PhaseNoInput, state.Phase)

	// a single noMatch level caps the counter at 1
	for i := 0; i < 3; i++ {
		_, err := m.ProcessInput(ctx, entry, state, "nope")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, state.NoMatch)
	assert.Equal(t, 2, state.NoInput)
	assert.Equal(t, domain.PhaseNoMatch, state.Phase)
}

func TestSlotMachine_DefaultCapWithoutLevels(t *testing.T) {
	entry := emailEntry()
	delete(entry.Main.Steps, domain.StepNoMatch)
	m := newMachine(validator.Builtin{})
	state := domain.NewSlotState()

	for i := 0; i < DefaultMaxEscalation+2; i++ {
		res, err := m.ProcessInput(context.Background(), entry, state, "nope")
		require.NoError(t, err)
		assert.Empty(t, res.Messages)
		require.Len(t, res.Gaps, 1)
		assert.Equal(t, domain.StepNoMatch, res.Gaps[0].Step)
	}
	assert.Equal(t, DefaultMaxEscalation, state.NoMatch)
}

func TestSlotMachine_ConfirmThenSucceed(t *testing.T) {
	ctx := context.Background()
	m := newMachine(validator.Builtin{})
	entry := emailEntry()
	state := domain.NewSlotState()

	res, err := m.ProcessInput(ctx, entry, state, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseConfirming, state.Phase)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Is a@b.com correct?", res.Messages[0].Text)
	assert.Equal(t, "a@b.com", res.Messages[0].Values["input"])

	// silence while confirming escalates but keeps the captured value
	res, err = m.ProcessInput(ctx, entry, state, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseConfirming, state.Phase)
	assert.Equal(t, domain.StepNoInput, res.Step)
	require.NotNil(t, state.Value)

	res, err = m.ProcessInput(ctx, entry, state, "yes")
	require.NoError(t, err)
	assert.True(t, res.Advanced)
	assert.Equal(t, domain.PhaseSuccess, state.Phase)
	assert.Equal(t, "Saved.", res.Messages[0].Text)

	res, err = m.ProcessInput(ctx, entry, state, "again")
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Empty(t, res.Messages)
}

func TestSlotMachine_ExtractorErrorLeavesStateUntouched(t *testing.T) {
	m := newMachine(failingExtractor{})
	state := domain.NewSlotState()

	_, err := m.ProcessInput(context.Background(), emailEntry(), state, "a@b.com")
	require.Error(t, err)
	assert.Equal(t, domain.NewSlotState(), state)
}

func TestSlotMachine_SubEscalation(t *testing.T) {
	main := &domain.DataTemplateNode{
		ID: "dob", Label: "date of birth",
		Steps: domain.StepTable{domain.StepStart: {1: "dob.start"}, domain.StepNoMatch: {1: "dob.nm"}},
	}
	sub := &domain.DataTemplateNode{
		ID: "day", Label: "day",
		Steps: domain.StepTable{domain.StepStart: {1: "day.start"}, domain.StepNoMatch: {1: "day.nm"}},
	}
	main.Subs = []*domain.DataTemplateNode{sub}
	entry := domain.PlanEntry{Main: main, Sub: sub, Label: "day", Kind: domain.KindDay}
	catalog := ports.Catalog{"dob.nm": "Invalid date.", "day.nm": "Invalid day."}

	onMain := NewSlotMachine(NewResolver(catalog), validator.Builtin{}, false)
	res, err := onMain.ProcessInput(context.Background(), entry, domain.NewSlotState(), "45")
	require.NoError(t, err)
	assert.Equal(t, "Invalid date.", res.Messages[0].Text)
	assert.Equal(t, "dob", res.Messages[0].NodeID)

	onSub := NewSlotMachine(NewResolver(catalog), validator.Builtin{}, true)
	res, err = onSub.ProcessInput(context.Background(), entry, domain.NewSlotState(), "45")
	require.NoError(t, err)
	assert.Equal(t, "Invalid day.", res.Messages[0].Text)
}
