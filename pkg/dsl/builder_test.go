package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupFlow() *Builder {
	b := New()
	b.Text("hi", "Hello, DSL!")
	b.Add("greet").
		SayKey("hi", "hi").
		Ask("collect", Slot("email", "Email").
			Kind(domain.KindEmail).
			Start("What is your email?").
			NoInput("I did not catch that.", "Please type your email.").
			NoMatch("That does not look like an email.").
			Confirm("Is {input} correct?").
			Success("Saved.")).
		Go("bye")
	b.Add("bye").Say("goodbye", "Goodbye!")
	return b
}

func TestBuilder_Graph(t *testing.T) {
	g := signupFlow().Graph()

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "greet", g.Nodes[0].ID)
	assert.Equal(t, []domain.Edge{{ID: "greet-1", From: "greet", To: "bye"}}, g.Edges)
	assert.Equal(t, []string{"greet"}, g.EntryNodes())

	task, _, ok := g.Nodes[0].Task("collect")
	require.True(t, ok)
	assert.Equal(t, domain.TaskGetData, task.Kind)
	email := task.Template.Find("email")
	require.NotNil(t, email)
	assert.Equal(t, map[int]string{1: "email.noInput.1", 2: "email.noInput.2"}, email.Steps[domain.StepNoInput])
}

func TestBuilder_Catalog(t *testing.T) {
	b := signupFlow()
	b.Graph()
	c := b.Catalog()
	assert.Equal(t, "Hello, DSL!", c["hi"])
	assert.Equal(t, "Please type your email.", c["email.noInput.2"])
	assert.Equal(t, "Is {input} correct?", c["email.confirmation.1"])
}

func TestBuilder_RunsDialogue(t *testing.T) {
	provider, catalog, err := signupFlow().Build()
	require.NoError(t, err)

	ctx := context.Background()
	o := runtime.New(provider, catalog, runtime.WithSessionID("dsl"))
	turn, err := o.Start(ctx)
	require.NoError(t, err)
	require.Len(t, turn.Messages, 2)
	assert.Equal(t, "Hello, DSL!", turn.Messages[0].Text)
	assert.Equal(t, "What is your email?", turn.Messages[1].Text)

	turn, err = o.HandleUserInput(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "I did not catch that.", turn.Messages[1].Text)

	turn, err = o.HandleUserInput(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Is a@b.com correct?", turn.Messages[1].Text)

	turn, err = o.HandleUserInput(ctx, "yes")
	require.NoError(t, err)
	assert.True(t, turn.Completed)
	assert.Equal(t, "Goodbye!", turn.Messages[len(turn.Messages)-1].Text)
}

func TestBuilder_BranchAndCall(t *testing.T) {
	b := New()
	b.Add("start").
		Call("lookup", "crm", map[string]any{"id": 1}, "customer").
		Branch("vip", "vip").
		Branch("regular", "regular")
	b.Add("vip").Say("v", "Welcome back!")
	b.Add("regular").Say("r", "Hello.").Terminal()

	g := b.Graph()
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "vip", g.Edges[0].Condition)
	task := g.Nodes[0].Tasks[0]
	assert.Equal(t, domain.TaskBackendCall, task.Kind)
	assert.Equal(t, "customer", task.Call.SaveTo)
	assert.Equal(t, "start", b.Add("start").Build().ID)
}

func TestBuilder_InvalidGraph(t *testing.T) {
	b := New()
	b.Add("start").Go("missing")
	_, _, err := b.Build()
	assert.Error(t, err)
}
