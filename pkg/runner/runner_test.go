package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/aretw0/slotflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailCatalog = ports.Catalog{
	"welcome":       "Welcome to **slotflow**",
	"email.start":   "Email?",
	"email.nm":      "Not an email.",
	"email.confirm": "Is {input} right?",
	"email.ok":      "Saved.",
}

func newManager(t *testing.T, store ports.SessionStore) *session.Manager {
	t.Helper()
	provider, err := memory.NewFromNodes(
		domain.FlowNode{ID: "collect", Tasks: []domain.FlowTask{
			{ID: "hello", Kind: domain.TaskMessage, TextKey: "welcome"},
			{ID: "ask_email", Kind: domain.TaskGetData, Template: &domain.DataTemplate{ID: "contact", Mains: []*domain.DataTemplateNode{{
				ID: "email", Label: "Email", Kind: domain.KindEmail,
				Steps: domain.StepTable{
					domain.StepStart:        {1: "email.start"},
					domain.StepNoMatch:      {1: "email.nm"},
					domain.StepConfirmation: {1: "email.confirm"},
					domain.StepSuccess:      {1: "email.ok"},
				},
			}}}},
		}},
		domain.FlowNode{ID: "done", Tasks: []domain.FlowTask{{ID: "bye", Kind: domain.TaskMessage, Text: "Goodbye"}}},
	)
	require.NoError(t, err)
	if store == nil {
		store = memory.NewStore()
	}
	return session.NewManager(store, provider, emailCatalog)
}

func TestRunner_Run_BasicFlow(t *testing.T) {
	in := strings.NewReader("nope\nme@example.com\nyes\n")
	out := &bytes.Buffer{}

	r := New(newManager(t, nil),
		WithSessionID("cli"),
		WithInputHandler(NewTextHandler(in, out)),
	)
	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Completed)
	assert.Equal(t, "me@example.com", snap.Values["ask_email"]["email"].Raw)

	output := out.String()
	for _, want := range []string{"Welcome to **slotflow**", "Email?", "Not an email.", "Is me@example.com right?", "Saved.", "Goodbye", "[System] Session cli completed"} {
		assert.Contains(t, output, want)
	}
}

func TestRunner_Run_EOFLeavesSessionWaiting(t *testing.T) {
	store := memory.NewStore()
	out := &bytes.Buffer{}

	r := New(newManager(t, store), WithSessionID("s1"), WithInputHandler(NewTextHandler(strings.NewReader(""), out)))
	snap, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingUserInput, snap.Status)
	assert.Contains(t, out.String(), "[System] Session s1 waiting_user_input")
}

func TestRunner_Run_Resume(t *testing.T) {
	store := memory.NewStore()
	mgr := newManager(t, store)

	_, err := New(mgr, WithSessionID("s1"), WithInputHandler(NewTextHandler(strings.NewReader("me@example.com\n"), &bytes.Buffer{}))).Run(context.Background())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := New(mgr, WithSessionID("s1"), WithResume(true), WithInputHandler(NewTextHandler(strings.NewReader("ok\n"), out)))
	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Completed)
	assert.Contains(t, out.String(), "Resuming session s1")
	assert.Contains(t, out.String(), "Is me@example.com right?")
	assert.NotContains(t, out.String(), "Welcome")
}

func TestRunner_Run_Commands(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		snap, err := New(newManager(t, nil), WithInputHandler(NewTextHandler(strings.NewReader("/stop\n"), &bytes.Buffer{}))).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusStopped, snap.Status)
	})

	t.Run("skip", func(t *testing.T) {
		snap, err := New(newManager(t, nil), WithInputHandler(NewTextHandler(strings.NewReader("/skip\n"), &bytes.Buffer{}))).Run(context.Background())
		require.NoError(t, err)
		assert.True(t, snap.Completed)
		assert.Equal(t, domain.TaskExecuted, snap.Tasks["ask_email"])
	})

	t.Run("abort", func(t *testing.T) {
		snap, err := New(newManager(t, nil), WithInputHandler(NewTextHandler(strings.NewReader("/abort\n"), &bytes.Buffer{}))).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusStopped, snap.Status)
		assert.Equal(t, domain.TaskFailed, snap.Tasks["ask_email"])
	})
}

func TestRunner_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(newManager(t, nil), WithInputHandler(NewTextHandler(strings.NewReader("me@example.com\n"), &bytes.Buffer{})))
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run_RequiresManager(t *testing.T) {
	_, err := New(nil, WithInputHandler(NewTextHandler(strings.NewReader(""), &bytes.Buffer{}))).Run(context.Background())
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	assert.Equal(t, lifecycle.ShutdownEvent{Reason: "stop"}, route(" /stop "))
	assert.Equal(t, lifecycle.InputEvent{Command: CommandAbort}, route("/abort"))
	assert.Equal(t, lifecycle.LineEvent{Line: "/help"}, route("/help"))
	assert.Equal(t, lifecycle.LineEvent{Line: "a@b.com"}, route("a@b.com"))
}
