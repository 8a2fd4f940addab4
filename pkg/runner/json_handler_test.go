package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	err := handler.Output(context.Background(), runtime.Turn{
		Messages:      []domain.Message{{Direction: domain.DirectionSystem, Text: "Email?", Step: domain.StepStart, Level: 1}},
		Status:        domain.StatusWaitingUserInput,
		WaitingTaskID: "ask_email",
	})
	require.NoError(t, err)
	require.NoError(t, handler.SystemOutput(context.Background(), "bye"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "turn", ev.Type)
	require.NotNil(t, ev.Turn)
	assert.Equal(t, "ask_email", ev.Turn.WaitingTaskID)
	assert.Equal(t, "Email?", ev.Turn.Messages[0].Text)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "system", ev.Type)
	assert.Equal(t, "bye", ev.Message)
}

func TestJSONHandler_Input(t *testing.T) {
	in := strings.Join([]string{
		`"quoted value"`,
		`{"text":"from object"}`,
		`{"command":"stop"}`,
		`plain text`,
	}, "\n")
	handler := NewJSONHandler(strings.NewReader(in), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"quoted value", "from object", CommandStop, "plain text"} {
		got, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_InputSanitizes(t *testing.T) {
	handler := NewJSONHandler(strings.NewReader(`"a\u0007b"`+"\n"), &bytes.Buffer{})
	got, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}
