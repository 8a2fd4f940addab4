package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/slotflow/internal/codec"
	"github.com/aretw0/slotflow/internal/runtime"
)

// Event is one NDJSON line written by JSONHandler.
type Event struct {
	Type    string        `json:"type"`
	Turn    *runtime.Turn `json:"turn,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Input is the object form of a JSON input line. A bare JSON string or
// plain text is accepted as well.
type Input struct {
	Text    string `json:"text"`
	Command string `json:"command,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader *bufio.Reader
	Writer io.Writer
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	return &JSONHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
}

func (h *JSONHandler) emit(ev Event) error {
	data, err := codec.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	data = append(data, '\n')
	_, err = h.Writer.Write(data)
	return err
}

func (h *JSONHandler) Output(ctx context.Context, turn runtime.Turn) error {
	return h.emit(Event{Type: "turn", Turn: &turn})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Event{Type: "system", Message: msg})
}

// Input reads one line. Commands may be sent as {"command":"stop"}.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := codec.Unmarshal([]byte(text), &val); err == nil {
		return SanitizeInput(val)
	}
	var in Input
	if strings.HasPrefix(text, "{") {
		if err := codec.Unmarshal([]byte(text), &in); err == nil {
			if in.Command != "" {
				return "/" + strings.TrimPrefix(in.Command, "/"), nil
			}
			return SanitizeInput(in.Text)
		}
	}
	return SanitizeInput(text)
}
