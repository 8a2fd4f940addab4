package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow/internal/presentation/tui"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Styler   *tui.Styler
	// Echo repeats user lines from the turn transcript; off by default since
	// the terminal already shows them.
	Echo bool
	// Interactive is set when input was upgraded to the controlling terminal.
	Interactive bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStyler configures message styling.
func WithTextHandlerStyler(s *tui.Styler) TextHandlerOption {
	return func(h *TextHandler) {
		h.Styler = s
	}
}

// WithTextHandlerEcho prints user messages contained in turns.
func WithTextHandlerEcho(echo bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Echo = echo
	}
}

// NewTextHandler creates a handler for standard text IO. Output is plain
// unless a styler is configured.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	h := &TextHandler{
		Writer: w,
		Styler: tui.NewStyler(termenv.Ascii),
	}
	// On Windows a console stdin is swapped for CONIN$ so Ctrl+C reaches us.
	source, interactive := resolveInputReader(r)
	h.Reader = bufio.NewReader(source)
	h.Interactive = interactive
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor ctx cancellation.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			h.inputChan <- inputResult{err: err}
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, turn runtime.Turn) error {
	for _, msg := range turn.Messages {
		if msg.Direction == domain.DirectionUser && !h.Echo {
			continue
		}
		if msg.Direction == domain.DirectionSystem && h.Renderer != nil {
			if rendered, err := h.Renderer(msg.Text); err == nil {
				msg.Text = strings.TrimSpace(rendered)
			}
		}
		if _, err := fmt.Fprintln(h.Writer, h.Styler.Message(msg)); err != nil {
			return err
		}
	}
	for _, g := range turn.Gaps {
		if _, err := fmt.Fprintln(h.Writer, h.Styler.Gap(g)); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Styler.Prompt())
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimRight(res.text, "\r\n"))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}

// resolveInputReader returns the terminal reader lifecycle opens for r when
// r is a console, or r unchanged.
func resolveInputReader(r io.Reader) (io.Reader, bool) {
	if upgraded, err := lifecycle.UpgradeTerminal(r); err == nil && upgraded != r {
		return upgraded, true
	}
	return r, false
}
