package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/session"
)

// Commands understood by the runner in place of user input.
const (
	CommandStop  = "/stop"
	CommandSkip  = "/skip"
	CommandAbort = "/abort"
)

// Commands maps command lines to the lifecycle events they raise. Any other
// line is a lifecycle.LineEvent carrying user input.
var Commands = map[string]lifecycle.Event{
	CommandStop:  lifecycle.ShutdownEvent{Reason: "stop"},
	CommandSkip:  lifecycle.InputEvent{Command: CommandSkip},
	CommandAbort: lifecycle.InputEvent{Command: CommandAbort},
}

// Runner handles the dialogue loop of a session manager using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	SessionID string
	Resume    bool

	manager *session.Manager
}

// New creates a Runner over manager. Without WithInputHandler it talks to
// Stdin/Stdout in text mode.
func New(manager *session.Manager, opts ...Option) *Runner {
	r := &Runner{manager: manager}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run starts or resumes the session and exchanges lines until the flow
// stops waiting, input ends or ctx is cancelled. It returns the final
// session snapshot. A configuration error halting the flow is returned
// after its turn has been printed.
func (r *Runner) Run(ctx context.Context) (*domain.Session, error) {
	if r.manager == nil {
		return nil, errors.New("runner: session manager is required")
	}

	turn, err := r.begin(ctx)
	if err != nil && !domain.IsConfigError(err) {
		return nil, err
	}
	if outErr := r.Handler.Output(ctx, turn); outErr != nil {
		return nil, outErr
	}
	if err != nil {
		return r.finish(ctx, err)
	}

	for turn.Status == domain.StatusWaitingUserInput {
		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("input closed", "session_id", r.SessionID)
				return r.finish(ctx, nil)
			}
			return nil, err
		}

		turn, err = r.step(ctx, turn, line)
		if err != nil && !domain.IsConfigError(err) {
			return nil, err
		}
		if outErr := r.Handler.Output(ctx, turn); outErr != nil {
			return nil, outErr
		}
		if err != nil {
			return r.finish(ctx, err)
		}
	}
	return r.finish(ctx, nil)
}

func (r *Runner) begin(ctx context.Context) (runtime.Turn, error) {
	if r.Resume && r.SessionID != "" {
		snap, err := r.manager.Load(ctx, r.SessionID)
		switch {
		case err == nil && snap.Waiting():
			r.Logger.Info("resuming session", "session_id", r.SessionID, "task_id", snap.WaitingTaskID)
			if err := r.Handler.SystemOutput(ctx, fmt.Sprintf("Resuming session %s", r.SessionID)); err != nil {
				return runtime.Turn{}, err
			}
			return runtime.Turn{
				Messages:      pendingPrompt(snap.Transcript),
				Status:        snap.Status,
				WaitingTaskID: snap.WaitingTaskID,
			}, nil
		case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
			return runtime.Turn{}, err
		}
	}

	id, turn, err := r.manager.Start(ctx, r.SessionID)
	r.SessionID = id
	return turn, err
}

func (r *Runner) step(ctx context.Context, turn runtime.Turn, line string) (runtime.Turn, error) {
	next := turn
	handle := lifecycle.HandlerFunc(func(ctx context.Context, e lifecycle.Event) error {
		var err error
		switch ev := e.(type) {
		case lifecycle.ShutdownEvent:
			next, err = r.manager.Stop(ctx, r.SessionID)
		case lifecycle.InputEvent:
			outcome := domain.OutcomeSaturated
			if ev.Command == CommandAbort {
				outcome = domain.OutcomeAborted
			}
			next, err = r.manager.Complete(ctx, r.SessionID, turn.WaitingTaskID, outcome)
		case lifecycle.LineEvent:
			next, err = r.manager.Input(ctx, r.SessionID, ev.Line)
		default:
			return lifecycle.ErrNotHandled
		}
		return err
	})
	err := handle(ctx, route(line))
	return next, err
}

func route(line string) lifecycle.Event {
	if ev, ok := Commands[strings.TrimSpace(line)]; ok {
		return ev
	}
	return lifecycle.LineEvent{Line: line}
}

func (r *Runner) finish(ctx context.Context, runErr error) (*domain.Session, error) {
	snap, err := r.manager.Load(ctx, r.SessionID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Session %s %s", r.SessionID, snap.Status)
	if snap.Completed {
		msg = fmt.Sprintf("Session %s completed", r.SessionID)
	}
	if snap.Failure != nil {
		msg = fmt.Sprintf("%s: %s", msg, snap.Failure)
	}
	if err := r.Handler.SystemOutput(ctx, msg); err != nil {
		return snap, err
	}
	return snap, runErr
}

// pendingPrompt returns the system messages emitted after the last user line.
func pendingPrompt(transcript []domain.Message) []domain.Message {
	i := len(transcript)
	for i > 0 && transcript[i-1].Direction != domain.DirectionUser {
		i--
	}
	return append([]domain.Message(nil), transcript[i:]...)
}
