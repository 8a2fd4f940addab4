// Package process implements ports.Backend by running allow-listed local
// commands. Call arguments reach the command as SLOTFLOW_ARG_<NAME>
// environment variables, never as command-line flags. Standard output is the
// result: parsed as JSON when it looks like an object or array, otherwise
// returned as trimmed text. A non-zero exit fails the call.
package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/slotflow/internal/codec"
	"github.com/aretw0/slotflow/pkg/domain"
)

// EnvPrefix prefixes every argument variable.
const EnvPrefix = "SLOTFLOW_ARG_"

// Runner executes registered commands.
type Runner struct {
	registry map[string]Config
	baseDir  string
	timeout  time.Duration
}

// Option configures the runner.
type Option func(*Runner)

// WithConfigs registers every command in cfgs.
func WithConfigs(cfgs []Config) Option {
	return func(r *Runner) {
		for _, c := range cfgs {
			if c.Name != "" {
				r.registry[c.Name] = c
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds each call. Zero means only the caller's context applies.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a process runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{registry: make(map[string]Config)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = Config{Name: name, Command: command, Args: args}
}

// Names lists the registered commands, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for n := range r.registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call runs the command registered under call.Name.
func (r *Runner) Call(ctx context.Context, session *domain.Session, call domain.BackendCall) (any, error) {
	proc, ok := r.registry[call.Name]
	if !ok {
		return nil, fmt.Errorf("backend not registered: %s", call.Name)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), r.environment(proc, session, call)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseOutput(stdout.String()), nil
}

func (r *Runner) environment(proc Config, session *domain.Session, call domain.BackendCall) []string {
	env := make([]string, 0, len(proc.Environment)+len(call.Args)+1)
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	if session != nil {
		env = append(env, "SLOTFLOW_SESSION_ID="+session.ID)
	}
	for k, v := range call.Args {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+formatArg(v))
	}
	return env
}

func formatArg(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if data, err := codec.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

func parseOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var parsed any
		if err := codec.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return trimmed
}
