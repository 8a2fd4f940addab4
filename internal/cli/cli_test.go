package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"

	"github.com/aretw0/slotflow/internal/config"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowYAML = `
name: newsletter
translations:
  hi: "Hi there."
  email.start: "Your email?"
  email.confirm: "Use {input}?"
  email.ok: "Subscribed."
nodes:
  - id: greet
    tasks:
      - id: hi
        type: message
        textKey: hi
      - id: ask_email
        type: getData
        template:
          mains:
            - id: email
              label: Email
              kind: email
              steps:
                start: email.start
                confirmation: email.confirm
                success: email.ok
    transitions:
      - to: bye
  - id: bye
    tasks:
      - id: bye
        type: message
        text: "See you."
  - id: orphan
    transitions:
      - to: orphan
`

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	dir := t.TempDir()
	flow := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(flow, []byte(flowYAML), 0644))

	cfg := config.Default()
	cfg.Flow = flow
	cfg.Store.Path = filepath.Join(dir, "sessions")
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	app, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestRunSession_TextMode(t *testing.T) {
	app := newTestApp(t, nil)
	out := &bytes.Buffer{}

	err := RunSession(context.Background(), app, RunOptions{
		SessionID: "cli-1",
		In:        strings.NewReader("ann@example.com\nyes\n"),
		Out:       out,
	})
	require.NoError(t, err)

	for _, want := range []string{"Hi there.", "Your email?", "Use ann@example.com?", "Subscribed.", "See you."} {
		assert.Contains(t, out.String(), want)
	}

	snap, err := app.Manager.Load(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.True(t, snap.Completed)
}

func TestRunSession_JSONModeWithFileStore(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.Store.Kind = config.StoreFile })
	out := &bytes.Buffer{}

	err := RunSession(context.Background(), app, RunOptions{
		SessionID: "json-1",
		JSON:      true,
		In:        strings.NewReader(`"ann@example.com"` + "\n"),
		Out:       out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"type":"turn"`)

	_, err = os.Stat(filepath.Join(app.Config.Store.Path, "json-1.json"))
	assert.NoError(t, err)

	snap, err := app.Manager.Load(context.Background(), "json-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingUserInput, snap.Status)
}

func TestNewApp_SQLiteStore(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Store.Kind = config.StoreSQLite
		c.Store.Path = filepath.Join(t.TempDir(), "sessions.db")
	})
	_, _, err := app.Manager.Start(context.Background(), "db-1")
	require.NoError(t, err)

	ids, err := app.Manager.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"db-1"}, ids)
}

func TestNewApp_ProtectedStore(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Store.Kind = config.StoreFile
		c.Store.EncryptionKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
		c.Store.Mask = []string{"^email$"}
	})
	err := RunSession(context.Background(), app, RunOptions{
		SessionID: "secret-1",
		In:        strings.NewReader("ann@example.com\nyes\n"),
		Out:       &bytes.Buffer{},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(app.Config.Store.Path, "secret-1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ann@example.com")
	assert.Contains(t, string(data), "__encrypted__")

	snap, err := app.Manager.Load(context.Background(), "secret-1")
	require.NoError(t, err)
	assert.True(t, snap.Completed)
	assert.Equal(t, "***", snap.Values["ask_email"]["email"].Raw)
}

func TestNewApp_ProcessBackend(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	flow := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(flow, []byte(`
nodes:
  - id: lookup
    tasks:
      - id: fetch
        type: backendCall
        call:
          name: plan
          args: {tier: gold}
          saveTo: plan
`), 0644))
	backends := filepath.Join(dir, "backends.yaml")
	require.NoError(t, os.WriteFile(backends, []byte(`
backends:
  - name: plan
    command: sh
    args: ['-c', 'printf ''{"tier": "%s"}'' "$SLOTFLOW_ARG_TIER"']
`), 0644))

	cfg := config.Default()
	cfg.Flow = flow
	cfg.Runtime.Backends = backends
	app, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Backends)

	_, turn, err := app.Manager.Start(context.Background(), "b-1")
	require.NoError(t, err)
	assert.True(t, turn.Completed)

	snap, err := app.Manager.Load(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tier": "gold"}, snap.Variables["plan"])
}

func TestNewApp_MissingFlow(t *testing.T) {
	cfg := config.Default()
	cfg.Flow = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewApp(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestValidate_ReportsUnreachable(t *testing.T) {
	app := newTestApp(t, nil)
	out := &bytes.Buffer{}

	require.NoError(t, Validate(context.Background(), app, out))
	assert.Contains(t, out.String(), `node "orphan" is unreachable`)
}

func TestPlan(t *testing.T) {
	app := newTestApp(t, nil)
	out := &bytes.Buffer{}

	require.NoError(t, Plan(context.Background(), app, out, ""))
	assert.Contains(t, out.String(), "ask_email")
	assert.Contains(t, out.String(), "Email")

	assert.Error(t, Plan(context.Background(), app, &bytes.Buffer{}, "nope"))
}

func TestGraph_WithOverlay(t *testing.T) {
	app := newTestApp(t, nil)
	_, _, err := app.Manager.Start(context.Background(), "g-1")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	require.NoError(t, Graph(context.Background(), app, out, "g-1"))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "greet")

	assert.ErrorIs(t, Graph(context.Background(), app, &bytes.Buffer{}, "missing"), domain.ErrSessionNotFound)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("", "other.yaml", "msgs", config.StoreFile)
	require.NoError(t, err)
	assert.Equal(t, "other.yaml", cfg.Flow)
	assert.Equal(t, "msgs", cfg.Catalog)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)

	_, err = LoadConfig("", "", "", "bogus")
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(nil))
	assert.Error(t, handleExecutionError(assert.AnError))
}
