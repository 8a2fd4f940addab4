package flowfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/slotflow/pkg/adapters/flowfile"
	"github.com/aretw0/slotflow/pkg/domain"
	contract "github.com/aretw0/slotflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Signup(t *testing.T) {
	flow, err := flowfile.Load(filepath.Join("testdata", "signup.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "signup", flow.Name)
	require.Len(t, flow.Graph.Nodes, 3)
	assert.Equal(t, []domain.Edge{
		{ID: "greet->collect", From: "greet", To: "collect"},
		{ID: "collect->done", From: "collect", To: "done"},
	}, flow.Graph.Edges)

	_, task, ok := flow.Graph.FindTask("ask_contact")
	require.True(t, ok)
	assert.Equal(t, domain.TaskGetData, task.Kind)
	require.Len(t, task.Template.Mains, 2)
	assert.Equal(t, []int{1, 2}, task.Template.Mains[0].Steps.Levels(domain.StepNoMatch))

	_, bye, ok := flow.Graph.FindTask("bye")
	require.True(t, ok)
	assert.Equal(t, "bye", bye.TextKey)

	text, ok := flow.Catalog.Lookup("email.confirm")
	assert.True(t, ok)
	assert.Equal(t, "Is {input} correct?", text)
}

func TestLoad_LegacyJSON(t *testing.T) {
	flow, err := flowfile.Load(filepath.Join("testdata", "legacy.json"))
	require.NoError(t, err)

	_, task, ok := flow.Graph.FindTask("get_name")
	require.True(t, ok)
	main := task.Template.Mains[0]
	assert.Equal(t, "Full name", main.Label)
	require.Len(t, main.Subs, 2)
	assert.False(t, main.Subs[0].Collectible())
	assert.True(t, main.Subs[1].Collectible())
}

func TestParse_Errors(t *testing.T) {
	_, err := flowfile.Parse([]byte(""))
	assert.Error(t, err)

	_, err = flowfile.Parse([]byte("nodes: [{tasks: [{type: message}]}]"))
	assert.Error(t, err)

	_, err = flowfile.Parse([]byte("nodes: ["))
	assert.Error(t, err)
}

func TestProvider_Contract(t *testing.T) {
	p, err := flowfile.NewProvider(filepath.Join("testdata", "signup.yaml"))
	require.NoError(t, err)
	contract.GraphProviderContractTest(t, p, []string{"greet", "collect", "done"})
}

func TestProvider_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes: [{id: a}]\ntranslations: {k: one}\n"), 0644))

	p, err := flowfile.NewProvider(path)
	require.NoError(t, err)
	text, _ := p.Lookup("k")
	assert.Equal(t, "one", text)

	require.NoError(t, os.WriteFile(path, []byte("nodes: [{id: a}, {id: b}]\ntranslations: {k: two}\n"), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	g, err := p.Graph(context.Background())
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	text, _ = p.Lookup("k")
	assert.Equal(t, "two", text)
}
