package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type liveTable struct{ text string }

func (l *liveTable) Lookup(string) (string, bool) { return l.text, true }
func (l *liveTable) Snapshot() Catalog            { return Catalog{"k": l.text} }

type opaque struct{}

func (opaque) Lookup(string) (string, bool) { return "", false }

func TestSnapshot(t *testing.T) {
	c := Catalog{"k": "v"}
	frozen := Snapshot(c)
	c["k"] = "changed"
	text, _ := frozen.Lookup("k")
	assert.Equal(t, "v", text)

	live := &liveTable{text: "one"}
	frozen = Snapshot(live)
	live.text = "two"
	text, _ = frozen.Lookup("k")
	assert.Equal(t, "one", text)

	assert.Equal(t, opaque{}, Snapshot(opaque{}))
}

func TestLayered(t *testing.T) {
	l := Layered{Catalog{"a": "first"}, nil, Catalog{"a": "second", "b": "base"}}

	text, ok := l.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	text, _ = l.Lookup("b")
	assert.Equal(t, "base", text)

	_, ok = l.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, Catalog{"a": "first", "b": "base"}, Snapshot(l))
}
