package runtime

import (
	"strings"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Resolution is the outcome of a message lookup. Level is the level the
// text was actually found at; Found=false means an authoring gap.
type Resolution struct {
	Text        string
	TemplateKey string
	Level       int
	Found       bool
}

// Resolver turns a node step and escalation level into display text.
type Resolver struct {
	translations ports.Translations
}

// NewResolver creates a resolver over a translation table.
func NewResolver(translations ports.Translations) *Resolver {
	if translations == nil {
		translations = ports.Catalog{}
	}
	return &Resolver{translations: translations}
}

// Resolve looks up step at level, falling back to lower levels down to 1.
// It never fabricates text: when nothing resolves the result is empty.
func (r *Resolver) Resolve(node *domain.DataTemplateNode, step domain.StepType, level int) Resolution {
	if node == nil {
		return Resolution{}
	}
	if level < 1 {
		level = 1
	}
	for lvl := level; lvl >= 1; lvl-- {
		key, ok := node.Steps.Key(step, lvl)
		if !ok {
			continue
		}
		text, ok := r.translations.Lookup(key)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		return Resolution{Text: text, TemplateKey: key, Level: lvl, Found: true}
	}
	return Resolution{}
}

// Text looks up a plain key, as used by message tasks.
func (r *Resolver) Text(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	text, ok := r.translations.Lookup(key)
	return text, ok && strings.TrimSpace(text) != ""
}
