package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Mask replaces sensitive values in stored snapshots.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMasking returns a middleware that masks captured values whose slot
// key matches one of the patterns, along with the confirmation and user
// messages that echoed them. Backend variables are matched by name.
//
// Masking is lossy: a masked session resumes with "***" as its value.
func NewPIIMasking(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	// the orchestrator keeps using the original
	masked := session.Clone()

	secrets := make(map[string]bool)
	for _, values := range masked.Values {
		for key, v := range values {
			if !m.sensitive(key) {
				continue
			}
			secrets[v.Raw] = true
			values[key] = maskValue(v)
		}
	}
	for key, slot := range masked.Slots {
		if m.sensitive(key) && slot.Value != nil {
			secrets[slot.Value.Raw] = true
			v := maskValue(*slot.Value)
			slot.Value = &v
		}
	}
	for key := range masked.Variables {
		if m.sensitive(key) {
			masked.Variables[key] = Mask
		}
	}
	for i, msg := range masked.Transcript {
		if msg.Direction == domain.DirectionUser && secrets[msg.Text] {
			masked.Transcript[i].Text = Mask
			continue
		}
		if input, ok := msg.Values["input"]; ok && secrets[input] {
			masked.Transcript[i].Text = Mask
			masked.Transcript[i].Values = nil
		}
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) sensitive(key string) bool {
	if key == "" {
		return false
	}
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func maskValue(v domain.Value) domain.Value {
	out := domain.Value{Raw: Mask}
	if len(v.Fields) > 0 {
		out.Fields = make(map[string]string, len(v.Fields))
		for k := range v.Fields {
			out.Fields[k] = Mask
		}
	}
	return out
}
