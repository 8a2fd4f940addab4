package dsl

import (
	"fmt"

	"github.com/aretw0/slotflow/pkg/domain"
)

type prompt struct {
	text string
	key  string
}

// SlotBuilder describes one data template node.
type SlotBuilder struct {
	id, label string
	kind      domain.Kind
	steps     map[domain.StepType][]prompt
	subs      []*SlotBuilder
}

// Slot starts a data template node.
func Slot(id, label string) *SlotBuilder {
	return &SlotBuilder{id: id, label: label, steps: make(map[domain.StepType][]prompt)}
}

// Kind sets the validation kind. Without it the kind is inferred.
func (s *SlotBuilder) Kind(k domain.Kind) *SlotBuilder {
	s.kind = k
	return s
}

// Step sets literal texts for successive escalation levels of step.
func (s *SlotBuilder) Step(step domain.StepType, texts ...string) *SlotBuilder {
	for _, t := range texts {
		s.steps[step] = append(s.steps[step], prompt{text: t})
	}
	return s
}

// StepKey sets catalog keys for successive escalation levels of step.
func (s *SlotBuilder) StepKey(step domain.StepType, keys ...string) *SlotBuilder {
	for _, k := range keys {
		s.steps[step] = append(s.steps[step], prompt{key: k})
	}
	return s
}

func (s *SlotBuilder) Start(texts ...string) *SlotBuilder {
	return s.Step(domain.StepStart, texts...)
}

func (s *SlotBuilder) NoInput(texts ...string) *SlotBuilder {
	return s.Step(domain.StepNoInput, texts...)
}

func (s *SlotBuilder) NoMatch(texts ...string) *SlotBuilder {
	return s.Step(domain.StepNoMatch, texts...)
}

func (s *SlotBuilder) Confirm(texts ...string) *SlotBuilder {
	return s.Step(domain.StepConfirmation, texts...)
}

func (s *SlotBuilder) Success(texts ...string) *SlotBuilder {
	return s.Step(domain.StepSuccess, texts...)
}

// Sub adds composite parts collected after the main value.
func (s *SlotBuilder) Sub(subs ...*SlotBuilder) *SlotBuilder {
	s.subs = append(s.subs, subs...)
	return s
}

func (s *SlotBuilder) build(b *Builder) *domain.DataTemplateNode {
	n := &domain.DataTemplateNode{ID: s.id, Label: s.label, Kind: s.kind, Steps: domain.StepTable{}}
	for _, step := range domain.StepTypes {
		prompts := s.steps[step]
		if len(prompts) == 0 {
			continue
		}
		levels := make(map[int]string, len(prompts))
		for i, p := range prompts {
			key := p.key
			if key == "" {
				key = fmt.Sprintf("%s.%s.%d", s.id, step, i+1)
				b.catalog[key] = p.text
			}
			levels[i+1] = key
		}
		n.Steps[step] = levels
	}
	for _, sub := range s.subs {
		n.Subs = append(n.Subs, sub.build(b))
	}
	return n
}
