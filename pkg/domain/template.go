package domain

import "sort"

// StepType names a conversational step of a slot.
type StepType string

const (
	StepStart        StepType = "start"
	StepNoInput      StepType = "noInput"
	StepNoMatch      StepType = "noMatch"
	StepConfirmation StepType = "confirmation"
	StepSuccess      StepType = "success"
)

// StepTypes lists every step type in authoring order.
var StepTypes = []StepType{StepStart, StepNoInput, StepNoMatch, StepConfirmation, StepSuccess}

// StepTable maps a step type to its escalation levels (1-based) and the
// translation key configured for each level.
type StepTable map[StepType]map[int]string

// Key returns the template key configured for step at level.
func (t StepTable) Key(step StepType, level int) (string, bool) {
	levels, ok := t[step]
	if !ok {
		return "", false
	}
	key, ok := levels[level]
	return key, ok && key != ""
}

// Levels returns the configured levels of step in ascending order.
func (t StepTable) Levels(step StepType) []int {
	levels := make([]int, 0, len(t[step]))
	for lvl, key := range t[step] {
		if key != "" {
			levels = append(levels, lvl)
		}
	}
	sort.Ints(levels)
	return levels
}

// MaxLevel returns the highest configured level of step, or 0.
func (t StepTable) MaxLevel(step StepType) int {
	levels := t.Levels(step)
	if len(levels) == 0 {
		return 0
	}
	return levels[len(levels)-1]
}

// HasAny reports whether at least one step type has a non-empty entry.
func (t StepTable) HasAny() bool {
	for _, levels := range t {
		for _, key := range levels {
			if key != "" {
				return true
			}
		}
	}
	return false
}

// DataTemplateNode represents one piece of information to collect.
// Nodes are read-only during execution.
type DataTemplateNode struct {
	ID    string              `json:"id" yaml:"id"`
	Label string              `json:"label" yaml:"label"`
	Kind  Kind                `json:"kind,omitempty" yaml:"kind,omitempty"`
	Steps StepTable           `json:"steps,omitempty" yaml:"steps,omitempty"`
	Subs  []*DataTemplateNode `json:"subs,omitempty" yaml:"subs,omitempty"`
}

// Collectible reports whether the node can be asked about.
func (n *DataTemplateNode) Collectible() bool {
	return n != nil && n.Steps.HasAny()
}

// DataTemplate is the tree of main items a GetData task collects.
type DataTemplate struct {
	ID    string              `json:"id" yaml:"id"`
	Label string              `json:"label,omitempty" yaml:"label,omitempty"`
	Mains []*DataTemplateNode `json:"mains" yaml:"mains"`
}

// Find returns the node with the given ID, searching mains and subs.
func (t *DataTemplate) Find(id string) *DataTemplateNode {
	if t == nil {
		return nil
	}
	for _, main := range t.Mains {
		if main == nil {
			continue
		}
		if main.ID == id {
			return main
		}
		for _, sub := range main.Subs {
			if sub != nil && sub.ID == id {
				return sub
			}
		}
	}
	return nil
}
