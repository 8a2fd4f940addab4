package dto

import (
	"fmt"
	"strconv"

	"github.com/aretw0/slotflow/pkg/domain"
)

// TemplateNode is the on-disk shape of a template item. Two spellings are
// accepted: the current one (mains/subs/steps/kind) and the legacy one
// (data/subData/messages/type/name).
type TemplateNode struct {
	ID       string         `mapstructure:"id"`
	Label    string         `mapstructure:"label"`
	Name     string         `mapstructure:"name"`
	Kind     string         `mapstructure:"kind"`
	Type     string         `mapstructure:"type"`
	Steps    map[string]any `mapstructure:"steps"`
	Messages map[string]any `mapstructure:"messages"`
	Subs     []TemplateNode `mapstructure:"subs"`
	SubData  []TemplateNode `mapstructure:"subdata"`
}

type template struct {
	ID    string         `mapstructure:"id"`
	Label string         `mapstructure:"label"`
	Mains []TemplateNode `mapstructure:"mains"`
	Data  []TemplateNode `mapstructure:"data"`
}

var stepNames = map[string]domain.StepType{
	"start":        domain.StepStart,
	"ask":          domain.StepStart,
	"noinput":      domain.StepNoInput,
	"nomatch":      domain.StepNoMatch,
	"confirmation": domain.StepConfirmation,
	"confirm":      domain.StepConfirmation,
	"success":      domain.StepSuccess,
}

// DecodeTemplate converts a raw template map. Structural problems such as a
// missing label are left for the validator; only undecodable input fails.
func DecodeTemplate(raw map[string]any) (*domain.DataTemplate, error) {
	var t template
	if err := Decode(raw, &t); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	mains := t.Mains
	if len(mains) == 0 {
		mains = t.Data
	}
	out := &domain.DataTemplate{ID: t.ID, Label: t.Label}
	for i := range mains {
		n, err := convertNode(mains[i])
		if err != nil {
			return nil, err
		}
		out.Mains = append(out.Mains, n)
	}
	return out, nil
}

func convertNode(n TemplateNode) (*domain.DataTemplateNode, error) {
	label := n.Label
	if label == "" {
		label = n.Name
	}
	kind := n.Kind
	if kind == "" {
		kind = n.Type
	}
	steps := n.Steps
	if steps == nil {
		steps = n.Messages
	}
	table, err := decodeSteps(steps)
	if err != nil {
		return nil, fmt.Errorf("template node %s: %w", n.ID, err)
	}

	out := &domain.DataTemplateNode{ID: n.ID, Label: label, Kind: domain.Kind(kind), Steps: table}
	subs := n.Subs
	if len(subs) == 0 {
		subs = n.SubData
	}
	for i := range subs {
		sub, err := convertNode(subs[i])
		if err != nil {
			return nil, err
		}
		out.Subs = append(out.Subs, sub)
	}
	return out, nil
}

// decodeSteps accepts, per step, a single key (level 1), a list of keys
// (levels 1..n) or a level-to-key map.
func decodeSteps(raw map[string]any) (domain.StepTable, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	table := domain.StepTable{}
	for name, v := range raw {
		step, ok := stepNames[normalizeKey(name)]
		if !ok {
			return nil, fmt.Errorf("unknown step %q", name)
		}
		levels, err := decodeLevels(v)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", name, err)
		}
		if len(levels) > 0 {
			table[step] = levels
		}
	}
	return table, nil
}

func decodeLevels(v any) (map[int]string, error) {
	levels := map[int]string{}
	switch val := v.(type) {
	case nil:
	case string:
		if val != "" {
			levels[1] = val
		}
	case []any:
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("level %d is not a string", i+1)
			}
			if s != "" {
				levels[i+1] = s
			}
		}
	case map[string]any:
		for k, item := range val {
			if err := putLevel(levels, k, item); err != nil {
				return nil, err
			}
		}
	case map[any]any:
		for k, item := range val {
			if err := putLevel(levels, fmt.Sprint(k), item); err != nil {
				return nil, err
			}
		}
	case map[int]any:
		for k, item := range val {
			if err := putLevel(levels, strconv.Itoa(k), item); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
	return levels, nil
}

func putLevel(levels map[int]string, k string, item any) error {
	lvl, err := strconv.Atoi(k)
	if err != nil || lvl < 1 {
		return fmt.Errorf("invalid level %q", k)
	}
	s, ok := item.(string)
	if !ok {
		return fmt.Errorf("level %d is not a string", lvl)
	}
	if s != "" {
		levels[lvl] = s
	}
	return nil
}
