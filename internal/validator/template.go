package validator

import (
	"fmt"

	"github.com/aretw0/slotflow/pkg/domain"
)

// ValidateTemplate checks that a GetData template can drive a dialogue.
// The returned error, if any, is a *domain.ConfigError.
func ValidateTemplate(t *domain.DataTemplate) error {
	if t == nil {
		return &domain.ConfigError{Code: domain.CodeMissingTemplate, Reason: "task has no data template"}
	}
	for i, main := range t.Mains {
		if main == nil {
			return &domain.ConfigError{Code: domain.CodeMissingTemplate, Reason: fmt.Sprintf("main item %d is empty", i)}
		}
		if main.Label == "" {
			return &domain.ConfigError{Code: domain.CodeMissingLabel, TemplateNodeID: main.ID, Reason: "main item has no label"}
		}
		if err := checkSteps(main); err != nil {
			return err
		}
		for _, sub := range main.Subs {
			if sub == nil || !sub.Collectible() {
				continue
			}
			if sub.Label == "" {
				return &domain.ConfigError{Code: domain.CodeMissingLabel, TemplateNodeID: sub.ID, Reason: "sub item has no label"}
			}
			if err := checkSteps(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkSteps requires a start prompt on every collectible node.
func checkSteps(n *domain.DataTemplateNode) error {
	if !n.Collectible() {
		return nil
	}
	if len(n.Steps.Levels(domain.StepStart)) == 0 {
		return &domain.ConfigError{
			Code:           domain.CodeNoUsableSteps,
			TemplateNodeID: n.ID,
			Reason:         fmt.Sprintf("item %q has steps but no %s message", n.Label, domain.StepStart),
		}
	}
	return nil
}
