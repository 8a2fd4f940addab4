package slotflow_test

import (
	"context"
	"fmt"

	"github.com/aretw0/slotflow"
	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

func Example() {
	email := &domain.DataTemplateNode{
		ID:    "email",
		Label: "Email",
		Kind:  domain.KindEmail,
		Steps: domain.StepTable{
			domain.StepStart:        {1: "email.start"},
			domain.StepNoMatch:      {1: "email.nm"},
			domain.StepConfirmation: {1: "email.confirm"},
			domain.StepSuccess:      {1: "email.ok"},
		},
	}
	provider, err := memory.NewFromNodes(domain.FlowNode{ID: "signup", Tasks: []domain.FlowTask{
		{ID: "collect", Kind: domain.TaskGetData, Template: &domain.DataTemplate{ID: "contact", Mains: []*domain.DataTemplateNode{email}}},
	}})
	if err != nil {
		panic(err)
	}
	catalog := ports.Catalog{
		"email.start":   "What is your email?",
		"email.nm":      "That does not look like an email.",
		"email.confirm": "Is {input} correct?",
		"email.ok":      "Saved.",
	}

	ctx := context.Background()
	o := slotflow.New(provider, catalog, slotflow.WithSessionID("example"))

	turn, _ := o.Start(ctx)
	printTurn(turn)
	for _, line := range []string{"nope", "a@b.com", "yes"} {
		turn, _ = o.HandleUserInput(ctx, line)
		printTurn(turn)
	}
	fmt.Println("completed:", turn.Completed)
	fmt.Println("value:", o.Snapshot().Values["collect"]["email"].Raw)
	// Output:
	// What is your email?
	// That does not look like an email.
	// Is a@b.com correct?
	// Saved.
	// completed: true
	// value: a@b.com
}

func printTurn(turn slotflow.Turn) {
	for _, m := range turn.Messages {
		if m.Direction == domain.DirectionSystem {
			fmt.Println(m.Text)
		}
	}
}
