package runtime

import (
	"testing"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ask(key string) domain.StepTable {
	return domain.StepTable{domain.StepStart: {1: key}}
}

func TestBuildPlan_CompositeDate(t *testing.T) {
	tpl := &domain.DataTemplate{
		ID: "profile",
		Mains: []*domain.DataTemplateNode{{
			ID:    "dob",
			Label: "date of birth",
			Steps: ask("dob.start"),
			Subs: []*domain.DataTemplateNode{
				{ID: "day", Label: "day", Steps: ask("day.start")},
				{ID: "month", Label: "month", Steps: ask("month.start")},
				{ID: "year", Label: "year", Steps: ask("year.start")},
			},
		}},
	}

	plan := BuildPlan(tpl)
	require.Len(t, plan, 4)

	assert.Equal(t, "dob", plan[0].Key())
	assert.Equal(t, domain.KindDate, plan[0].Kind)
	assert.Nil(t, plan[0].Sub)

	want := []struct {
		key  string
		kind domain.Kind
	}{
		{"dob/day", domain.KindDay},
		{"dob/month", domain.KindMonth},
		{"dob/year", domain.KindYear},
	}
	for i, w := range want {
		entry := plan[i+1]
		assert.Equal(t, w.key, entry.Key())
		assert.Equal(t, w.kind, entry.Kind)
		assert.Same(t, tpl.Mains[0], entry.Main)
	}
}

func TestBuildPlan_SkipsItemsWithoutSteps(t *testing.T) {
	tpl := &domain.DataTemplate{Mains: []*domain.DataTemplateNode{
		{ID: "group", Label: "Contact", Subs: []*domain.DataTemplateNode{
			{ID: "email", Label: "email", Steps: ask("email.start")},
			{ID: "notes", Label: "notes"},
		}},
		{ID: "phone", Label: "phone"},
	}}

	plan := BuildPlan(tpl)
	require.Len(t, plan, 1)
	assert.Equal(t, "group/email", plan[0].Key())
	assert.Equal(t, domain.KindEmail, plan[0].Kind)
}

func TestBuildPlan_Empty(t *testing.T) {
	assert.Empty(t, BuildPlan(nil))
	assert.Empty(t, BuildPlan(&domain.DataTemplate{}))
}

func TestInferKind(t *testing.T) {
	cases := []struct {
		node domain.DataTemplateNode
		want domain.Kind
	}{
		{domain.DataTemplateNode{Label: "E-mail address"}, domain.KindEmail},
		{domain.DataTemplateNode{Label: "Mobile phone"}, domain.KindPhone},
		{domain.DataTemplateNode{Label: "Full name"}, domain.KindName},
		{domain.DataTemplateNode{Label: "Birthday"}, domain.KindDate},
		{domain.DataTemplateNode{Label: "Anything", Kind: domain.KindNumber}, domain.KindNumber},
		{domain.DataTemplateNode{Label: "Favourite colour"}, domain.KindGeneric},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, InferKind(&c.node), c.node.Label)
	}
}
