package runtime

import (
	"strings"
	"unicode"

	"github.com/aretw0/slotflow/pkg/domain"
)

// BuildPlan flattens a template into its ordered collection plan: each main
// item followed by its subs, depth-first. Items without step configuration
// are skipped. An empty plan is valid and means there is nothing to ask.
func BuildPlan(t *domain.DataTemplate) []domain.PlanEntry {
	if t == nil {
		return nil
	}
	var plan []domain.PlanEntry
	for _, main := range t.Mains {
		if main == nil {
			continue
		}
		if main.Collectible() {
			plan = append(plan, domain.PlanEntry{
				Main:  main,
				Label: main.Label,
				Kind:  InferKind(main),
			})
		}
		for _, sub := range main.Subs {
			if !sub.Collectible() {
				continue
			}
			plan = append(plan, domain.PlanEntry{
				Main:  main,
				Sub:   sub,
				Label: sub.Label,
				Kind:  InferKind(sub),
			})
		}
	}
	return plan
}

// kindKeywords is checked in order; the first rule with a matching label
// word wins, so "Year of birth" is a year and "Phone number" a phone.
var kindKeywords = []struct {
	kind  domain.Kind
	words []string
}{
	{domain.KindEmail, []string{"email", "mail"}},
	{domain.KindPhone, []string{"phone", "telephone", "mobile", "cell", "tel", "telefono", "cellulare"}},
	{domain.KindDay, []string{"day", "giorno"}},
	{domain.KindMonth, []string{"month", "mese"}},
	{domain.KindYear, []string{"year", "anno"}},
	{domain.KindDate, []string{"date", "birth", "birthday", "dob", "nascita"}},
	{domain.KindName, []string{"name", "firstname", "lastname", "surname", "nome", "cognome"}},
	{domain.KindAddress, []string{"address", "street", "city", "zip", "indirizzo"}},
	{domain.KindNumber, []string{"number", "amount", "age", "quantity", "count", "numero"}},
	{domain.KindIntent, []string{"intent", "reason", "motivo"}},
}

// InferKind returns the declared kind of n, or guesses it from its label and ID.
func InferKind(n *domain.DataTemplateNode) domain.Kind {
	if n == nil {
		return domain.KindGeneric
	}
	if n.Kind != "" && n.Kind.Valid() {
		return n.Kind
	}

	words := make(map[string]bool)
	for _, src := range []string{n.Label, n.ID} {
		for _, w := range strings.FieldsFunc(strings.ToLower(src), func(r rune) bool { return !unicode.IsLetter(r) }) {
			words[w] = true
		}
	}
	for _, rule := range kindKeywords {
		for _, w := range rule.words {
			if words[w] {
				return rule.kind
			}
		}
	}
	return domain.KindGeneric
}
