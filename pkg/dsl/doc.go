/*
Package dsl builds flow graphs in Go instead of YAML.

	b := dsl.New()
	b.Text("hi", "Hello!")
	b.Add("greet").
		SayKey("hi", "hi").
		Ask("collect", dsl.Slot("email", "Email").
			Kind(domain.KindEmail).
			Start("What is your email?").
			NoMatch("That does not look like an email.").
			Confirm("Is {input} correct?")).
		Go("bye")
	b.Add("bye").Say("goodbye", "Goodbye!")

	provider, catalog, err := b.Build()
	o := slotflow.New(provider, catalog)

Slot prompts given as literal text are registered in the builder's catalog
under generated keys ("<slot>.<step>.<level>"); use the *Key variants to
point at keys of an existing catalog instead.
*/
package dsl
