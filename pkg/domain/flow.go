package domain

// Flow is the graph and message catalog a session was started with. It
// travels with the session snapshot so later edits to the sources never
// reach a running dialogue.
type Flow struct {
	Graph *Graph `json:"graph"`
	// Texts is nil when the translations could not be enumerated. The live
	// translations are read then.
	Texts map[string]string `json:"texts,omitempty"`
}

// Clone returns a copy of f.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	c := &Flow{Graph: f.Graph.Clone()}
	if f.Texts != nil {
		c.Texts = make(map[string]string, len(f.Texts))
		for k, v := range f.Texts {
			c.Texts[k] = v
		}
	}
	return c
}
