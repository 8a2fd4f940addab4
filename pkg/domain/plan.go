package domain

// PlanEntry is one flattened unit of work of a collection plan.
type PlanEntry struct {
	Main  *DataTemplateNode `json:"-"`
	Sub   *DataTemplateNode `json:"-"`
	Label string            `json:"label"`
	Kind  Kind              `json:"kind"`
}

// Target returns the node the entry collects: the sub when set, otherwise the main.
func (e PlanEntry) Target() *DataTemplateNode {
	if e.Sub != nil {
		return e.Sub
	}
	return e.Main
}

// Key identifies the entry inside its template ("main" or "main/sub").
func (e PlanEntry) Key() string {
	if e.Main == nil {
		return ""
	}
	if e.Sub != nil {
		return e.Main.ID + "/" + e.Sub.ID
	}
	return e.Main.ID
}
