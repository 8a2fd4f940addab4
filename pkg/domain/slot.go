package domain

// SlotPhase is the runtime phase of the slot being collected.
type SlotPhase string

const (
	PhaseCollecting SlotPhase = "collecting"
	PhaseNoInput    SlotPhase = "no_input"
	PhaseNoMatch    SlotPhase = "no_match"
	PhaseConfirming SlotPhase = "confirming"
	PhaseSuccess    SlotPhase = "success"
)

// Value is a captured answer. Fields holds structured parts when the
// extractor produced any (day/month/year, first/last, ...).
type Value struct {
	Raw    string            `json:"raw"`
	Fields map[string]string `json:"fields,omitempty"`
}

// SlotState is the mutable runtime state of one collection target.
type SlotState struct {
	Phase   SlotPhase `json:"phase"`
	NoMatch int       `json:"no_match"`
	NoInput int       `json:"no_input"`
	Value   *Value    `json:"value,omitempty"`
}

// NewSlotState returns a fresh state in the collecting phase.
func NewSlotState() *SlotState {
	return &SlotState{Phase: PhaseCollecting}
}

// Clone returns a deep copy of s.
func (s *SlotState) Clone() *SlotState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Value != nil {
		v := *s.Value
		if s.Value.Fields != nil {
			v.Fields = make(map[string]string, len(s.Value.Fields))
			for k, f := range s.Value.Fields {
				v.Fields[k] = f
			}
		}
		c.Value = &v
	}
	return &c
}
