package domain

import "time"

// Direction tells who produced a message.
type Direction string

const (
	DirectionSystem Direction = "system"
	DirectionUser   Direction = "user"
)

// Message is an emitted conversational turn.
type Message struct {
	Direction   Direction         `json:"direction"`
	Text        string            `json:"text"`
	Step        StepType          `json:"step,omitempty"`
	Level       int               `json:"level,omitempty"`
	NodeID      string            `json:"node_id,omitempty"`
	TaskID      string            `json:"task_id,omitempty"`
	TemplateKey string            `json:"template_key,omitempty"`
	Values      map[string]string `json:"values,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ResolutionGap reports that no text is configured for a step at any level.
// It is an authoring gap, never replaced by fabricated text.
type ResolutionGap struct {
	TaskID string   `json:"task_id,omitempty"`
	NodeID string   `json:"node_id"`
	Step   StepType `json:"step"`
	Level  int      `json:"level"`
}
