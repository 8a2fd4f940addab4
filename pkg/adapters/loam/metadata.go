package loam

import "github.com/aretw0/slotflow/internal/dto"

// NodeMetadata is the front matter of a flow node document. The document
// body, when present, becomes a message task run before the declared tasks.
type NodeMetadata struct {
	ID          string           `json:"id" mapstructure:"id"`
	Label       string           `json:"label" mapstructure:"label"`
	Tasks       []map[string]any `json:"tasks" mapstructure:"tasks"`
	Transitions []dto.Transition `json:"transitions" mapstructure:"transitions"`
}

// MessageMetadata is the front matter of a translation document. Key
// overrides the document ID as the template key.
type MessageMetadata struct {
	Key string `json:"key" mapstructure:"key"`
}
