// Package codec encodes session snapshots for the persistent stores.
package codec

import (
	"fmt"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// EncodeSession serializes a session snapshot to JSON.
func EncodeSession(s *domain.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil session")
	}
	data, err := api.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// EncodeSessionIndent is EncodeSession with two-space indentation, for files
// humans may open.
func EncodeSessionIndent(s *domain.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil session")
	}
	data, err := api.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// DecodeSession parses a snapshot produced by EncodeSession.
func DecodeSession(data []byte) (*domain.Session, error) {
	var s domain.Session
	if err := api.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Marshal encodes any value with the same settings as the session codec.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
