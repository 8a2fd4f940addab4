package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotWaiting is logged when input arrives while no task is waiting.
var ErrNotWaiting = errors.New("no task is waiting for input")

// ErrUnknownTask is logged when a caller references a task that is not waiting.
var ErrUnknownTask = errors.New("unknown or not waiting task")

// ErrorCode classifies configuration errors.
type ErrorCode string

const (
	CodeMissingTemplate ErrorCode = "missing_template"
	CodeMissingLabel    ErrorCode = "missing_label"
	CodeNoUsableSteps   ErrorCode = "no_usable_steps"
	CodeNoOutgoingEdge  ErrorCode = "no_outgoing_edge"
	CodeAmbiguousEdge   ErrorCode = "ambiguous_edge"
	CodeUnknownNode     ErrorCode = "unknown_node"
	CodeEmptyGraph      ErrorCode = "empty_graph"
	CodeMissingBackend  ErrorCode = "missing_backend"
	CodeBackendFailed   ErrorCode = "backend_failed"
	// CodeRunaway flags a flow that keeps moving without ever waiting for input.
	CodeRunaway ErrorCode = "runaway_flow"
)

// ConfigError is an authoring defect that makes the current run impossible.
// It is fatal for the session and must be surfaced, not retried.
type ConfigError struct {
	Code           ErrorCode `json:"code"`
	NodeID         string    `json:"node_id,omitempty"`
	TaskID         string    `json:"task_id,omitempty"`
	TemplateNodeID string    `json:"template_node_id,omitempty"`
	Reason         string    `json:"reason"`
}

func (e *ConfigError) Error() string {
	where := e.NodeID
	if e.TaskID != "" {
		where += "/" + e.TaskID
	}
	if e.TemplateNodeID != "" {
		where += "#" + e.TemplateNodeID
	}
	if where == "" {
		return fmt.Sprintf("configuration error [%s]: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("configuration error [%s] at %s: %s", e.Code, where, e.Reason)
}

// AsConfigError extracts a *ConfigError from err's chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConfigError reports whether err is an authoring defect.
func IsConfigError(err error) bool {
	_, ok := AsConfigError(err)
	return ok
}
