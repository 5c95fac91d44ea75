package model

import "encoding/json"

// WorkflowVersion is an immutable snapshot of a workflow definition, written
// every time the workflow is saved.
type WorkflowVersion struct {
	ID            string `json:"id"`
	WorkflowID    string `json:"workflow_id" validate:"required"`
	VersionNumber int64  `json:"version_number"`

	// WorkflowName is denormalized out of the snapshot for list display
	WorkflowName string `json:"workflow_name"`

	// Snapshot is the complete workflow definition as submitted
	Snapshot json.RawMessage `json:"snapshot,omitempty"`

	CommitMessage     string `json:"commit_message" validate:"required,max=100"`
	CommitDescription string `json:"commit_description,omitempty" validate:"max=1000"`
	ChangedBy         string `json:"changed_by" validate:"required"`

	// microseconds since epoch
	CreatedAt int64 `json:"created_at"`
}

// WorkflowDefinition is the typed shape of a workflow snapshot. AI-generated
// workflows are decoded into this before they are accepted.
type WorkflowDefinition struct {
	Name  string         `json:"name" mapstructure:"name" validate:"required,max=255"`
	Nodes []WorkflowNode `json:"nodes" mapstructure:"nodes" validate:"min=1,dive"`
	Edges []WorkflowEdge `json:"edges" mapstructure:"edges" validate:"dive"`
}

type WorkflowNode struct {
	ID     string                 `json:"id" mapstructure:"id" validate:"required"`
	Name   string                 `json:"name" mapstructure:"name" validate:"required"`
	Type   string                 `json:"type" mapstructure:"type" validate:"required"`
	Config map[string]interface{} `json:"config,omitempty" mapstructure:"config"`
}

type WorkflowEdge struct {
	From string `json:"from" mapstructure:"from" validate:"required"`
	To   string `json:"to" mapstructure:"to" validate:"required"`
}
