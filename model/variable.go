package model

// VariableType tells whether the value is stored as-is or sealed with the
// encryption service.
type VariableType string

const (
	VariableTypeText   VariableType = "text"
	VariableTypeSecret VariableType = "secret"
)

// SecretMask is what API consumers see instead of a secret value.
const SecretMask = "••••••••"

// GlobalScope holds variables shared by every workflow. Workflow-scoped
// variables shadow global ones during template resolution.
const GlobalScope = "_"

// Variable is a named value owned by a workflow scope. For secret variables
// the persisted Value is an encrypted payload, never the plaintext.
type Variable struct {
	ID   string       `json:"id"`
	Name string       `json:"name" validate:"required,min=1,max=255,variable_name"`
	Type VariableType `json:"type" validate:"oneof=text secret"`

	// Value holds plaintext in memory and ciphertext at rest for secrets.
	Value string `json:"value" validate:"max=4096"`

	Description string `json:"description,omitempty" validate:"max=1000"`

	// WorkflowID is the owning scope, GlobalScope for shared variables
	WorkflowID string `json:"workflow_id"`

	// microseconds since epoch
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

func (v *Variable) IsSecret() bool {
	return v.Type == VariableTypeSecret
}

// Masked returns a copy safe to hand to API consumers: secret values are
// replaced by the mask, everything else is untouched.
func (v *Variable) Masked() *Variable {
	out := *v
	if v.IsSecret() {
		out.Value = SecretMask
	}
	return &out
}
