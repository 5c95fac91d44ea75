package aigen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/mitchellh/mapstructure"

	"github.com/swisspipe/swisspipe/metrics"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
)

type GenerateCodeRequest struct {
	Prompt       string `json:"prompt" validate:"required"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	Options *RequestOptions `json:"options,omitempty"`
}

type GenerateCodeResult struct {
	Code  string `json:"code"`
	Usage *Usage `json:"usage,omitempty"`
}

type GenerateWorkflowRequest struct {
	Prompt string `json:"prompt" validate:"required"`

	Options *RequestOptions `json:"options,omitempty"`
}

type GenerateWorkflowResult struct {
	Workflow *model.WorkflowDefinition `json:"workflow"`
	Usage    *Usage                    `json:"usage,omitempty"`
}

// Service produces workflow assets with the Anthropic API. Model output is
// never trusted as-is: generated code must parse as JavaScript and generated
// workflows must decode into the typed definition and pass validation.
type Service struct {
	client *Client
	logger logger.Logger
}

func NewService(client *Client, l logger.Logger) *Service {
	return &Service{
		client: client,
		logger: logger.EnsureLogger(l),
	}
}

// GenerateCode asks the model for a JavaScript transform snippet and
// syntax-checks it before returning.
func (s *Service) GenerateCode(ctx context.Context, req *GenerateCodeRequest) (*GenerateCodeResult, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	system := req.SystemPrompt
	if system == "" {
		system = defaultCodeSystemPrompt
	}

	text, usage, err := s.client.CreateMessage(ctx, system, req.Prompt, req.Options)
	if err != nil {
		metrics.IncAIGeneration("code", "failed")
		return nil, err
	}

	code := stripCodeFence(text)
	if _, err := goja.Compile("generated.js", code, true); err != nil {
		metrics.IncAIGeneration("code", "invalid")
		s.logger.Warn("generated code failed syntax check", "error", err)
		return nil, fmt.Errorf("generated code is not valid javascript: %w", err)
	}

	metrics.IncAIGeneration("code", "ok")
	return &GenerateCodeResult{Code: code, Usage: usage}, nil
}

// GenerateWorkflow asks the model for a full workflow definition and decodes
// it into the typed model before returning.
func (s *Service) GenerateWorkflow(ctx context.Context, req *GenerateWorkflowRequest) (*GenerateWorkflowResult, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	text, usage, err := s.client.CreateMessage(ctx, workflowSystemPrompt, req.Prompt, req.Options)
	if err != nil {
		metrics.IncAIGeneration("workflow", "failed")
		return nil, err
	}

	raw := stripCodeFence(text)

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		metrics.IncAIGeneration("workflow", "invalid")
		return nil, fmt.Errorf("generated workflow is not valid json: %w", err)
	}

	workflow := &model.WorkflowDefinition{}
	if err := mapstructure.Decode(decoded, workflow); err != nil {
		metrics.IncAIGeneration("workflow", "invalid")
		return nil, fmt.Errorf("generated workflow has an unexpected shape: %w", err)
	}

	if err := model.Validate(workflow); err != nil {
		metrics.IncAIGeneration("workflow", "invalid")
		return nil, fmt.Errorf("generated workflow failed validation: %w", err)
	}

	metrics.IncAIGeneration("workflow", "ok")
	return &GenerateWorkflowResult{Workflow: workflow, Usage: usage}, nil
}

// stripCodeFence unwraps a single markdown code fence if the model wrapped
// its answer in one, dropping the language tag on the opening line.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}

	// drop the opening ```lang line
	lines = lines[1:]
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			lines = lines[:i]
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
