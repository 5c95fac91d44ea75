package aigen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swisspipe/swisspipe/core/jobqueue"
)

const (
	JobTypeGenerateCode     = "generate_code"
	JobTypeGenerateWorkflow = "generate_workflow"
)

// Processor runs generation jobs off the queue so clients can submit a
// prompt and poll for the result instead of holding a request open.
type Processor struct {
	svc *Service
}

func NewProcessor(svc *Service) *Processor {
	return &Processor{svc: svc}
}

// RegisterOn wires the processor into a worker for both job types.
func (p *Processor) RegisterOn(w *jobqueue.Worker) {
	w.RegisterProcessor(JobTypeGenerateCode, p)
	w.RegisterProcessor(JobTypeGenerateWorkflow, p)
}

func (p *Processor) Perform(j *jobqueue.Job) ([]byte, error) {
	ctx := context.Background()

	switch j.Type {
	case JobTypeGenerateCode:
		req := &GenerateCodeRequest{}
		if err := json.Unmarshal(j.Data, req); err != nil {
			return nil, fmt.Errorf("invalid job payload: %w", err)
		}

		result, err := p.svc.GenerateCode(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)

	case JobTypeGenerateWorkflow:
		req := &GenerateWorkflowRequest{}
		if err := json.Unmarshal(j.Data, req); err != nil {
			return nil, fmt.Errorf("invalid job payload: %w", err)
		}

		result, err := p.svc.GenerateWorkflow(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	return nil, fmt.Errorf("unknown generation job type: %s", j.Type)
}
