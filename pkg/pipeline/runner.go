package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/annotate"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/inference"
)

// InferenceCaller is the slice of the model server client the runner
// needs.
type InferenceCaller interface {
	Chat(ctx context.Context, req inference.ChatRequest) (*inference.ChatResponse, error)
}

// StepRunner executes single plan steps against the model server.
type StepRunner struct {
	client         InferenceCaller
	sessionID      string
	enableThinking bool
}

// NewStepRunner creates a runner bound to one model server session.
func NewStepRunner(client InferenceCaller, sessionID string, enableThinking bool) *StepRunner {
	return &StepRunner{
		client:         client,
		sessionID:      sessionID,
		enableThinking: enableThinking,
	}
}

// Run executes step index of the run's plan and returns its result. A
// collaborator failure becomes a failed StepResult, never an error: the
// orchestrator decides whether to continue. On success any extracted
// geometry is merged into the run's layer accumulator.
func (r *StepRunner) Run(ctx context.Context, run *Run, index int) StepResult {
	step := run.Plan.Steps[index]

	prompt := step.Prompt
	if step.UsePreviousContext {
		if block := FormatContext(run.Results[:index]); block != "" {
			prompt = block + prompt
		}
	}

	req := inference.ChatRequest{
		SessionID:      r.sessionID,
		Message:        prompt,
		Task:           step.Task.String(),
		EnableThinking: r.enableThinking,
	}
	// The image travels only on the first step; the model server session
	// keeps it for the rest of the run.
	if index == 0 {
		req.Image = run.ImageRef
	}

	resp, err := r.client.Chat(ctx, req)
	if err != nil {
		log.Warn().Err(err).Int("step", index+1).Str("task", step.Task.String()).Msg("Step inference failed")
		return StepResult{
			Index:        index,
			Task:         step.Task,
			Prompt:       prompt,
			Description:  step.Description,
			ErrorMessage: err.Error(),
		}
	}

	g := geometry.Extract(resp.Answer, step.Task)
	if !g.Empty() {
		run.Layers = append(run.Layers, annotate.Layer{
			Step:     index,
			Task:     step.Task,
			Geometry: g,
		})
	}

	return StepResult{
		Index:          index,
		Task:           step.Task,
		Prompt:         prompt,
		Description:    step.Description,
		Answer:         resp.Answer,
		Thinking:       resp.Thinking,
		RawModelText:   resp.Answer,
		Geometry:       g,
		OutputImageRef: resp.OutputImage,
		Succeeded:      true,
	}
}
