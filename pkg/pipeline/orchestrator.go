package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/annotate"
)

// Orchestrator drives a plan's steps strictly in order and aggregates
// their geometry into one composite image.
//
// Failure policy: a failed step does not abort the run. Later steps still
// execute; a context-chaining step simply sees the failure's recorded
// error text. Partial results beat an aborted run.
type Orchestrator struct {
	runner *StepRunner
	logger zerolog.Logger
}

// NewOrchestrator creates an orchestrator over the given step runner.
func NewOrchestrator(runner *StepRunner, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// Execute runs every step of plan in order and returns the aggregate
// result. baseImage is the untouched upload used for compositing;
// imageRef is the reference the model server resolves on the first step.
//
// No failure from any sub-component escapes as an error: step failures
// land in their StepResult, a bad decomposition already became a fallback
// plan, and an undecodable base image just skips annotation. The returned
// error is non-nil only for an unexpected defect inside the orchestrator
// itself, in which case the run status is StatusFailed.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan, imageRef string, baseImage []byte, cb Callbacks) (result *Result, err error) {
	run := &Run{
		ID:       uuid.New().String(),
		Plan:     plan,
		ImageRef: imageRef,
		Status:   StatusRunning,
	}

	defer func() {
		if r := recover(); r != nil {
			run.Status = StatusFailed
			o.logger.Error().Interface("panic", r).Str("run_id", run.ID).Msg("Pipeline run failed")
			result = &Result{
				RunID:        run.ID,
				Results:      run.Results,
				UsedFallback: plan.UsedFallback,
				Status:       StatusFailed,
			}
			err = fmt.Errorf("pipeline defect: %v", r)
		}
	}()

	o.logger.Info().
		Str("run_id", run.ID).
		Int("steps", len(plan.Steps)).
		Bool("fallback", plan.UsedFallback).
		Msg("Pipeline run started")

	for i, step := range plan.Steps {
		run.CurrentStep = i
		if cb.OnStepStart != nil {
			cb.OnStepStart(i, step)
		}

		res := o.runner.Run(ctx, run, i)
		run.Results = append(run.Results, res)

		if cb.OnStepComplete != nil {
			cb.OnStepComplete(i, res)
		}

		o.logger.Debug().
			Str("run_id", run.ID).
			Int("step", i+1).
			Str("task", step.Task.String()).
			Bool("succeeded", res.Succeeded).
			Msg("Pipeline step finished")
	}

	run.Status = StatusCompleted

	success := true
	for _, r := range run.Results {
		if !r.Succeeded {
			success = false
			break
		}
	}

	var composite []byte
	if len(run.Layers) > 0 && len(baseImage) > 0 {
		out, cerr := annotate.Composite(baseImage, run.Layers)
		if cerr != nil {
			// Soft failure: the unannotated base comes back from
			// Composite and stands in for the composite.
			o.logger.Warn().Err(cerr).Str("run_id", run.ID).Msg("Compositing failed, returning base image")
		}
		composite = out
	}

	o.logger.Info().
		Str("run_id", run.ID).
		Bool("success", success).
		Int("annotated_steps", len(run.Layers)).
		Msg("Pipeline run completed")

	return &Result{
		RunID:          run.ID,
		Results:        run.Results,
		Summary:        buildSummary(run.Results),
		CompositeImage: composite,
		Success:        success,
		UsedFallback:   plan.UsedFallback,
		Status:         StatusCompleted,
	}, nil
}

// buildSummary concatenates each step's task, description, and
// answer-or-error in order. A single successful step passes its answer
// through untouched.
func buildSummary(results []StepResult) string {
	if len(results) == 0 {
		return "No results available."
	}
	if len(results) == 1 && results[0].Succeeded {
		return results[0].Answer
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		body := r.Answer
		if !r.Succeeded {
			body = "Error: " + r.ErrorMessage
		}
		label := fmt.Sprintf("Step %d (%s", r.Index+1, r.Task)
		if r.Description != "" {
			label += ", " + r.Description
		}
		parts = append(parts, fmt.Sprintf("%s): %s", label, body))
	}
	return strings.Join(parts, "\n\n")
}
