package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/decompose"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// PlanSource produces raw decomposition responses for a query.
type PlanSource interface {
	Decompose(ctx context.Context, query string) decompose.Response
}

// PlanDecomposer turns a raw query into a validated Plan. It never fails:
// every invalid or errored decomposition resolves to a one-step general
// fallback plan with UsedFallback set.
type PlanDecomposer struct {
	source PlanSource
}

// NewPlanDecomposer creates a plan decomposer over the given source.
func NewPlanDecomposer(source PlanSource) *PlanDecomposer {
	return &PlanDecomposer{source: source}
}

// Decompose produces a valid Plan for query. The returned plan always has
// at least one step.
func (d *PlanDecomposer) Decompose(ctx context.Context, query string) Plan {
	resp := d.source.Decompose(ctx, query)

	steps, err := validateSteps(resp.Pipeline)
	if err != nil {
		reason := err.Error()
		if resp.Error != "" {
			reason = resp.Error + "; " + reason
		}
		log.Warn().Str("reason", reason).Msg("Invalid decomposition, substituting fallback plan")
		return fallbackPlan(query, reason)
	}

	if resp.Fallback {
		// The collaborator already substituted its own fallback; keep the
		// flag and reason visible to the caller.
		return Plan{
			ID:                 uuid.New().String(),
			Query:              query,
			Steps:              steps,
			UsedFallback:       true,
			DecompositionError: resp.Error,
		}
	}

	return Plan{
		ID:    uuid.New().String(),
		Query: query,
		Steps: steps,
	}
}

// validateSteps converts wire steps into typed plan steps, rejecting
// empty pipelines, unknown task kinds, and empty prompts.
func validateSteps(raw []decompose.Step) ([]PlanStep, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty pipeline")
	}
	steps := make([]PlanStep, 0, len(raw))
	for i, s := range raw {
		kind, err := task.Parse(s.Task)
		if err != nil || !task.Valid(kind) {
			return nil, fmt.Errorf("step %d: unrecognized task %q", i+1, s.Task)
		}
		if s.Prompt == "" {
			return nil, fmt.Errorf("step %d: empty prompt", i+1)
		}
		steps = append(steps, PlanStep{
			Task:               kind,
			Prompt:             s.Prompt,
			Description:        s.Description,
			UsePreviousContext: s.UsePrevious,
		})
	}
	return steps, nil
}

func fallbackPlan(query, reason string) Plan {
	return Plan{
		ID:    uuid.New().String(),
		Query: query,
		Steps: []PlanStep{{
			Task:        task.KindGeneral,
			Prompt:      query,
			Description: "Fallback: process as general query",
		}},
		UsedFallback:       true,
		DecompositionError: reason,
	}
}
