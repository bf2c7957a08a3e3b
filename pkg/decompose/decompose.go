// Package decompose turns a free-text query into an ordered pipeline of
// atomic RoboBrain tasks using a language model.
//
// Invariants:
// - Decompose never fails: every error path resolves to a one-step
//   general fallback pipeline with Fallback set.
// - Accepted pipelines are schema-validated before they reach callers.
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// Step is one element of a decomposed pipeline, in the wire shape the
// decomposition contract defines.
type Step struct {
	Step        int    `json:"step"`
	Task        string `json:"task"`
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
	UsePrevious bool   `json:"use_previous"`
}

// Response is the decomposition result in the collaborator wire shape.
type Response struct {
	Pipeline []Step `json:"pipeline"`
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Trajectory prompts below this length get mechanically expanded; short
// prompts produce poor waypoint sequences.
const minTrajectoryPromptLen = 50

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// Decomposer decomposes complex queries into task pipelines.
type Decomposer struct {
	provider LLMProvider
}

// New creates a decomposer. A nil provider is allowed: Decompose then
// always falls back and ClassifySingle uses keyword matching.
func New(provider LLMProvider) *Decomposer {
	return &Decomposer{provider: provider}
}

// Decompose breaks query into an ordered pipeline. All failures resolve to
// a single-step general fallback, never an error.
func (d *Decomposer) Decompose(ctx context.Context, query string) Response {
	if d.provider == nil {
		return fallbackResponse(query, "no decomposition provider configured")
	}

	reply, err := d.provider.Complete(ctx, CompletionRequest{
		System:      decompositionSystemPrompt(),
		User:        fmt.Sprintf("Decompose this query into a detailed task pipeline:\n\nQuery: %q", query),
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Decomposition call failed, using fallback plan")
		return fallbackResponse(query, err.Error())
	}

	steps, err := parsePipeline(reply)
	if err != nil {
		log.Warn().Err(err).Msg("Decomposition reply unusable, using fallback plan")
		return fallbackResponse(query, err.Error())
	}

	for i := range steps {
		if steps[i].Task == string(task.KindTrajectory) && len(steps[i].Prompt) < minTrajectoryPromptLen {
			enhanced := d.EnhanceTrajectoryPrompt(ctx, steps[i].Prompt)
			if enhanced == steps[i].Prompt {
				// Static expansion when the model cannot improve the prompt.
				enhanced = "generate trajectory waypoints for the robot end-effector to " + steps[i].Prompt
			}
			steps[i].Prompt = enhanced
		}
	}

	return Response{Pipeline: steps}
}

// parsePipeline extracts and validates the JSON step array from a model
// reply that may wrap it in prose or markdown fences.
func parsePipeline(reply string) ([]Step, error) {
	raw := jsonArrayRe.FindString(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in decomposition reply")
	}
	if err := validatePipelineJSON(raw); err != nil {
		return nil, err
	}
	var steps []Step
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	return steps, nil
}

func fallbackResponse(query, reason string) Response {
	return Response{
		Pipeline: []Step{{
			Step:        1,
			Task:        string(task.KindGeneral),
			Prompt:      query,
			Description: "Fallback: process as general query",
		}},
		Fallback: true,
		Error:    reason,
	}
}

// ClassifySingle picks one task kind for a simple query. Falls back to
// keyword matching when no provider is configured or the call fails.
func (d *Decomposer) ClassifySingle(ctx context.Context, query string) task.Kind {
	if d.provider == nil {
		return task.ClassifyKeywords(query)
	}

	reply, err := d.provider.Complete(ctx, CompletionRequest{
		System:      classifySystemPrompt(),
		User:        query,
		Temperature: 0.1,
		MaxTokens:   20,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Classification call failed, using keyword fallback")
		return task.ClassifyKeywords(query)
	}

	kind, err := task.Parse(strings.TrimSpace(reply))
	if err != nil || !task.Valid(kind) {
		return task.KindGeneral
	}
	return kind
}

// EnhanceTrajectoryPrompt rewrites a short trajectory prompt into a
// detailed motion instruction. Returns the original on any failure or
// when the rewrite is no longer than the input.
func (d *Decomposer) EnhanceTrajectoryPrompt(ctx context.Context, prompt string) string {
	if d.provider == nil {
		return prompt
	}

	reply, err := d.provider.Complete(ctx, CompletionRequest{
		System:      enhanceSystemPrompt,
		User:        fmt.Sprintf("Enhance this trajectory prompt: %q", prompt),
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Trajectory prompt enhancement failed")
		return prompt
	}

	enhanced := strings.Trim(strings.TrimSpace(reply), `"'`)
	if len(enhanced) <= len(prompt) {
		return prompt
	}
	return enhanced
}
