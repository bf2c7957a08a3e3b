package pipeline

import (
	"github.com/YasiruDEX/Robobrain-2.0/pkg/annotate"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// PlanStep is one atomic vision-language sub-task. Immutable once the
// plan is built.
type PlanStep struct {
	Task               task.Kind `json:"task"`
	Prompt             string    `json:"prompt"`
	Description        string    `json:"description"`
	UsePreviousContext bool      `json:"use_previous"`
}

// Plan is an ordered, never-empty sequence of steps for one query.
type Plan struct {
	ID           string     `json:"id"`
	Query        string     `json:"query"`
	Steps        []PlanStep `json:"steps"`
	UsedFallback bool       `json:"used_fallback"`

	// DecompositionError carries the upstream failure that forced the
	// fallback plan, for observability only.
	DecompositionError string `json:"decomposition_error,omitempty"`
}

// StepResult records one step's outcome. Created exactly once per step
// and never mutated afterwards.
type StepResult struct {
	Index          int               `json:"index"`
	Task           task.Kind         `json:"task"`
	Prompt         string            `json:"prompt"`
	Description    string            `json:"description"`
	Answer         string            `json:"answer,omitempty"`
	Thinking       string            `json:"thinking,omitempty"`
	RawModelText   string            `json:"raw_model_text,omitempty"`
	Geometry       geometry.Geometry `json:"geometry,omitempty"`
	OutputImageRef string            `json:"output_image_ref,omitempty"`
	Succeeded      bool              `json:"succeeded"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// RunStatus is the run-level state.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run owns the mutable state of one pipeline execution. The orchestrator
// is its only writer; steps execute strictly sequentially, so no locking
// is needed.
type Run struct {
	ID          string
	Plan        Plan
	ImageRef    string
	Results     []StepResult
	Layers      []annotate.Layer
	CurrentStep int
	Status      RunStatus
}

// Result is what a completed run hands back to the caller.
type Result struct {
	RunID          string       `json:"run_id"`
	Results        []StepResult `json:"results"`
	Summary        string       `json:"summary"`
	CompositeImage []byte       `json:"-"`
	Success        bool         `json:"success"`
	UsedFallback   bool         `json:"used_fallback"`
	Status         RunStatus    `json:"status"`
}

// Callbacks deliver per-step progress. Both fire synchronously on the
// orchestrator's goroutine; OnStepComplete fires whether or not the step
// succeeded. Nil callbacks are skipped.
type Callbacks struct {
	OnStepStart    func(index int, step PlanStep)
	OnStepComplete func(index int, result StepResult)
}
