package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

func TestFormatContextEmpty(t *testing.T) {
	// Idempotent and environment-independent: always the empty string.
	for i := 0; i < 3; i++ {
		assert.Equal(t, "", FormatContext(nil))
		assert.Equal(t, "", FormatContext([]StepResult{}))
	}
}

func TestFormatContext(t *testing.T) {
	t.Run("successful step with coordinates", func(t *testing.T) {
		prior := []StepResult{{
			Index:        0,
			Task:         task.KindGrounding,
			Prompt:       "the red cup",
			Answer:       "The cup is at [10, 20, 110, 220]",
			RawModelText: "The cup is at [10, 20, 110, 220]",
			Geometry:     geometry.Geometry{Boxes: []geometry.Box{{X1: 10, Y1: 20, X2: 110, Y2: 220}}},
			Succeeded:    true,
		}}

		got := FormatContext(prior)
		assert.Contains(t, got, "Step 1 (grounding)")
		assert.Contains(t, got, "Prompt: the red cup")
		assert.Contains(t, got, "Answer: The cup is at [10, 20, 110, 220]")
		assert.Contains(t, got, "Result coordinates: The cup is at [10, 20, 110, 220]")
	})

	t.Run("no coordinates omits raw line", func(t *testing.T) {
		prior := []StepResult{{
			Index:        0,
			Task:         task.KindGeneral,
			Prompt:       "describe the scene",
			Answer:       "A kitchen table with a cup",
			RawModelText: "A kitchen table with a cup",
			Succeeded:    true,
		}}

		got := FormatContext(prior)
		assert.NotContains(t, got, "Result coordinates:")
	})

	t.Run("failed step shows error text", func(t *testing.T) {
		prior := []StepResult{{
			Index:        1,
			Task:         task.KindTrajectory,
			Prompt:       "plan the path",
			ErrorMessage: "model server unreachable",
		}}

		got := FormatContext(prior)
		assert.Contains(t, got, "Step 2 (trajectory)")
		assert.Contains(t, got, "Answer: Error: model server unreachable")
	})

	t.Run("missing answer becomes No response", func(t *testing.T) {
		prior := []StepResult{{Index: 0, Task: task.KindGeneral, Prompt: "p", Succeeded: true}}
		assert.Contains(t, FormatContext(prior), "Answer: No response")
	})

	t.Run("deterministic", func(t *testing.T) {
		prior := []StepResult{
			{Index: 0, Task: task.KindGeneral, Prompt: "a", Answer: "x", Succeeded: true},
			{Index: 1, Task: task.KindPointing, Prompt: "b", Answer: "(1, 2)", Succeeded: true},
		}
		assert.Equal(t, FormatContext(prior), FormatContext(prior))
	})
}
