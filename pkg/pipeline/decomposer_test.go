package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/decompose"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// fakeSource returns a canned decomposition response.
type fakeSource struct {
	resp decompose.Response
}

func (f *fakeSource) Decompose(context.Context, string) decompose.Response {
	return f.resp
}

func TestPlanDecomposer(t *testing.T) {
	ctx := context.Background()

	t.Run("valid pipeline becomes plan", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{
			Pipeline: []decompose.Step{
				{Step: 1, Task: "grounding", Prompt: "the cup", Description: "Locate the cup"},
				{Step: 2, Task: "affordance", Prompt: "find the grasp region", UsePrevious: true},
			},
		}})

		plan := d.Decompose(ctx, "pick up the cup")
		assert.False(t, plan.UsedFallback)
		assert.NotEmpty(t, plan.ID)
		require.Len(t, plan.Steps, 2)
		assert.Equal(t, task.KindGrounding, plan.Steps[0].Task)
		assert.True(t, plan.Steps[1].UsePreviousContext)
	})

	t.Run("empty pipeline falls back", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{}})

		plan := d.Decompose(ctx, "hello")
		assert.True(t, plan.UsedFallback)
		assert.NotEmpty(t, plan.DecompositionError)
		require.Len(t, plan.Steps, 1)
		assert.Equal(t, task.KindGeneral, plan.Steps[0].Task)
		assert.Equal(t, "hello", plan.Steps[0].Prompt)
	})

	t.Run("unknown task falls back", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{
			Pipeline: []decompose.Step{{Task: "levitate", Prompt: "x"}},
		}})

		plan := d.Decompose(ctx, "hello")
		assert.True(t, plan.UsedFallback)
		require.Len(t, plan.Steps, 1)
	})

	t.Run("auto is not an executable task", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{
			Pipeline: []decompose.Step{{Task: "auto", Prompt: "x"}},
		}})
		assert.True(t, d.Decompose(ctx, "hello").UsedFallback)
	})

	t.Run("empty prompt falls back", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{
			Pipeline: []decompose.Step{{Task: "general", Prompt: ""}},
		}})
		assert.True(t, d.Decompose(ctx, "hello").UsedFallback)
	})

	t.Run("collaborator fallback flag is preserved", func(t *testing.T) {
		d := NewPlanDecomposer(&fakeSource{resp: decompose.Response{
			Pipeline: []decompose.Step{{Task: "general", Prompt: "hello"}},
			Fallback: true,
			Error:    "rate limited",
		}})

		plan := d.Decompose(ctx, "hello")
		assert.True(t, plan.UsedFallback)
		assert.Equal(t, "rate limited", plan.DecompositionError)
		require.Len(t, plan.Steps, 1)
	})
}
