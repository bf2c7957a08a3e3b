// Package pipeline decomposes a complex query into atomic vision tasks
// and executes them sequentially against the model server.
//
// Invariants:
// - A plan is never empty: invalid decompositions become a one-step
//   general fallback plan.
// - Steps execute strictly in order; step N+1 never starts before step
//   N's result is recorded.
// - A failed step never aborts the run; its error is recorded and later
//   steps still execute.
// - Geometry from every step is drawn onto one composite of the original
//   image, not one image per step.
//
// Usage:
//
//	pd := pipeline.NewPlanDecomposer(decomposer)
//	plan := pd.Decompose(ctx, "pick up the red cup")
//	runner := pipeline.NewStepRunner(client, sessionID, true)
//	orch := pipeline.NewOrchestrator(runner, logger)
//	result, _ := orch.Execute(ctx, plan, imagePath, imageBytes, pipeline.Callbacks{})
//	_ = result
package pipeline
