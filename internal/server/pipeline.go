package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// stepEvent is one progress frame pushed to pipeline subscribers.
type stepEvent struct {
	Event       string `json:"event"` // step_started, step_completed, run_completed
	RunID       string `json:"run_id"`
	Step        int    `json:"step,omitempty"`
	TotalSteps  int    `json:"total_steps,omitempty"`
	Task        string `json:"task,omitempty"`
	Description string `json:"description,omitempty"`
	Answer      string `json:"answer,omitempty"`
	Succeeded   bool   `json:"succeeded,omitempty"`
	Error       string `json:"error,omitempty"`
	Success     bool   `json:"success,omitempty"`
}

// handlePipeline decomposes a complex query into a plan and executes it
// step by step. The response carries the full run; subscribers on
// /ws/pipeline/{runID} see each step as it happens.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	s.executePipeline(w, r, req)
}

// executePipeline runs one decompose-and-execute cycle. Chat requests
// that look multi-step land here too.
func (s *Server) executePipeline(w http.ResponseWriter, r *http.Request, req chatRequest) {
	runID := req.RunID
	if runID == "" {
		id, err := gonanoid.New()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate run id")
			return
		}
		runID = id
	}

	conv := s.sessions.GetOrCreate(req.SessionID)
	imageRef := s.resolveImage(req, conv)
	baseImage := s.imageBytes(imageRef)

	plan := s.planner.Decompose(r.Context(), req.Message)
	if plan.UsedFallback {
		s.metrics.PipelineFallbackTotal.Inc()
	}

	runner := pipeline.NewStepRunner(s.inference, conv.RemoteID, s.enableThinking)
	orch := pipeline.NewOrchestrator(runner, s.logger)

	totalSteps := len(plan.Steps)
	var stepStart time.Time
	cb := pipeline.Callbacks{
		OnStepStart: func(i int, step pipeline.PlanStep) {
			stepStart = time.Now()
			s.hub.Publish(runID, stepEvent{
				Event:       "step_started",
				RunID:       runID,
				Step:        i + 1,
				TotalSteps:  totalSteps,
				Task:        step.Task.String(),
				Description: step.Description,
			})
		},
		OnStepComplete: func(i int, res pipeline.StepResult) {
			s.metrics.PipelineStepDuration.WithLabelValues(res.Task.String()).Observe(time.Since(stepStart).Seconds())
			status := "ok"
			if !res.Succeeded {
				status = "error"
			}
			s.metrics.PipelineStepsTotal.WithLabelValues(res.Task.String(), status).Inc()
			s.hub.Publish(runID, stepEvent{
				Event:      "step_completed",
				RunID:      runID,
				Step:       i + 1,
				TotalSteps: totalSteps,
				Task:       res.Task.String(),
				Answer:     res.Answer,
				Succeeded:  res.Succeeded,
				Error:      res.ErrorMessage,
			})
		},
	}

	result, err := orch.Execute(r.Context(), plan, imageRef, baseImage, cb)
	if err != nil {
		s.metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		s.hub.Publish(runID, stepEvent{Event: "run_completed", RunID: runID, Success: false, Error: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	s.hub.Publish(runID, stepEvent{Event: "run_completed", RunID: runID, Success: result.Success})

	conv.AddUserTurn(req.Message, req.ImagePath, "pipeline")
	conv.AddAssistantTurn(result.Summary, "pipeline", map[string]string{"run_id": runID})

	payload := map[string]any{
		"session_id": conv.ID,
		"run_id":     runID,
		"summary":    result.Summary,
		"success":    result.Success,
		"fallback":   result.UsedFallback,
		"steps":      result.Results,
	}
	if plan.DecompositionError != "" {
		payload["decomposition_error"] = plan.DecompositionError
	}
	if len(result.CompositeImage) > 0 {
		if path, serr := s.saveResult(result.CompositeImage); serr == nil {
			payload["annotated_image"] = path
		} else {
			s.logger.Warn().Err(serr).Str("run_id", runID).Msg("Composite image not saved")
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// handlePipelineWS subscribes a WebSocket client to one run's progress.
func (s *Server) handlePipelineWS(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	s.hub.Subscribe(runID, conn)
	s.logger.Debug().Str("run_id", runID).Msg("Pipeline subscriber connected")

	// Reads only serve to detect disconnects; subscribers never send.
	go func() {
		defer func() {
			s.hub.Unsubscribe(runID, conn)
			conn.Close()
			s.logger.Debug().Str("run_id", runID).Msg("Pipeline subscriber disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
