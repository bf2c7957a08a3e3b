package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/annotate"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/inference"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// maxUploadBytes caps one image upload at 16 MB, matching the model
// server's own limit.
const maxUploadBytes = 16 << 20

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.Count(),
	}

	h, err := s.inference.CheckHealth(r.Context())
	if err != nil {
		payload["model_server"] = "unreachable"
	} else {
		payload["model_server"] = h.Status
		payload["model_loaded"] = h.ModelLoaded
	}

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": task.Catalog()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	conv := s.sessions.Create()
	s.metrics.SessionsTotal.Inc()
	s.metrics.SessionsActive.Set(float64(s.sessions.Count()))

	// The model server keeps its own session state; a failure to open one
	// there degrades to stateless inference calls.
	if remoteID, err := s.inference.CreateSession(r.Context()); err != nil {
		s.logger.Warn().Err(err).Str("session_id", conv.ID).Msg("Model server session not created")
	} else {
		conv.RemoteID = remoteID
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": conv.ID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv := s.sessions.Get(id)
	if conv == nil {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}

	if conv.RemoteID != "" {
		if err := s.inference.DeleteSession(r.Context(), conv.RemoteID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id).Msg("Model server session not deleted")
		}
	}

	if err := s.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.metrics.SessionsActive.Set(float64(s.sessions.Count()))

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv := s.sessions.Get(id)
	if conv == nil {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}

	if conv.RemoteID != "" {
		if err := s.inference.ResetSession(r.Context(), conv.RemoteID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id).Msg("Model server session not reset")
		}
	}
	conv.Clear()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv := s.sessions.Get(id)
	if conv == nil {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"turns":      conv.History(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported image type: %s", ext))
		return
	}

	name, err := gonanoid.New()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate file name")
		return
	}
	filename := name + ext

	dst, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	s.metrics.UploadsTotal.Inc()

	imagePath := "/uploads/" + filename
	if sessionID := r.FormValue("session_id"); sessionID != "" {
		s.sessions.GetOrCreate(sessionID).SetImage(imagePath)
	}

	s.logger.Debug().Str("file", filename).Msg("Image uploaded")
	writeJSON(w, http.StatusCreated, map[string]string{"image_path": imagePath})
}

// chatRequest is the payload for both chat and pipeline endpoints.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	ImagePath string `json:"image_path,omitempty"`
	Task      string `json:"task,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

// resolveImage returns the request's image or falls back to the
// session's active one.
func (s *Server) resolveImage(req chatRequest, conv interface{ CurrentImage() string }) string {
	if req.ImagePath != "" {
		return req.ImagePath
	}
	return conv.CurrentImage()
}

// imageBytes loads the upload behind an /uploads/ reference. Only the
// base name is honored, so references cannot escape the upload dir.
func (s *Server) imageBytes(ref string) []byte {
	if ref == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.uploadDir, filepath.Base(ref)))
	if err != nil {
		s.logger.Warn().Err(err).Str("image", ref).Msg("Upload not readable")
		return nil
	}
	return data
}

// saveResult writes an annotated image and returns its public path.
func (s *Server) saveResult(data []byte) (string, error) {
	name, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	filename := name + ".jpg"
	if err := os.WriteFile(filepath.Join(s.resultDir, filename), data, 0o644); err != nil {
		return "", err
	}
	return "/result/" + filename, nil
}

// handleChat answers a single query: classify the task, run one
// inference call, and annotate any coordinates in the reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	// Multi-step instructions route through the pipeline; an explicit
	// task pins the query to a single call.
	if req.Task == "" && task.IsComplex(req.Message) {
		s.executePipeline(w, r, req)
		return
	}

	conv := s.sessions.GetOrCreate(req.SessionID)
	imageRef := s.resolveImage(req, conv)

	kind := task.KindAuto
	if req.Task != "" {
		var err error
		if kind, err = task.Parse(req.Task); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	taskSource := "user"
	if kind == task.KindAuto {
		kind = s.decomposer.ClassifySingle(r.Context(), req.Message)
		taskSource = "auto"
	}

	prompt := conv.ContextPrompt(req.Message)

	start := time.Now()
	resp, err := s.inference.Chat(r.Context(), inference.ChatRequest{
		SessionID:      conv.RemoteID,
		Message:        prompt,
		Image:          imageRef,
		Task:           kind.String(),
		EnableThinking: s.enableThinking,
	})
	s.metrics.InferenceCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.InferenceCallsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.metrics.InferenceCallsTotal.WithLabelValues("ok").Inc()

	conv.AddUserTurn(req.Message, req.ImagePath, kind.String())
	conv.AddAssistantTurn(resp.Answer, kind.String(), nil)

	payload := map[string]any{
		"session_id":  conv.ID,
		"answer":      resp.Answer,
		"task":        kind.String(),
		"task_source": taskSource,
	}
	if resp.Thinking != "" {
		payload["thinking"] = resp.Thinking
	}

	// Only spatial tasks carry drawable coordinates.
	if kind.Spatial() {
		if geo := geometry.Extract(resp.Answer, kind); !geo.Empty() {
			s.annotateAnswer(payload, imageRef, kind, geo)
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// annotateAnswer composites geo onto the request's image and records the
// result path in the response payload. Failures just leave the payload
// without an annotated image.
func (s *Server) annotateAnswer(payload map[string]any, imageRef string, kind task.Kind, geo geometry.Geometry) {
	base := s.imageBytes(imageRef)
	if base == nil {
		return
	}
	out, err := annotate.Composite(base, []annotate.Layer{{Step: 0, Task: kind, Geometry: geo}})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Annotation failed, returning plain answer")
		return
	}
	if path, err := s.saveResult(out); err == nil {
		payload["annotated_image"] = path
	}
}
