package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/decompose"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/inference"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/session"
)

// fakeModelServer stands in for the inference backend. The reply
// function sees every chat request the server forwards.
func fakeModelServer(t *testing.T, reply func(inference.ChatRequest) string) (*httptest.Server, *[]inference.ChatRequest) {
	t.Helper()
	var requests []inference.ChatRequest

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(inference.Health{Status: "ok", ModelLoaded: true})
	})
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "remote-1"})
	})
	mux.HandleFunc("DELETE /api/session/{id}", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	})
	mux.HandleFunc("POST /api/session/{id}/reset", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req inference.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		json.NewEncoder(w).Encode(inference.ChatResponse{Answer: reply(req)})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestServer(t *testing.T, modelURL string) (*Server, *httptest.Server) {
	t.Helper()

	s, err := NewServer(Config{
		Host:       "127.0.0.1",
		Port:       5000,
		UploadDir:  filepath.Join(t.TempDir(), "uploads"),
		ResultDir:  filepath.Join(t.TempDir(), "results"),
		Sessions:   session.NewManager(0, 0),
		Inference:  inference.New(modelURL, 5*time.Second),
		Decomposer: decompose.New(nil),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	web := httptest.NewServer(s.Handler())
	t.Cleanup(web.Close)
	return s, web
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func uploadImage(t *testing.T, baseURL, sessionID string) string {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 320, 240))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "scene.png")
	require.NoError(t, err)
	_, err = io.Copy(fw, &img)
	require.NoError(t, err)
	if sessionID != "" {
		require.NoError(t, mw.WriteField("session_id", sessionID))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, strings.HasPrefix(out["image_path"], "/uploads/"))
	return out["image_path"]
}

func TestHealth(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "" })
	_, web := newTestServer(t, model.URL)

	resp, err := http.Get(web.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "ok", out["model_server"])
}

func TestTasksCatalog(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "" })
	_, web := newTestServer(t, model.URL)

	resp, err := http.Get(web.URL + "/api/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Tasks []map[string]any `json:"tasks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Tasks, 5)
	assert.Equal(t, "general", out.Tasks[0]["id"])
}

func TestSessionLifecycle(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "" })
	_, web := newTestServer(t, model.URL)

	resp, created := postJSON(t, web.URL+"/api/session", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := created["session_id"].(string)
	require.NotEmpty(t, sessionID)

	req, err := http.NewRequest(http.MethodDelete, web.URL+"/api/session/"+sessionID, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusOK, del.StatusCode)

	// Deleting twice is a 404.
	del2, err := http.DefaultClient.Do(req.Clone(req.Context()))
	require.NoError(t, err)
	del2.Body.Close()
	assert.Equal(t, http.StatusNotFound, del2.StatusCode)
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "" })
	_, web := newTestServer(t, model.URL)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "payload.exe")
	require.NoError(t, err)
	fw.Write([]byte("nope"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(web.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatAnnotatesCoordinates(t *testing.T) {
	model, requests := fakeModelServer(t, func(inference.ChatRequest) string {
		return "The cup is at [10, 20, 110, 220]"
	})
	s, web := newTestServer(t, model.URL)

	_, created := postJSON(t, web.URL+"/api/session", nil)
	sessionID := created["session_id"].(string)
	imagePath := uploadImage(t, web.URL, sessionID)

	resp, out := postJSON(t, web.URL+"/api/chat", map[string]any{
		"session_id": sessionID,
		"message":    "where is the cup",
		"image_path": imagePath,
		"task":       "grounding",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "The cup is at [10, 20, 110, 220]", out["answer"])
	assert.Equal(t, "grounding", out["task"])
	assert.Equal(t, "user", out["task_source"])

	// Coordinates in the answer produce an annotated result file.
	annotated, ok := out["annotated_image"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(annotated, "/result/"))
	_, err := os.Stat(filepath.Join(s.resultDir, filepath.Base(annotated)))
	assert.NoError(t, err)

	// The model server saw the remote session and the image.
	require.Len(t, *requests, 1)
	assert.Equal(t, "remote-1", (*requests)[0].SessionID)
	assert.Equal(t, imagePath, (*requests)[0].Image)
}

func TestChatGeneralTaskSkipsAnnotation(t *testing.T) {
	// Non-spatial tasks never produce an annotated image, even when the
	// answer happens to contain coordinate-shaped text.
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string {
		return "The values are [10, 20, 110, 220]"
	})
	_, web := newTestServer(t, model.URL)

	_, created := postJSON(t, web.URL+"/api/session", nil)
	sessionID := created["session_id"].(string)
	imagePath := uploadImage(t, web.URL, sessionID)

	resp, out := postJSON(t, web.URL+"/api/chat", map[string]any{
		"session_id": sessionID,
		"message":    "read the numbers",
		"image_path": imagePath,
		"task":       "general",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, out, "annotated_image")
}

func TestChatContextFraming(t *testing.T) {
	model, requests := fakeModelServer(t, func(inference.ChatRequest) string { return "A red cup." })
	_, web := newTestServer(t, model.URL)

	_, created := postJSON(t, web.URL+"/api/session", nil)
	sessionID := created["session_id"].(string)

	postJSON(t, web.URL+"/api/chat", map[string]any{"session_id": sessionID, "message": "what is on the table"})
	postJSON(t, web.URL+"/api/chat", map[string]any{"session_id": sessionID, "message": "what color is it"})

	require.Len(t, *requests, 2)
	assert.Equal(t, "what is on the table", (*requests)[0].Message)
	assert.Contains(t, (*requests)[1].Message, "[Previous conversation context]")
	assert.Contains(t, (*requests)[1].Message, "Assistant: A red cup.")
	assert.True(t, strings.HasSuffix((*requests)[1].Message, "what color is it"))
}

func TestChatRejectsUnknownTask(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "" })
	_, web := newTestServer(t, model.URL)

	resp, _ := postJSON(t, web.URL+"/api/chat", map[string]any{"message": "hi", "task": "levitate"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPipelineFallbackRun(t *testing.T) {
	// With no decomposition provider configured the plan falls back to a
	// single general step, and the run still completes.
	model, requests := fakeModelServer(t, func(inference.ChatRequest) string { return "A kitchen scene." })
	_, web := newTestServer(t, model.URL)

	resp, out := postJSON(t, web.URL+"/api/pipeline", map[string]any{"message": "describe the scene"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, out["run_id"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["fallback"])
	assert.Equal(t, "A kitchen scene.", out["summary"])
	assert.Len(t, out["steps"], 1)
	require.Len(t, *requests, 1)
	assert.Equal(t, "general", (*requests)[0].Task)
}

func TestChatRoutesComplexQueryToPipeline(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "ok" })
	_, web := newTestServer(t, model.URL)

	resp, out := postJSON(t, web.URL+"/api/chat", map[string]any{
		"message": "find the cup and then pick up the cup",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Pipeline-shaped response: a run id instead of a single answer.
	assert.NotEmpty(t, out["run_id"])
	assert.Contains(t, out, "steps")
	assert.NotContains(t, out, "answer")
}

func TestPipelineProgressOverWebSocket(t *testing.T) {
	model, _ := fakeModelServer(t, func(inference.ChatRequest) string { return "done" })
	_, web := newTestServer(t, model.URL)

	wsURL := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws/pipeline/run-42"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	events := make(chan stepEvent, 8)
	go func() {
		for {
			var ev stepEvent
			if err := conn.ReadJSON(&ev); err != nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	resp, out := postJSON(t, web.URL+"/api/pipeline", map[string]any{
		"message": "describe the scene",
		"run_id":  "run-42",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-42", out["run_id"])

	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Event)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	assert.Equal(t, []string{"step_started", "step_completed", "run_completed"}, got)
}
