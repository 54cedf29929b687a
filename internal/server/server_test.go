// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atoms-tech/requirements-engine/internal/analysis"
	"github.com/atoms-tech/requirements-engine/internal/jobs"
	"github.com/atoms-tech/requirements-engine/internal/regdoc"
	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// scriptedBackend answers each pipeline step with minimal valid JSON.
type scriptedBackend struct{}

func (scriptedBackend) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "As a requirements engineering expert"):
		return `{"req_id": "REQ-001", "quality_rating": 8}`, nil
	case strings.HasPrefix(prompt, "As a regulatory compliance expert"):
		return `{"regulation_document": "ISO_27001.pdf"}`, nil
	case strings.HasPrefix(prompt, "As a systems engineering expert"):
		return `{"compliance_status": "COMPLIANT", "final_quality_rating": "9"}`, nil
	}
	return "", errors.New("unexpected prompt")
}

type testEnv struct {
	router *gin.Engine
	store  *storage.MemoryStore
	runner *jobs.Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	docs := regdoc.New(store, types.StorageConfig{})
	analyzer := analysis.New(scriptedBackend{}, docs, types.AnalysisConfig{})

	jobStore, err := jobs.NewStore(types.JobsConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { jobStore.Close() })

	runner := jobs.NewRunner(jobStore, analyzer, zap.NewNop())
	srv := New(types.ServerConfig{}, zap.NewNop(), analyzer, docs, jobStore, runner)

	return &testEnv{router: srv.Router(), store: store, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, bytes.NewBuffer(data), "application/json")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func multipartPDF(t *testing.T, filenames []string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	for _, name := range filenames {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAnalyzeSync(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/analyze-requirement", map[string]any{
		"original_requirement":     "The system shall respond within 2 seconds.",
		"regulation_document_name": "ISO_27001",
		"organizationId":           "atoms-tech",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "atoms-tech", body["organizationId"])

	step1, ok := body["analysisJson"].(map[string]any)
	require.True(t, ok, "analysisJson missing: %s", w.Body.String())
	assert.Equal(t, "REQ-001", step1["req_id"])
	assert.Equal(t, "8", step1["quality_rating"])

	// No regulation uploaded, so step 2 degrades to the placeholder.
	step2, ok := body["analysisJson2"].(map[string]any)
	require.True(t, ok)
	concerns, _ := step2["compliance_concerns"].([]any)
	require.Len(t, concerns, 1)
	assert.Equal(t, "No regulation document found for analysis", concerns[0])
}

func TestAnalyzeSyncValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "missing requirement", payload: map[string]any{"organizationId": "atoms-tech"}},
		{name: "missing organization", payload: map[string]any{"original_requirement": "text"}},
		{name: "temperature out of range", payload: map[string]any{
			"original_requirement": "text", "organizationId": "atoms-tech", "temperature": 2.0,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/analyze-requirement", tt.payload)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, decodeBody(t, w), "detail")
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/analyze-requirement",
			bytes.NewBufferString("{not json"), "application/json")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUploadAndListDocuments(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartPDF(t, []string{"ISO 27001.pdf"}, nil)
	w := env.do(t, http.MethodPost, "/api/organizations/atoms-tech/documents", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "atoms-tech", resp["organizationId"])
	files, _ := resp["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "ISO_27001.pdf", files[0])
	assert.Equal(t, "Successfully uploaded 1 files", resp["message"])

	w = env.do(t, http.MethodGet, "/api/organizations/atoms-tech/documents", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeBody(t, w)
	assert.Equal(t, float64(1), resp["count"])
	docs, _ := resp["documents"].([]any)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "ISO_27001.pdf", doc["name"])
}

func TestUploadDuplicateVersions(t *testing.T) {
	env := newTestEnv(t)

	for _, want := range []string{"reg.pdf", "reg(1).pdf"} {
		body, contentType := multipartPDF(t, []string{"reg.pdf"}, nil)
		w := env.do(t, http.MethodPost, "/api/organizations/atoms-tech/documents", body, contentType)
		require.Equal(t, http.StatusOK, w.Code)

		files, _ := decodeBody(t, w)["files"].([]any)
		require.Len(t, files, 1)
		assert.Equal(t, want, files[0])
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartPDF(t, []string{"notes.txt"}, nil)
	w := env.do(t, http.MethodPost, "/api/organizations/atoms-tech/documents", body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only PDF files are allowed. Got: notes.txt", decodeBody(t, w)["detail"])
}

func TestUploadNoFiles(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartPDF(t, nil, map[string]string{"unused": "x"})
	w := env.do(t, http.MethodPost, "/api/organizations/atoms-tech/documents", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLegacyUpload(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartPDF(t, []string{"reg.pdf"}, map[string]string{"organizationId": "atoms-tech"})
	w := env.do(t, http.MethodPost, "/api/upload", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "atoms-tech", decodeBody(t, w)["organizationId"])

	// Missing the organizationId form field.
	body, contentType = multipartPDF(t, []string{"reg.pdf"}, nil)
	w = env.do(t, http.MethodPost, "/api/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDocument(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartPDF(t, []string{"reg.pdf"}, nil)
	w := env.do(t, http.MethodPost, "/api/organizations/atoms-tech/documents", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/organizations/atoms-tech/documents/reg.pdf", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Document deleted successfully", decodeBody(t, w)["message"])

	w = env.do(t, http.MethodDelete, "/api/organizations/atoms-tech/documents/reg.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/organizations/no-such-org/documents/reg.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPipelineRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/ai", map[string]any{
		"action":                   "start",
		"original_requirement":     "The system shall respond within 2 seconds.",
		"regulation_document_name": "ISO_27001",
		"organizationId":           "atoms-tech",
	})
	require.Equal(t, http.StatusOK, w.Code)

	start := decodeBody(t, w)
	runID, _ := start["runId"].(string)
	require.NotEmpty(t, runID)
	assert.Equal(t, string(types.JobQueued), start["state"])

	env.runner.Wait()

	w = env.do(t, http.MethodGet, "/api/ai?runId="+runID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	status := decodeBody(t, w)
	assert.Equal(t, string(types.JobDone), status["state"])
	result, ok := status["result"].(map[string]any)
	require.True(t, ok, "result missing: %s", w.Body.String())
	assert.Equal(t, "success", result["status"])
}

func TestPipelineStatusErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/ai", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodGet, "/api/ai?runId=no-such-run", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", decodeBody(t, w)["detail"])
}

func TestPipelineValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/ai", map[string]any{"organizationId": "atoms-tech"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/api/ai", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
