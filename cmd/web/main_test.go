package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branding-bible/internal/brand"
	"branding-bible/internal/config"
	"branding-bible/internal/gemini"
	"branding-bible/internal/pipeline"
)

const testBibleJSON = `{
	"brandName": "SockSphere",
	"palette": [
		{"hex": "#2E7D32", "name": "Forest Green", "usage": "Primary"},
		{"hex": "#A5D6A7", "name": "Soft Mint", "usage": "Secondary"},
		{"hex": "#FFF8E1", "name": "Warm Cream", "usage": "Background"},
		{"hex": "#4E342E", "name": "Rich Earth", "usage": "Text"},
		{"hex": "#FF8F00", "name": "Sunset Amber", "usage": "Accent"}
	],
	"fonts": {"header": "Poppins", "body": "Inter", "notes": "Friendly."},
	"logoDescriptions": {"primary": "A leaf mark", "secondary": ["a", "b"], "favicon": "f"}
}`

type stubGenerator struct{}

func (stubGenerator) GenerateStructured(_ context.Context, prompt string, _ *gemini.Schema) (json.RawMessage, error) {
	switch {
	case strings.Contains(prompt, "social media post ideas"):
		return json.RawMessage(`{"posts": ["One", "Two", "Three", "Four", "Five"]}`), nil
	case strings.Contains(prompt, "SEO metadata"):
		return json.RawMessage(`{"titleTags": ["T1", "T2", "T3"], "metaDescription": "Socks.", "keywords": ["socks"]}`), nil
	}
	return json.RawMessage(testBibleJSON), nil
}

func (stubGenerator) GenerateImage(_ context.Context, _, _ string, _ bool) (string, error) {
	return "data:image/jpeg;base64,aW1n", nil
}

func (stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return "## Voice\nWarm.", nil
}

func newTestServer() *server {
	return &server{
		cfg:        config.Config{RequestTimeout: time.Minute},
		gen:        stubGenerator{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		runMaxIdle: time.Hour,
		runs:       make(map[string]*storedRun),
	}
}

func generateRun(t *testing.T, s *server, sessionID string) generateResponse {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"mission": "Sell eco-friendly socks"}`))
	req.Header.Set("X-Session-ID", sessionID)
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var out generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGenerateThenExportRoundTrip(t *testing.T) {
	s := newTestServer()
	out := generateRun(t, s, "browser-session-1")
	require.NotNil(t, out.Bible)

	// Exports are fetched by the front-end with the same session header.
	req := httptest.NewRequest("GET", "/api/export/palette", nil)
	req.Header.Set("X-Session-ID", "browser-session-1")
	rec := httptest.NewRecorder()
	s.handleExport(rec, req)

	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("content-disposition"), `"palette.json"`)

	var palette []brand.ColorInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &palette))
	require.Len(t, palette, 5)
	assert.Equal(t, "#2E7D32", palette[0].Hex)
}

func TestExportRequiresMatchingSession(t *testing.T) {
	s := newTestServer()
	generateRun(t, s, "browser-session-1")

	// Without the header the lookup falls back to RemoteAddr and must not
	// find another session's run.
	req := httptest.NewRequest("GET", "/api/export/palette", nil)
	rec := httptest.NewRecorder()
	s.handleExport(rec, req)
	assert.Equal(t, 404, rec.Code)

	req = httptest.NewRequest("GET", "/api/export/palette", nil)
	req.Header.Set("X-Session-ID", "someone-else")
	rec = httptest.NewRecorder()
	s.handleExport(rec, req)
	assert.Equal(t, 404, rec.Code)
}

func TestExportUnknownAsset(t *testing.T) {
	s := newTestServer()
	generateRun(t, s, "browser-session-1")

	req := httptest.NewRequest("GET", "/api/export/logo", nil)
	req.Header.Set("X-Session-ID", "browser-session-1")
	rec := httptest.NewRecorder()
	s.handleExport(rec, req)
	assert.Equal(t, 404, rec.Code)
}

func TestGenerateResponseCarriesShareLink(t *testing.T) {
	s := newTestServer()
	out := generateRun(t, s, "browser-session-1")

	require.NotEmpty(t, out.ShareLink)
	assert.Contains(t, out.ShareLink, "mission=")

	// The link round-trips through the same query-parameter entry point.
	parsed := httptest.NewRequest("GET", out.ShareLink, nil)
	mission, ok := brand.MissionFromQuery(parsed.URL.Query())
	require.True(t, ok)
	assert.Equal(t, "Sell eco-friendly socks", mission)
}

func TestStoredRunsArePruned(t *testing.T) {
	s := newTestServer()
	s.runMaxIdle = 20 * time.Millisecond

	s.storeRun("stale", &pipeline.Result{})
	time.Sleep(40 * time.Millisecond)

	assert.Nil(t, s.getRun("stale"))
	assert.Empty(t, s.runs)
}

func TestActiveRunSurvivesPruning(t *testing.T) {
	s := newTestServer()
	s.runMaxIdle = 50 * time.Millisecond

	res := &pipeline.Result{}
	s.storeRun("busy", res)
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		assert.Same(t, res, s.getRun("busy"))
	}
}
