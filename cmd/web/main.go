package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"branding-bible/internal/brand"
	"branding-bible/internal/chat"
	"branding-bible/internal/config"
	"branding-bible/internal/gemini"
	"branding-bible/internal/httpclient"
	"branding-bible/internal/markdown"
	"branding-bible/internal/pipeline"
	"branding-bible/internal/session"
)

//go:embed static/*
var staticFS embed.FS

type server struct {
	cfg      config.Config
	gen      pipeline.Generator
	sessions *session.Store
	logger   *slog.Logger

	// runMaxIdle prunes stored runs the same way the session store prunes
	// idle conversations.
	runMaxIdle time.Duration

	mu   sync.Mutex
	runs map[string]*storedRun
}

type storedRun struct {
	res          *pipeline.Result
	lastActivity time.Time
}

type apiError struct {
	Error string `json:"error"`
}

type generateRequest struct {
	Mission string `json:"mission"`
}

type generateResponse struct {
	*pipeline.Result
	BrandVoiceHTML string `json:"brandVoiceHtml,omitempty"`
	ShareLink      string `json:"shareLink,omitempty"`
	ErrorReport    string `json:"errorReport"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		panic(err)
	}

	addr := strings.TrimSpace(os.Getenv("WEB_ADDR"))
	if addr == "" {
		addr = ":8080"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		ChatModel:  cfg.ChatModel,
		MaxHistory: cfg.MaxHistoryMessages,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	sessions := session.NewStore(session.Options{
		Factory: func() *chat.Controller {
			return chat.New(chat.Options{
				Conversation: gem.StartChat(brand.ChatSystemInstruction),
				Logger:       logger,
				Greeting:     brand.ChatGreeting,
			})
		},
		MaxIdle: 6 * time.Hour,
	})

	s := &server{
		cfg:        cfg,
		gen:        gem,
		sessions:   sessions,
		logger:     logger,
		runMaxIdle: 6 * time.Hour,
		runs:       make(map[string]*storedRun),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/history", s.handleChatHistory)
	mux.HandleFunc("/api/export/", s.handleExport)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticSub)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           withLogging(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("web started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

// sessionID ties chat transcripts and pipeline results to one browser tab.
// The front-end generates it and repeats it on every call.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return id
	}
	return r.RemoteAddr
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	// Share links land here too: a decoded mission from the URL goes
	// through the same entry point as manual input.
	if strings.TrimSpace(req.Mission) == "" {
		if mission, ok := brand.MissionFromQuery(r.URL.Query()); ok {
			req.Mission = mission
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	runner := pipeline.New(pipeline.Options{
		Generator: s.gen,
		Logger:    s.logger,
	})

	res, err := runner.Run(ctx, req.Mission)
	switch {
	case errors.Is(err, pipeline.ErrEmptyMission):
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Please enter your company mission."})
		return
	case errors.Is(err, pipeline.ErrCriticalStage):
		writeJSON(w, http.StatusBadGateway, apiError{Error: res.ErrorReport()})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	s.storeRun(sessionID(r), res)

	out := generateResponse{
		Result:      res,
		ShareLink:   brand.ShareLink(requestBaseURL(r), res.Mission),
		ErrorReport: res.ErrorReport(),
	}
	if res.BrandVoice != "" {
		if html, err := markdown.ToHTML(res.BrandVoice); err == nil {
			out.BrandVoiceHTML = html
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChat streams one chat turn back as server-sent events, one event
// per model chunk.
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "streaming unsupported"})
		return
	}

	ctrl := s.sessions.Get(sessionID(r))

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	headersSent := false
	sendEvent := func(chunk string) {
		if !headersSent {
			w.Header().Set("content-type", "text/event-stream")
			w.Header().Set("cache-control", "no-cache")
			w.WriteHeader(http.StatusOK)
			headersSent = true
		}
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	err := ctrl.SubmitTurnObserved(ctx, req.Message, sendEvent)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, apiError{Error: "message is empty"})
		return
	case errors.Is(err, chat.ErrTurnInFlight):
		writeJSON(w, http.StatusConflict, apiError{Error: "a turn is already in flight"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	if !headersSent {
		w.Header().Set("content-type", "text/event-stream")
		w.Header().Set("cache-control", "no-cache")
		w.WriteHeader(http.StatusOK)
	}

	// A turn that failed mid-stream ends with the apology as the final
	// transcript entry; tell the client to replace any partial text.
	transcript := ctrl.Snapshot()
	if len(transcript) > 0 {
		last := transcript[len(transcript)-1]
		if last.Role == chat.RoleModel && last.Content == chat.Apology {
			data, _ := json.Marshal(chat.Apology)
			fmt.Fprintf(w, "event: apology\ndata: %s\n\n", data)
		}
	}

	fmt.Fprint(w, "event: done\ndata: {}\n\n")
	flusher.Flush()
}

func (s *server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	ctrl := s.sessions.Get(sessionID(r))
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	res := s.getRun(sessionID(r))
	if res == nil || res.Bible == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no generated brand to export"})
		return
	}

	asset := strings.TrimPrefix(r.URL.Path, "/api/export/")

	var (
		export brand.Export
		err    error
	)
	switch asset {
	case brand.ExportPalette:
		export, err = brand.ExportPaletteJSON(res.Bible.Palette)
	case brand.ExportFonts:
		export, err = brand.ExportFontsJSON(res.Bible.Fonts)
	case brand.ExportVoice:
		if res.BrandVoice == "" {
			writeJSON(w, http.StatusNotFound, apiError{Error: "brand voice was not generated"})
			return
		}
		export = brand.ExportVoiceMarkdown(res.BrandVoice)
	case brand.ExportPostIdeas:
		if len(res.PostIdeas) == 0 {
			writeJSON(w, http.StatusNotFound, apiError{Error: "post ideas were not generated"})
			return
		}
		export = brand.ExportPostIdeasMarkdown(res.PostIdeas)
	case brand.ExportSeo:
		if res.Seo == nil {
			writeJSON(w, http.StatusNotFound, apiError{Error: "seo recommendations were not generated"})
			return
		}
		export, err = brand.ExportSeoJSON(*res.Seo)
	default:
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown asset"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}

	w.Header().Set("content-type", export.ContentType)
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (s *server) storeRun(key string, res *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneRunsLocked()
	s.runs[key] = &storedRun{res: res, lastActivity: time.Now()}
}

func (s *server) getRun(key string) *pipeline.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneRunsLocked()

	run, ok := s.runs[key]
	if !ok {
		return nil
	}
	run.lastActivity = time.Now()
	return run.res
}

func (s *server) pruneRunsLocked() {
	if s.runMaxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.runMaxIdle)
	for key, run := range s.runs {
		if run.lastActivity.Before(cutoff) {
			delete(s.runs, key)
		}
	}
}

// requestBaseURL reconstructs the externally visible origin so share links
// survive a reverse proxy.
func requestBaseURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: "/"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
