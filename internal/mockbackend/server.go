package mockbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"deckify/internal/logging"
	"deckify/internal/services/backend"
)

const maxUploadBytes = 32 << 20

// Options tunes the mock.
type Options struct {
	// Latency delays every analysis response.
	Latency time.Duration
	Logger  *slog.Logger
}

// Server imitates the analysis backend with canned responses.
type Server struct {
	opts   Options
	router *mux.Router
	server *http.Server
	logger *slog.Logger
}

// New builds the mock and its routes.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "mock-backend"),
	}
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/analyze-page", s.handleAnalyzePage).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mock listen: %w", err)
	}
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mock backend listening", slog.String("address", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock serve: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing image part")
		return
	}
	_ = file.Close()

	pageID := strings.TrimSpace(r.FormValue("page_id"))
	if pageID == "" {
		pageID = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	if pageID == "" {
		pageID = "page"
	}

	if s.opts.Latency > 0 {
		select {
		case <-time.After(s.opts.Latency):
		case <-r.Context().Done():
			return
		}
	}

	s.logger.Info("analyzed page",
		slog.String(logging.FieldPage, pageID),
		slog.Int64("upload_bytes", header.Size),
	)
	s.writeJSON(w, http.StatusOK, SampleAnalysis(pageID))
}

// SampleAnalysis is the canned response for a page. The note id is derived
// from the page id so repeated uploads of a page yield the same card.
func SampleAnalysis(pageID string) backend.PageAnalysis {
	return backend.PageAnalysis{
		PageID:      pageID,
		Confidence:  0.9,
		Warnings:    []string{},
		Annotations: []backend.AnnotationMark{},
		Notes: []backend.RawNote{{
			ID:               uuid.NewSHA1(uuid.NameSpaceURL, []byte("deckify-mock:"+pageID)).String(),
			ExpressionOrWord: "example",
			Reading:          "ex-am-ple",
			Meaning:          "sample card",
			Example:          "This is an example sentence.",
			Confidence:       backend.ScoreOf(0.9),
		}},
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
