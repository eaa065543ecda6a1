// Package main provides the local HTTP server for the Dexter chat API.
// It serves the same routes as the chat Lambda plus Prometheus metrics
// and a direct catalog upload for local development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/app"
	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/utils"
)

const maxUploadBytes = 10 << 20

// ChatService is the conversation API served over HTTP.
type ChatService = handlers.ChatService

// PackageStore lists and loads catalog packages.
type PackageStore interface {
	handlers.PackageLister
	handlers.PackageWriter
}

// Server holds all dependencies
type Server struct {
	chat     ChatService
	packages PackageStore
	health   *handlers.HealthHandler
	parser   *utils.CSVParser
	logger   *zap.Logger
}

// UploadResponse contains catalog upload results
type UploadResponse struct {
	Filename     string   `json:"filename"`
	Upserted     int      `json:"upserted"`
	Rejected     int      `json:"rejected"`
	Errors       []string `json:"errors,omitempty"`
	ProcessingMs int64    `json:"processing_ms"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, utils.GetLogger())
	if err != nil {
		logger.Fatal("Failed to start engine", zap.Error(err))
	}
	defer engine.Close()

	var packages PackageStore
	if engine.Packages != nil {
		packages = engine.Packages
	}

	server := NewServer(
		engine.Conversation,
		packages,
		handlers.NewHealthHandler(cfg.Stage, os.Getenv("SERVICE_VERSION"), engine.HealthChecks()),
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Dexter API server listening",
		zap.String("addr", httpServer.Addr),
		zap.String("health", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
		zap.String("metrics", fmt.Sprintf("http://localhost:%s/metrics", cfg.Port)),
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// NewServer creates the HTTP server. packages may be nil.
func NewServer(chat ChatService, packages PackageStore, health *handlers.HealthHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:     chat,
		packages: packages,
		health:   health,
		parser:   utils.NewCSVParser(),
		logger:   logger,
	}
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/health", s.healthHandler)

	mux.HandleFunc("POST /api/sessions", s.startSessionHandler)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.messageHandler)
	mux.HandleFunc("POST /api/sessions/{id}/direction", s.directionHandler)

	mux.HandleFunc("GET /api/packages", s.packagesHandler)
	mux.HandleFunc("POST /api/catalog/upload", s.uploadHandler)

	mux.Handle("GET /metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, handlers.Response{
		Success: status == http.StatusOK,
		Message: "Dexter API is running",
		Data:    report,
	})
}

func (s *Server) startSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chat.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, handlers.Response{
		Success: true,
		Message: "Session started",
		Data:    sess,
	})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chat.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, handlers.Response{Success: true, Data: sess})
}

func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req handlers.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, handlers.Response{
			Success: false,
			Error:   "Invalid JSON in request body",
		})
		return
	}

	result, err := s.chat.HandleUserTurn(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, handlers.Response{Success: true, Data: result})
}

func (s *Server) directionHandler(w http.ResponseWriter, r *http.Request) {
	var req handlers.DirectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, handlers.Response{
			Success: false,
			Error:   "Invalid JSON in request body",
		})
		return
	}

	pref, err := models.ValidateDirectionChoice(req.Preference)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.chat.HandleDirectionChoice(r.Context(), r.PathValue("id"), pref)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, handlers.Response{Success: true, Data: result})
}

func (s *Server) packagesHandler(w http.ResponseWriter, r *http.Request) {
	if s.packages == nil {
		writeJSON(w, http.StatusOK, handlers.Response{
			Success: true,
			Data:    []models.MortgagePackage{},
		})
		return
	}

	packages, err := s.packages.List(r.Context())
	if err != nil {
		s.logger.Error("Error fetching packages", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, handlers.Response{
			Success: false,
			Error:   "Failed to fetch packages",
		})
		return
	}

	writeJSON(w, http.StatusOK, handlers.Response{
		Success: true,
		Data:    packages,
	})
}

// uploadHandler imports a catalog CSV sent as multipart form field "file".
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if s.packages == nil {
		writeJSON(w, http.StatusServiceUnavailable, handlers.Response{
			Success: false,
			Error:   "Database not connected",
		})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, handlers.Response{
			Success: false,
			Error:   "Failed to parse form: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, handlers.Response{
			Success: false,
			Error:   "No file provided",
		})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, handlers.Response{
			Success: false,
			Error:   "Only CSV files are allowed",
		})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, handlers.Response{
			Success: false,
			Error:   "Failed to read file",
		})
		return
	}

	start := time.Now()
	packages, parseErrors := s.parser.ParsePackages(string(content))
	result := UploadResponse{
		Filename: header.Filename,
		Rejected: len(parseErrors),
	}
	for _, e := range parseErrors {
		result.Errors = append(result.Errors, e.Error())
	}

	if len(packages) > 0 {
		result.Upserted, err = s.packages.BulkUpsert(r.Context(), packages)
		if err != nil {
			s.logger.Error("Catalog upload failed", zap.String("filename", header.Filename), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, handlers.Response{
				Success: false,
				Error:   "Failed to store packages",
			})
			return
		}
	}
	result.ProcessingMs = time.Since(start).Milliseconds()

	s.logger.Info("Catalog uploaded",
		zap.String("filename", header.Filename),
		zap.Int("upserted", result.Upserted),
		zap.Int("rejected", result.Rejected),
	)

	writeJSON(w, http.StatusOK, handlers.Response{
		Success: true,
		Message: "Catalog processed",
		Data:    result,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := handlers.StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, handlers.Response{
		Success: false,
		Error:   handlers.PublicMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
