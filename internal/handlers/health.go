package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// Dependency states reported by the health check.
const (
	StatusConnected     = "connected"
	StatusDisconnected  = "disconnected"
	StatusNotConfigured = "not configured"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]CheckFunc
	stage   string
	version string
}

// NewHealthHandler creates a health handler. A nil check reports the dependency as not configured.
func NewHealthHandler(stage, version string, checks map[string]CheckFunc) *HealthHandler {
	if version == "" {
		version = "1.0.0"
	}
	return &HealthHandler{
		checks:  checks,
		stage:   stage,
		version: version,
	}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Stage        string            `json:"stage"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Check probes every dependency. Any failure degrades the status.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      "dexter",
		Version:      h.version,
		Stage:        h.stage,
		Dependencies: make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := h.checks[name]
		switch {
		case check == nil:
			response.Dependencies[name] = StatusNotConfigured
		case check(ctx) != nil:
			response.Dependencies[name] = StatusDisconnected
			response.Status = "degraded"
		default:
			response.Dependencies[name] = StatusConnected
		}
	}

	return response
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	response := h.Check(ctx)

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return jsonResponse(corsHeaders("GET,OPTIONS"), statusCode, response)
}
