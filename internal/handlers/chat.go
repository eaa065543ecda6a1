package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/models"
)

// ChatService is the conversation API the chat handler exposes.
type ChatService interface {
	Start(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	HandleUserTurn(ctx context.Context, id, text string) (models.TurnResult, error)
	HandleDirectionChoice(ctx context.Context, id string, pref models.RatePreference) (models.TurnResult, error)
}

// PackageLister lists the package catalog.
type PackageLister interface {
	List(ctx context.Context) ([]*models.MortgagePackage, error)
}

// MessageRequest is the body of a chat message.
type MessageRequest struct {
	Text string `json:"text"`
}

// DirectionRequest is the body of a direction card choice.
type DirectionRequest struct {
	Preference string `json:"preference"`
}

// ChatHandler routes API Gateway requests to the conversation service.
type ChatHandler struct {
	service  ChatService
	packages PackageLister
	logger   *zap.Logger
}

// NewChatHandler creates a chat handler. packages may be nil.
func NewChatHandler(service ChatService, packages PackageLister, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		service:  service,
		packages: packages,
		logger:   logger,
	}
}

// Handle processes API Gateway proxy requests for the chat API.
func (h *ChatHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("GET,POST,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	parts := strings.Split(strings.Trim(request.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return errorResponse(headers, http.StatusNotFound, "Not found")
	}

	switch {
	case parts[1] == "packages" && len(parts) == 2 && request.HTTPMethod == http.MethodGet:
		return h.listPackages(ctx, headers)

	case parts[1] != "sessions":
		return errorResponse(headers, http.StatusNotFound, "Not found")

	case len(parts) == 2 && request.HTTPMethod == http.MethodPost:
		return h.startSession(ctx, headers)

	case len(parts) == 3 && request.HTTPMethod == http.MethodGet:
		return h.getSession(ctx, headers, parts[2])

	case len(parts) == 4 && parts[3] == "messages" && request.HTTPMethod == http.MethodPost:
		return h.postMessage(ctx, headers, parts[2], request.Body)

	case len(parts) == 4 && parts[3] == "direction" && request.HTTPMethod == http.MethodPost:
		return h.postDirection(ctx, headers, parts[2], request.Body)
	}

	return errorResponse(headers, http.StatusNotFound, "Not found")
}

func (h *ChatHandler) startSession(ctx context.Context, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	sess, err := h.service.Start(ctx)
	if err != nil {
		return h.serviceError(headers, "start session", "", err)
	}

	return jsonResponse(headers, http.StatusCreated, Response{
		Success: true,
		Message: "Session started",
		Data:    sess,
	})
}

func (h *ChatHandler) getSession(ctx context.Context, headers map[string]string, id string) (events.APIGatewayProxyResponse, error) {
	sess, err := h.service.Get(ctx, id)
	if err != nil {
		return h.serviceError(headers, "load session", id, err)
	}

	return jsonResponse(headers, http.StatusOK, Response{Success: true, Data: sess})
}

func (h *ChatHandler) postMessage(ctx context.Context, headers map[string]string, id, body string) (events.APIGatewayProxyResponse, error) {
	var req MessageRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}

	result, err := h.service.HandleUserTurn(ctx, id, req.Text)
	if err != nil {
		return h.serviceError(headers, "handle message", id, err)
	}

	return jsonResponse(headers, http.StatusOK, Response{Success: true, Data: result})
}

func (h *ChatHandler) postDirection(ctx context.Context, headers map[string]string, id, body string) (events.APIGatewayProxyResponse, error) {
	var req DirectionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}

	pref, err := models.ValidateDirectionChoice(req.Preference)
	if err != nil {
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	result, err := h.service.HandleDirectionChoice(ctx, id, pref)
	if err != nil {
		return h.serviceError(headers, "handle direction", id, err)
	}

	return jsonResponse(headers, http.StatusOK, Response{Success: true, Data: result})
}

func (h *ChatHandler) listPackages(ctx context.Context, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	if h.packages == nil {
		return errorResponse(headers, http.StatusServiceUnavailable, "Package catalog not configured")
	}

	packages, err := h.packages.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list packages", zap.Error(err))
		return errorResponse(headers, http.StatusServiceUnavailable, "Package catalog unavailable")
	}

	return jsonResponse(headers, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"packages": packages,
			"count":    len(packages),
		},
	})
}

func (h *ChatHandler) serviceError(headers map[string]string, action, id string, err error) (events.APIGatewayProxyResponse, error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Failed to "+action, zap.String("session_id", id), zap.Error(err))
	}
	return errorResponse(headers, status, PublicMessage(err))
}
