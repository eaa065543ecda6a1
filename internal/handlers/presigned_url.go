package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	s3service "mortgage-qualification-engine/internal/services/s3"
)

// UploadURLSigner issues presigned upload URLs.
type UploadURLSigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// PresignedURLHandler hands out upload URLs for catalog CSVs.
type PresignedURLHandler struct {
	signer UploadURLSigner
	expiry time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(signer UploadURLSigner, logger *zap.Logger) *PresignedURLHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresignedURLHandler{
		signer: signer,
		expiry: time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

// PresignedURLResponse is the response structure for presigned URL requests.
type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Handle processes the API Gateway request for generating presigned URLs.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("GET,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	filename := request.QueryStringParameters["filename"]
	if filename == "" {
		filename = "catalog_" + uuid.New().String()[:8] + ".csv"
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return errorResponse(headers, http.StatusBadRequest, "Only CSV files are allowed")
	}

	key := UploadPrefix + h.now().UTC().Format("2006/01/02") + "/" + uuid.New().String() + "_" + sanitizeFilename(filename)

	result, err := h.signer.GeneratePresignedUploadURL(ctx, key, "text/csv", h.expiry)
	if err != nil {
		h.logger.Error("Failed to generate presigned URL", zap.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	return jsonResponse(headers, http.StatusOK, PresignedURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: int(h.expiry.Seconds()),
	})
}

// sanitizeFilename removes unsafe characters from filename.
func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if len(safe) > 100 {
		safe = safe[len(safe)-100:]
	}
	return safe
}
