package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/utils"
)

// Key prefixes in the catalog bucket.
const (
	UploadPrefix    = "uploads/"
	ProcessedPrefix = "processed/"
	maxReportErrors = 10
)

// CatalogFiles reads and archives uploaded catalog files.
type CatalogFiles interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	MoveFile(ctx context.Context, sourceKey, destKey string) error
}

// PackageWriter stores parsed packages.
type PackageWriter interface {
	BulkUpsert(ctx context.Context, packages []*models.MortgagePackage) (int, error)
}

// CatalogImportHandler loads package CSVs dropped into the catalog bucket.
type CatalogImportHandler struct {
	files  CatalogFiles
	repo   PackageWriter
	parser *utils.CSVParser
	logger *zap.Logger
}

// NewCatalogImportHandler creates a new catalog import handler.
func NewCatalogImportHandler(files CatalogFiles, repo PackageWriter, logger *zap.Logger) *CatalogImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogImportHandler{
		files:  files,
		repo:   repo,
		parser: utils.NewCSVParser(),
		logger: logger,
	}
}

// ImportResult is the outcome of one catalog file.
type ImportResult struct {
	Key      string   `json:"key"`
	Upserted int      `json:"upserted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportSummary is returned to the Lambda runtime.
type ImportSummary struct {
	Message string         `json:"message"`
	Files   []ImportResult `json:"files"`
}

// Handle processes S3 events for uploaded catalog CSVs.
func (h *CatalogImportHandler) Handle(ctx context.Context, s3Event events.S3Event) (ImportSummary, error) {
	if len(s3Event.Records) == 0 {
		return ImportSummary{Message: "No records to process"}, nil
	}

	summary := ImportSummary{Message: "Catalog processed"}
	for _, record := range s3Event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return summary, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		if !strings.HasPrefix(key, UploadPrefix) || !strings.HasSuffix(strings.ToLower(key), ".csv") {
			h.logger.Info("Skipping object outside the upload area", zap.String("key", key))
			continue
		}

		result, err := h.importFile(ctx, key)
		if err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, result)
	}

	return summary, nil
}

func (h *CatalogImportHandler) importFile(ctx context.Context, key string) (ImportResult, error) {
	result := ImportResult{Key: key}

	content, err := h.files.DownloadFile(ctx, key)
	if err != nil {
		return result, fmt.Errorf("failed to download catalog: %w", err)
	}

	packages, parseErrors := h.parser.ParsePackages(string(content))
	result.Rejected = len(parseErrors)
	for _, e := range parseErrors {
		if len(result.Errors) == maxReportErrors {
			break
		}
		result.Errors = append(result.Errors, e.Error())
	}

	h.logger.Info("Parsed catalog",
		zap.String("key", key),
		zap.Int("valid", len(packages)),
		zap.Int("rejected", len(parseErrors)),
	)

	if len(packages) == 0 {
		return result, nil
	}

	upserted, err := h.repo.BulkUpsert(ctx, packages)
	if err != nil {
		return result, fmt.Errorf("failed to store packages: %w", err)
	}
	result.Upserted = upserted

	archiveKey := ProcessedPrefix + strings.TrimPrefix(key, UploadPrefix)
	if err := h.files.MoveFile(ctx, key, archiveKey); err != nil {
		h.logger.Warn("Failed to archive catalog file", zap.String("key", key), zap.Error(err))
	}

	return result, nil
}
