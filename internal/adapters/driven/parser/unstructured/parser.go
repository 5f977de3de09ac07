// Package unstructured provides a partition service adapter backed by the
// Unstructured partition API.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure PartitionService implements the interface.
var _ driven.PartitionService = (*PartitionService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.unstructuredapp.io"
	DefaultTimeout = 300 * time.Second

	partitionPath = "/general/v0/general"
)

// Config holds configuration for the Unstructured partition service.
type Config struct {
	// APIKey authenticates against the hosted API. Optional for
	// self-hosted deployments.
	APIKey string

	// BaseURL is the API base URL (default: https://api.unstructuredapp.io).
	// Point it at a local container for offline ingestion.
	BaseURL string

	// Timeout is the request timeout (default: 300s; hi_res parsing of
	// large scans is slow).
	Timeout time.Duration
}

// PartitionService extracts typed text records from documents via the
// Unstructured partition API.
type PartitionService struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// partitionRecord is one element of the API's JSON array response.
type partitionRecord struct {
	Type     string         `json:"type"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// apiError is the API's JSON error envelope.
type apiError struct {
	Detail any `json:"detail"`
}

// NewPartitionService creates a new Unstructured partition service.
func NewPartitionService(cfg Config) *PartitionService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &PartitionService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Partition uploads one document and returns its extracted records in
// reading order.
func (s *PartitionService) Partition(
	ctx context.Context,
	filename string,
	content io.Reader,
	strategy domain.PartitionStrategy,
) ([]domain.RawElement, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("unstructured: unknown partition strategy %q", strategy)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}
	if err := writer.WriteField("strategy", string(strategy)); err != nil {
		return nil, fmt.Errorf("write strategy field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalise multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+partitionPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("unstructured-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope apiError
		if json.Unmarshal(body, &envelope) == nil && envelope.Detail != nil {
			return nil, fmt.Errorf("unstructured error (status %d): %v", resp.StatusCode, envelope.Detail)
		}
		return nil, fmt.Errorf("unstructured error (status %d): %s", resp.StatusCode, string(body))
	}

	var records []partitionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	raws := make([]domain.RawElement, len(records))
	for i, rec := range records {
		raws[i] = domain.RawElement{
			Type:     rec.Type,
			Text:     rec.Text,
			Metadata: rec.Metadata,
		}
	}
	return raws, nil
}

// Ping checks the API health endpoint.
func (s *PartitionService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthcheck", http.NoBody)
	if err != nil {
		return fmt.Errorf("unstructured: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("unstructured: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unstructured: API returned status %d", resp.StatusCode)
	}
	return nil
}
