package unstructured

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

func TestPartition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, partitionPath, r.URL.Path)
		require.Equal(t, "key-123", r.Header.Get("unstructured-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fast", r.FormValue("strategy"))

		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "guide.pdf", header.Filename)

		json.NewEncoder(w).Encode([]map[string]any{
			{
				"type":     "Title",
				"text":     "Installation",
				"metadata": map[string]any{"page_number": 1, "filename": "guide.pdf"},
			},
			{
				"type":     "NarrativeText",
				"text":     "Unpack the archive.",
				"metadata": map[string]any{"page_number": 1, "filename": "guide.pdf"},
			},
		})
	}))
	defer server.Close()

	svc := NewPartitionService(Config{APIKey: "key-123", BaseURL: server.URL})

	raws, err := svc.Partition(context.Background(), "guide.pdf",
		strings.NewReader("%PDF-1.7 fake"), domain.StrategyFast)
	require.NoError(t, err)

	require.Len(t, raws, 2)
	assert.Equal(t, "Title", raws[0].Type)
	assert.Equal(t, "Installation", raws[0].Text)
	assert.Equal(t, float64(1), raws[0].Metadata["page_number"])
	assert.Equal(t, "NarrativeText", raws[1].Type)
}

func TestPartition_InvalidStrategy(t *testing.T) {
	svc := NewPartitionService(Config{})

	_, err := svc.Partition(context.Background(), "guide.pdf",
		strings.NewReader("x"), domain.PartitionStrategy("ocr"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr")
}

func TestPartition_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"detail": "File type not supported"})
	}))
	defer server.Close()

	svc := NewPartitionService(Config{BaseURL: server.URL})

	_, err := svc.Partition(context.Background(), "archive.zip",
		strings.NewReader("PK"), domain.StrategyAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File type not supported")
	assert.Contains(t, err.Error(), "422")
}

func TestPartition_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	svc := NewPartitionService(Config{BaseURL: server.URL})

	_, err := svc.Partition(context.Background(), "guide.pdf",
		strings.NewReader("x"), domain.StrategyAuto)
	require.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthcheck", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewPartitionService(Config{BaseURL: server.URL})
	require.NoError(t, svc.Ping(context.Background()))
}
