package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/chunker"
	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding/tfidf"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
	"complaintrag/internal/summarizer"
	"complaintrag/internal/vectorstore/memory"
)

func buildIndex(t *testing.T, store *memory.Storage, docs []domain.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index_info.json")
	ix := indexer.New(store, tfidf.NewEmbedder(), chunker.NewCharChunker(0, 0, 0), indexer.Options{
		Collection:      "complaint_chunks",
		ManifestPath:    path,
		NarrativeFields: []string{"cleaned_narrative", "Consumer complaint narrative", "narrative"},
	})
	_, err := ix.Build(context.Background(), docs)
	require.NoError(t, err)
	return path
}

func openService(t *testing.T, store *memory.Storage, manifestPath string) *RAGServiceImpl {
	t.Helper()
	svc, err := Open(context.Background(), store, tfidf.NewEmbedder(), Options{
		ManifestPath: manifestPath,
		K:            3,
		Answerer:     summarizer.NewHeuristicSummarizer(config.AnswererConfig{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestProcessQuery_BillingIssueFindsChargedTwice(t *testing.T) {
	store := memory.NewStorage()
	path := buildIndex(t, store, []domain.Document{{
		ID: "ID_0",
		Fields: map[string]string{
			"narrative": "Customer was charged twice for the same purchase.",
			"Product":   "Credit Card",
		},
	}})
	svc := openService(t, store, path)
	require.Equal(t, "live", svc.Mode())
	require.NotNil(t, svc.Manifest())

	resp := svc.ProcessQuery(context.Background(), "billing issue")
	require.NotEmpty(t, resp.Chunks)
	assert.Contains(t, strings.Join(resp.Chunks, " "), "charged twice")
	assert.Contains(t, resp.Answer, "Credit Card")
	require.Len(t, resp.Metadata, len(resp.Chunks))
	assert.Equal(t, "Credit Card", resp.Metadata[0].Get(domain.KeyProductCategory))
}

func TestProcessQuery_EmptyIndex(t *testing.T) {
	store := memory.NewStorage()
	path := buildIndex(t, store, []domain.Document{{ID: "1", Fields: map[string]string{"narrative": "short"}}})
	svc := openService(t, store, path)
	require.Equal(t, "live", svc.Mode())

	resp := svc.ProcessQuery(context.Background(), "billing issue")
	assert.Equal(t, "No relevant complaints found for 'billing issue'.", resp.Answer)
	assert.Empty(t, resp.Chunks)
	assert.Empty(t, resp.Metadata)
}

func TestProcessQuery_NoIndexServesCannedCreditCard(t *testing.T) {
	store := memory.NewStorage()
	svc := openService(t, store, filepath.Join(t.TempDir(), "missing.json"))
	require.Equal(t, "canned", svc.Mode())
	assert.Nil(t, svc.Manifest())

	resp := svc.ProcessQuery(context.Background(), "credit card fraud")
	assert.Contains(t, resp.Answer, "Credit Card")
	assert.Len(t, resp.Chunks, 3)
	assert.Equal(t, "Credit Card", resp.Metadata[0].Get(domain.KeyProductCategory))
}

func TestProcessQuery_EmptyQuery(t *testing.T) {
	svc := NewRAGService(NewCannedSource(nil), nil, nil)
	for _, q := range []string{"", "   ", "\n\t"} {
		resp := svc.ProcessQuery(context.Background(), q)
		assert.Equal(t, EmptyQueryMessage, resp.Answer)
		assert.Empty(t, resp.Chunks)
		assert.Empty(t, resp.Metadata)
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "live" }
func (failingSource) Answer(context.Context, string) (Response, error) {
	return Response{}, errors.New("vector store timeout")
}

func TestProcessQuery_SourceErrorFallsBackToCanned(t *testing.T) {
	svc := NewRAGService(failingSource{}, NewCannedSource(nil), nil)
	resp := svc.ProcessQuery(context.Background(), "why was my billing wrong")
	assert.Contains(t, resp.Answer, "Billing Issues Analysis")
	assert.Len(t, resp.Chunks, 3)
}

func TestProcessQuery_SourceErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	svc := NewRAGService(failingSource{}, NewCannedSource(nil), nil)
	resp := svc.ProcessQuery(context.Background(), "customer service wait")
	assert.Contains(t, resp.Answer, "Customer Service Analysis")
	assert.Contains(t, buf.String(), "serving canned answer")
	assert.Contains(t, buf.String(), "vector store timeout")
}

func TestOpen_PlaceholderIndexIsCanned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index_info.json")
	require.NoError(t, indexer.WriteManifest(path, &indexer.Manifest{Placeholder: true, PhysicalCollection: "x"}))
	svc := openService(t, memory.NewStorage(), path)
	assert.Equal(t, "canned", svc.Mode())
}

func TestOpen_UnreachableCollectionIsCanned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index_info.json")
	require.NoError(t, indexer.WriteManifest(path, &indexer.Manifest{PhysicalCollection: "dropped"}))
	svc := openService(t, memory.NewStorage(), path)
	assert.Equal(t, "canned", svc.Mode())
}

func TestCannedSource_Matching(t *testing.T) {
	s := NewCannedSource(config.DefaultCannedTopics())
	tests := []struct {
		query string
		want  string
	}{
		{"Credit Card billing", "Credit Card Complaint Analysis"},
		{"billing dispute", "Billing Issues Analysis"},
		{"customer SERVICE wait", "Customer Service Analysis"},
		{"mortgage escrow", "Analysis of 'mortgage escrow'"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := s.Answer(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Contains(t, resp.Answer, tt.want)
			assert.Len(t, resp.Chunks, len(resp.Metadata))
		})
	}

	resp, _ := s.Answer(context.Background(), "mortgage escrow")
	assert.Equal(t, "Relevant complaint about mortgage issues.", resp.Chunks[0])
}

func TestCannedSource_NoGenericTopic(t *testing.T) {
	s := NewCannedSource([]config.CannedTopic{{Match: "fraud", Answer: "fraud answer"}})
	resp, _ := s.Answer(context.Background(), "loans")
	assert.Contains(t, resp.Answer, "loans")
	assert.Empty(t, resp.Chunks)
}
