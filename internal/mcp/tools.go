package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"complaintrag/internal/domain"
)

const maxK = 20

// QueryInput is the input schema for query_complaints.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question about consumer complaints"`
	K     int    `json:"k,omitempty" jsonschema:"number of excerpts to retrieve (default from config, at most 20)"`
}

// QueryOutput is the answer with its supporting excerpts.
type QueryOutput struct {
	Mode     string            `json:"mode"`
	Answer   string            `json:"answer"`
	Chunks   []string          `json:"chunks"`
	Metadata []domain.Metadata `json:"metadata"`
}

// IndexInfoInput takes no arguments.
type IndexInfoInput struct{}

// IndexInfoOutput describes the index the server answers from.
type IndexInfoOutput struct {
	Mode               string `json:"mode"`
	Available          bool   `json:"available"`
	Collection         string `json:"collection,omitempty"`
	PhysicalCollection string `json:"physical_collection,omitempty"`
	VectorDatabase     string `json:"vector_database,omitempty"`
	EmbeddingModel     string `json:"embedding_model,omitempty"`
	EmbeddingDimension int    `json:"embedding_dimension,omitempty"`
	DocumentsIndexed   int    `json:"documents_indexed,omitempty"`
	TotalChunks        int    `json:"total_chunks,omitempty"`
	BuiltAt            string `json:"built_at,omitempty"`
	Summary            string `json:"summary,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_complaints",
		Description: "Answer a question about consumer complaints from the indexed complaint narratives",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_info",
		Description: "Describe the complaint index currently being served",
	}, s.handleIndexInfo)
}

// handleQuery answers through the service and trims the excerpts to k.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	resp := s.svc.ProcessQuery(ctx, input.Query)
	out := QueryOutput{
		Mode:     s.svc.Mode(),
		Answer:   resp.Answer,
		Chunks:   resp.Chunks,
		Metadata: resp.Metadata,
	}
	if k := min(input.K, maxK); k > 0 && k < len(out.Chunks) {
		out.Chunks = out.Chunks[:k]
		if k < len(out.Metadata) {
			out.Metadata = out.Metadata[:k]
		}
	}
	return nil, out, nil
}

func (s *Server) handleIndexInfo(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ IndexInfoInput,
) (*mcp.CallToolResult, IndexInfoOutput, error) {
	out := IndexInfoOutput{Mode: s.svc.Mode()}
	m := s.svc.Manifest()
	if m == nil {
		return nil, out, nil
	}
	out.Available = true
	out.Collection = m.CollectionName
	out.PhysicalCollection = m.PhysicalCollection
	out.VectorDatabase = m.VectorDatabase
	out.EmbeddingModel = m.EmbeddingModel
	out.EmbeddingDimension = m.EmbeddingDimension
	out.DocumentsIndexed = m.DocumentsIndexed
	out.TotalChunks = m.TotalChunks
	out.Summary = m.Summary
	if !m.BuiltAt.IsZero() {
		out.BuiltAt = m.BuiltAt.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}
