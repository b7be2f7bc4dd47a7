package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/domain"
	"complaintrag/internal/vectorstore"
)

type fakePoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// fakeQdrant implements the handful of REST endpoints the client uses.
type fakeQdrant struct {
	mu          sync.Mutex
	apiKeys     []string
	collections map[string]int
	points      map[string][]fakePoint
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: map[string]int{}, points: map[string][]fakePoint{}}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/collections/"), "/")
	name := parts[0]
	action := strings.Join(parts[1:], "/")
	_, exists := f.collections[name]

	write := func(v any) { _ = json.NewEncoder(w).Encode(map[string]any{"result": v}) }

	switch {
	case action == "" && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.collections[name] = body.Vectors.Size
		f.points[name] = nil
		write(true)
	case !exists:
		w.WriteHeader(http.StatusNotFound)
	case action == "" && r.Method == http.MethodDelete:
		delete(f.collections, name)
		delete(f.points, name)
		write(true)
	case action == "" && r.Method == http.MethodGet:
		write(map[string]any{"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": f.collections[name]}}}})
	case action == "points" && r.Method == http.MethodPut:
		var body struct {
			Points []fakePoint `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points[name] = append(f.points[name], body.Points...)
		write(map[string]any{"status": "completed"})
	case action == "points/count":
		write(map[string]any{"count": len(f.points[name])})
	case action == "points/scroll":
		write(map[string]any{"points": f.points[name], "next_page_offset": nil})
	case action == "points/search":
		var body struct {
			Vector []float32 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		entries := make([]domain.Entry, len(f.points[name]))
		byID := map[string]fakePoint{}
		for i, p := range f.points[name] {
			id, _ := p.Payload["chunk_id"].(string)
			entries[i] = domain.Entry{Chunk: domain.Chunk{ID: id}, Vector: p.Vector}
			byID[id] = p
		}
		var out []map[string]any
		for _, res := range vectorstore.TopK(entries, body.Vector, body.Limit) {
			out = append(out, map[string]any{"score": res.Score, "payload": byID[res.Chunk.ID].Payload})
		}
		write(out)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func entry(id string, v ...float32) domain.Entry {
	return domain.Entry{
		Chunk: domain.Chunk{
			ID: id, DocumentID: "doc-" + id, Text: "text " + id, Index: 1, Total: 2,
			Metadata: domain.Metadata{domain.KeyIssue: "Billing dispute"},
		},
		Vector: v,
	}
}

func TestStorage_Lifecycle(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s := NewStorage(Config{URL: srv.URL, APIKey: "secret"})
	defer s.Close()

	_, err := s.Count(ctx, "c_1")
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)

	require.NoError(t, s.Create(ctx, "c_1", 2, vectorstore.Cosine))
	require.NoError(t, s.Upsert(ctx, "c_1", []domain.Entry{entry("chunk_0", 1, 0), entry("chunk_1", 0, 1)}))
	assert.ErrorIs(t, s.Upsert(ctx, "c_1", []domain.Entry{entry("chunk_2", 1)}), vectorstore.ErrDimensionMismatch)

	n, err := s.Count(ctx, "c_1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := s.Search(ctx, "c_1", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "chunk_1", res[0].Chunk.ID)
	assert.Equal(t, "Billing dispute", res[0].Chunk.Metadata.Get(domain.KeyIssue))
	assert.Equal(t, 1, res[0].Chunk.Index)
	assert.Equal(t, 2, res[0].Chunk.Total)

	all, err := s.Entries(ctx, "c_1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []float32{1, 0}, all[0].Vector)
	assert.Equal(t, PointID("chunk_0"), fake.points["c_1"][0].ID)

	require.NoError(t, s.Drop(ctx, "c_1"))
	require.NoError(t, s.Drop(ctx, "c_1"))
	for _, k := range fake.apiKeys {
		assert.Equal(t, "secret", k)
	}
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("chunk_7"), PointID("chunk_7"))
	assert.NotEqual(t, PointID("chunk_7"), PointID("chunk_8"))
	assert.Len(t, PointID("chunk_7"), 36)
}

func TestStorage_CreateValidates(t *testing.T) {
	s := NewStorage(Config{URL: "http://127.0.0.1:1"})
	assert.Error(t, s.Create(context.Background(), "c", 0, vectorstore.Cosine))
	assert.Error(t, s.Create(context.Background(), "c", 2, "dot"))
}
