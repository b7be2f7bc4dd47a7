package service

import (
	"context"
	"strings"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
)

// Source produces the answer triple for a non-empty query.
type Source interface {
	Name() string
	Answer(ctx context.Context, query string) (Response, error)
}

// Retriever is the subset of retriever.Retriever used by LiveSource.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// LiveSource answers from the vector index.
type LiveSource struct {
	retriever Retriever
	answerer  domain.Answerer
	k         int
}

// NewLiveSource creates a source that retrieves k chunks per query.
func NewLiveSource(r Retriever, a domain.Answerer, k int) *LiveSource {
	return &LiveSource{retriever: r, answerer: a, k: k}
}

func (s *LiveSource) Name() string { return "live" }

func (s *LiveSource) Answer(ctx context.Context, query string) (Response, error) {
	results, err := s.retriever.Retrieve(ctx, query, s.k)
	if err != nil {
		return Response{}, err
	}
	resp := Response{
		Chunks:   make([]string, 0, len(results)),
		Metadata: make([]domain.Metadata, 0, len(results)),
	}
	for _, r := range results {
		resp.Chunks = append(resp.Chunks, r.Chunk.Text)
		resp.Metadata = append(resp.Metadata, r.Chunk.Metadata.Normalized())
	}
	resp.Answer = s.answerer.Summarize(query, resp.Chunks, resp.Metadata)
	return resp, nil
}

// CannedSource answers from a fixed topic table.
type CannedSource struct {
	topics []config.CannedTopic
}

// NewCannedSource creates a source over topics. Topics with a Match are
// tried in order; the first topic without one is the generic answer.
func NewCannedSource(topics []config.CannedTopic) *CannedSource {
	if len(topics) == 0 {
		topics = config.DefaultCannedTopics()
	}
	return &CannedSource{topics: topics}
}

func (s *CannedSource) Name() string { return "canned" }

// Answer never fails.
func (s *CannedSource) Answer(_ context.Context, query string) (Response, error) {
	return s.lookup(query), nil
}

// lookup matches query against the topic table. It cannot fail.
func (s *CannedSource) lookup(query string) Response {
	lower := strings.ToLower(query)
	var generic *config.CannedTopic
	for i := range s.topics {
		t := &s.topics[i]
		if t.Match == "" {
			if generic == nil {
				generic = t
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(t.Match)) {
			return render(t, query)
		}
	}
	if generic == nil {
		return Response{Answer: "No canned answer is available for '" + query + "'.", Chunks: []string{}, Metadata: []domain.Metadata{}}
	}
	return render(generic, query)
}

func render(t *config.CannedTopic, query string) Response {
	topic := "financial"
	if fields := strings.Fields(query); len(fields) > 0 {
		topic = fields[0]
	}
	r := strings.NewReplacer("{query}", query, "{topic}", topic)
	resp := Response{
		Answer:   r.Replace(t.Answer),
		Chunks:   make([]string, len(t.Chunks)),
		Metadata: make([]domain.Metadata, len(t.Chunks)),
	}
	for i, c := range t.Chunks {
		resp.Chunks[i] = r.Replace(c)
		var meta domain.Metadata
		if i < len(t.Metadata) {
			meta = domain.Metadata(t.Metadata[i])
		}
		resp.Metadata[i] = meta.Normalized()
	}
	return resp
}
