package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
)

func TestFrequencySummarizer_KeepsOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "Billing errors are common. The weather was nice. Billing errors cost customers money. Billing again."
	out, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.NotContains(t, out, "weather")
	assert.True(t, strings.Index(out, "are common") < strings.Index(out, "cost customers"))
}

func TestFrequencySummarizer_NoSentences(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("  no terminal punctuation  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "no terminal punctuation", out)
}

func TestFrequencySummarizer_Digest(t *testing.T) {
	out, err := NewFrequencySummarizer().Digest([]string{
		"Charged twice for one purchase",
		"",
		"Late fee charged after payment.",
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, "Charged twice for one purchase. Late fee charged after payment.", out)
}

func TestHeuristicSummarizer_Empty(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{})
	assert.Equal(t, "No relevant complaints found for 'billing issue'.", h.Summarize("billing issue", nil, nil))
}

func TestHeuristicSummarizer_Render(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{})
	chunks := []string{
		"Customer was charged twice for the same purchase and the fee was never refunded after many calls to support.",
		"Late fee applied despite payment being made on time.",
		"Unauthorized charge reported as fraud.",
	}
	meta := []domain.Metadata{
		{domain.KeyProductCategory: "Credit Card", domain.KeyIssue: "Double billing"},
		{domain.KeyProductCategory: "Mortgage", domain.KeyIssue: "Late fee"},
		{domain.KeyProductCategory: "Credit Card"},
	}

	out := h.Summarize("billing issue", chunks, meta)
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Based on analysis of 3 complaint excerpts for 'billing issue':", lines[0])
	assert.Equal(t, "• Most common product: Credit Card (2)", lines[1])
	assert.Equal(t, "• Products mentioned: Credit Card (2), Mortgage (1)", lines[2])
	assert.Equal(t, "• Main issues: Double billing (1), Late fee (1)", lines[3])
	assert.Equal(t, "• Common themes: billing, service, fraud", lines[4])
	assert.Contains(t, out, "  1. 'Customer was charged twice")
	assert.Contains(t, out, "  2. 'Late fee applied")
	assert.NotContains(t, out, "  3. ")
	assert.True(t, strings.HasSuffix(out, recommendation))
}

func TestHeuristicSummarizer_ProductTieGoesToFirst(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{})
	out := h.Summarize("q", []string{"a", "b"}, []domain.Metadata{
		{domain.KeyProductCategory: "Mortgage"},
		{domain.KeyProductCategory: "Credit Card"},
	})
	assert.Contains(t, out, "• Most common product: Mortgage (1)")
}

func TestHeuristicSummarizer_MissingMetadataIsUnknown(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{})
	out := h.Summarize("q", []string{"plain text"}, nil)
	assert.Contains(t, out, "• Products mentioned: Unknown (1)")
	assert.NotContains(t, out, "Main issues")
	assert.NotContains(t, out, "Common themes")
}

func TestHeuristicSummarizer_ExcerptLimits(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{ExcerptWords: 3, ExcerptChars: 8})
	out := h.Summarize("q", []string{"one two three four five"}, nil)
	assert.Contains(t, out, "  1. 'one two ...'")
}

func TestHeuristicSummarizer_Deterministic(t *testing.T) {
	h := NewHeuristicSummarizer(config.AnswererConfig{})
	chunks := []string{"interest rate error", "wrong fee"}
	assert.Equal(t, h.Summarize("q", chunks, nil), h.Summarize("q", chunks, nil))
}
